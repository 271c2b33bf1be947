package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/growgrid/grid/engine"
)

// MaxGrowthHistory bounds the growth records kept per session. Older records
// are dropped; sequence numbers keep increasing.
const MaxGrowthHistory = 1000

// Session represents one hosted grid
type Session struct {
	ID             string
	ConfigID       string
	Grid           *engine.Growing[rune]
	Config         *GridConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
	History        []GrowthRecord
	// GrowthSeq is the last issued growth sequence number. It survives
	// ResetGrid and history trimming.
	GrowthSeq int

	unsubscribe func()
}

// NewSession builds a session with a fresh grid from config
func NewSession(id, configID string, config *GridConfig) (*Session, error) {
	grid, err := NewGridFromConfig(config)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:             id,
		ConfigID:       configID,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	s.AttachGrid(grid)
	return s, nil
}

// AttachGrid makes g the session's grid and starts recording its growth
func (s *Session) AttachGrid(g *engine.Growing[rune]) {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Grid = g
	s.unsubscribe = g.Subscribe(s.recordGrowth)
}

// ResetGrid replaces the grid with a fresh one and clears the history.
// Sequence numbers continue from GrowthSeq.
func (s *Session) ResetGrid() error {
	grid, err := NewGridFromConfig(s.Config)
	if err != nil {
		return err
	}
	s.History = nil
	s.AttachGrid(grid)
	return nil
}

// LastSeq returns the last issued growth sequence number, or 0
func (s *Session) LastSeq() int {
	if n := len(s.History); n > 0 && s.History[n-1].Seq > s.GrowthSeq {
		return s.History[n-1].Seq
	}
	return s.GrowthSeq
}

// GrowthSince returns the records with a sequence number above seq
func (s *Session) GrowthSince(seq int) []GrowthRecord {
	var out []GrowthRecord
	for _, rec := range s.History {
		if rec.Seq > seq {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Session) recordGrowth(ev engine.GrowthEvent[rune]) {
	s.GrowthSeq = s.LastSeq() + 1
	rec := GrowthRecord{
		ID:        uuid.NewString(),
		Seq:       s.GrowthSeq,
		Up:        ev.Up,
		Right:     ev.Right,
		Down:      ev.Down,
		Left:      ev.Left,
		Bounds:    ev.Grid.Bounds(),
		Timestamp: time.Now(),
	}
	s.History = append(s.History, rec)
	if len(s.History) > MaxGrowthHistory {
		s.History = append([]GrowthRecord(nil), s.History[len(s.History)-MaxGrowthHistory:]...)
	}
}
