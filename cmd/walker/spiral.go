package main

import "github.com/wricardo/growgrid/grid/engine"

// spiralDirections is the turn order of the spiral: right, up, left, down
var spiralDirections = [4]engine.Point{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1}}

// SpiralStrategy walks a square spiral outward from a start point. Legs have
// lengths 1, 1, 2, 2, 3, 3, ... so every ring is closed before the next one
// begins and the grid grows on all four sides in turn.
type SpiralStrategy struct {
	start   engine.Point
	pos     engine.Point
	dir     int
	legLen  int
	stepped int
	legs    int
}

func NewSpiralStrategy(start engine.Point) *SpiralStrategy {
	s := &SpiralStrategy{start: start}
	s.Reset()
	return s
}

// Reset puts the walker back at the start point
func (s *SpiralStrategy) Reset() {
	s.pos = s.start
	s.dir = 0
	s.legLen = 1
	s.stepped = 0
	s.legs = 0
}

// Position returns the most recently visited point
func (s *SpiralStrategy) Position() engine.Point { return s.pos }

// Next advances one step and returns the new point
func (s *SpiralStrategy) Next() engine.Point {
	s.pos = s.pos.Add(spiralDirections[s.dir])
	s.stepped++

	if s.stepped == s.legLen {
		s.stepped = 0
		s.dir = (s.dir + 1) % len(spiralDirections)
		s.legs++
		if s.legs%2 == 0 {
			s.legLen++
		}
	}
	return s.pos
}

// Batch returns the next n points
func (s *SpiralStrategy) Batch(n int) []engine.Point {
	points := make([]engine.Point, n)
	for i := range points {
		points[i] = s.Next()
	}
	return points
}
