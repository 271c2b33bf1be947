// Command growgrid serves auto-expanding 2D character grids.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config and session storage, debug logging, and
// optional ngrok tunneling for external access during development. Every
// flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/growgrid/api"
	"github.com/wricardo/growgrid/grid/config"
	"github.com/wricardo/growgrid/grid/service"
	"github.com/wricardo/growgrid/grid/session"
	"github.com/wricardo/growgrid/transport/mcp"
	"github.com/wricardo/growgrid/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Growing Grid Server"
)

// Session store kinds
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Options holds everything main needs after flag parsing
type Options struct {
	Host        string
	Port        int
	ConfigDir   string
	Store       string
	SessionsDir string
	DBPath      string
	SessionTTL  time.Duration
	Debug       bool

	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

// Addr returns host:port
func (o Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// Services bundles the wired service and the resources to release on exit
type Services struct {
	Grid     service.GridService
	Sessions *session.Manager
	closers  []io.Closer
}

// Close flushes sessions and releases storage
func (s *Services) Close() {
	if err := s.Sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: Failed to save sessions on shutdown: %v", err)
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Printf("Warning: Failed to close store: %v", err)
		}
	}
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "growgrid",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing grid configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "store", Value: StoreFile, Usage: "Session store: file, sqlite or memory", Sources: cli.EnvVars("SESSION_STORE")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for the file session store", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "db", Value: "sessions.db", Usage: "Database path for the sqlite session store", Sources: cli.EnvVars("SESSION_DB")},
			&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Evict sessions idle longer than this from memory", Sources: cli.EnvVars("SESSION_TTL")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  stdioAction,
			},
		},
		Action: serverAction,
	}
}

// optionsFromCommand reads flags into Options
func optionsFromCommand(cmd *cli.Command) Options {
	return Options{
		Host:         cmd.String("host"),
		Port:         cmd.Int("port"),
		ConfigDir:    cmd.String("config-dir"),
		Store:        cmd.String("store"),
		SessionsDir:  cmd.String("sessions-dir"),
		DBPath:       cmd.String("db"),
		SessionTTL:   cmd.Duration("session-ttl"),
		Debug:        cmd.Bool("debug"),
		NgrokEnabled: cmd.Bool("ngrok"),
		NgrokAuth:    cmd.String("ngrok-auth"),
		NgrokDomain:  cmd.String("ngrok-domain"),
	}
}

func setupLogging(opts Options) {
	if opts.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFromCommand(cmd)
	setupLogging(opts)
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	services, err := initializeServices(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Close()

	return runHTTPServer(ctx, opts, services.Grid)
}

func stdioAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFromCommand(cmd)
	setupLogging(opts)
	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)
	log.Printf("Starting %s v%s (mode: stdio-mcp)", AppName, Version)

	services, err := initializeServices(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer services.Close()

	return runStdioMCPWithInternalServer(opts, services.Grid)
}

// newMCPHandler serves single JSON-RPC messages over HTTP POST
func newMCPHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the REST API at / and the MCP proxy at /mcp
func newRouter(gridService service.GridService, hub *websocket.Hub, baseURL string) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(gridService, hub))
	mainRouter.HandleFunc("/mcp", newMCPHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(parent context.Context, opts Options, gridService service.GridService) error {
	hub := websocket.NewHub()
	go hub.Run()

	addr := opts.Addr()
	mainRouter := newRouter(gridService, hub, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			cancel()
		}
	}()

	if opts.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, opts, mainRouter)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-serveErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	default:
		return nil
	}
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, opts Options, handler http.Handler) {
	if opts.NgrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// newPersistence opens the configured session store. A nil store means memory only.
func newPersistence(opts Options, configs service.ConfigManager) (session.SessionPersistence, io.Closer, error) {
	switch opts.Store {
	case StoreFile, "":
		p, err := session.NewFilePersistence(opts.SessionsDir, configs)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	case StoreSQLite:
		p, err := session.NewSQLitePersistence(opts.DBPath, configs)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case StoreMemory:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q (want file, sqlite or memory)", opts.Store)
	}
}

// initializeServices wires session/config managers and the grid service.
// It also starts background routines that evict idle sessions and, for the
// file store, drop sessions whose files were deleted.
func initializeServices(ctx context.Context, opts Options) (*Services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, closer, err := newPersistence(opts, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	services := &Services{}
	if closer != nil {
		services.closers = append(services.closers, closer)
	}

	if persistence != nil {
		services.Sessions = session.NewManagerWithPersistence(persistence)
		if err := services.Sessions.LoadPersistedSessions(); err != nil {
			log.Printf("Warning: Failed to load persisted sessions: %v", err)
		}
	} else {
		services.Sessions = session.NewManager()
	}

	services.Grid = service.NewGridService(services.Sessions, configManager)

	if opts.SessionTTL > 0 {
		go sessionCleanupRoutine(ctx, services.Sessions, opts.SessionTTL)
	}
	if opts.Store == StoreFile || opts.Store == "" {
		go filesystemSyncRoutine(ctx, services.Sessions, persistence)
	}

	return services, nil
}

// sessionCleanupRoutine periodically evicts sessions that have not been
// accessed within maxAge. Persisted copies reload on demand.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, maxAge time.Duration) {
	ticker := time.NewTicker(min(time.Hour, maxAge))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine removes sessions from memory when their files are deleted
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n := pruneOrphans(manager, persistence); n > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", n)
		}
	}
}

// pruneOrphans drops in-memory sessions missing from persistence
func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence) int {
	if persistence == nil {
		return 0
	}

	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an external API at host:port when one answers /health; otherwise
// it starts an internal HTTP API on a random loopback port.
func runStdioMCPWithInternalServer(opts Options, gridService service.GridService) error {
	externalURL := fmt.Sprintf("http://%s", opts.Addr())
	baseURL := externalURL
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run()

		httpServer := &http.Server{Handler: api.NewServer(gridService, hub)}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
