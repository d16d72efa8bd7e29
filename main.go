// Command sae501-api-server starts the murder party game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config directory, database path, debug logging,
// version output, and optional ngrok tunneling for easy external access
// during development. Every flag has a matching environment variable; a
// .env file in the working directory is loaded first.
package main

import (
	"context"
	"encoding/json"
	"flag"
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

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/CallMeTrinity/sae501-api-server/api"
	"github.com/CallMeTrinity/sae501-api-server/game/config"
	"github.com/CallMeTrinity/sae501-api-server/game/countdown"
	"github.com/CallMeTrinity/sae501-api-server/game/service"
	"github.com/CallMeTrinity/sae501-api-server/game/session"
	"github.com/CallMeTrinity/sae501-api-server/redirect"
	"github.com/CallMeTrinity/sae501-api-server/store"
	"github.com/CallMeTrinity/sae501-api-server/store/sqlite"
	"github.com/CallMeTrinity/sae501-api-server/transport/mcp"
	"github.com/CallMeTrinity/sae501-api-server/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Murder Party Game Server"
)

// ServerConfig holds every environment-driven setting.
type ServerConfig struct {
	Host      string `env:"HOST" envDefault:"localhost"`
	Port      int    `env:"PORT" envDefault:"8080"`
	ConfigDir string `env:"CONFIG_DIR" envDefault:"configs"`
	DBPath    string `env:"DB_PATH" envDefault:"game.db"`

	RedirectSecret     string `env:"REDIRECT_SECRET" envDefault:"dev-only-redirect-secret"`
	AnswerRedirectURL  string `env:"ANSWER_REDIRECT_URL" envDefault:"http://localhost:5173/answer"`
	EndGameRedirectURL string `env:"END_GAME_REDIRECT_URL" envDefault:"http://localhost:5173/end"`
	JoinBaseURL        string `env:"JOIN_BASE_URL" envDefault:"http://localhost:5173/join"`

	NgrokEnabled bool   `env:"NGROK_ENABLED"`
	NgrokAuth    string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain  string `env:"NGROK_DOMAIN"`
}

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 0, "HTTP server port (overrides PORT)")
	host         = flag.String("host", "", "HTTP server host (overrides HOST)")
	configDir    = flag.String("config-dir", "", "Directory containing rule-set configurations (overrides CONFIG_DIR)")
	dbPath       = flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
	}
}

// services bundles everything the HTTP surfaces need.
type services struct {
	game  service.GameService
	hub   *websocket.Hub
	rules *config.Manager
	store store.Store
	cfg   ServerConfig
}

// main parses configuration, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	flag.Parse()

	// Flags override environment
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *configDir != "" {
		cfg.ConfigDir = *configDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *ngrokEnabled {
		cfg.NgrokEnabled = true
	}
	if *ngrokAuth != "" {
		cfg.NgrokAuth = *ngrokAuth
	}
	if *ngrokDomain != "" {
		cfg.NgrokDomain = *ngrokDomain
	}

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	// Setup logging
	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	svcs, err := initializeServices(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer svcs.store.Close()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(svcs)
		return

	case "server", "http":
		runHTTPServer(svcs)

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(svcs *services) {
	// Create API server
	apiServer := api.NewServer(svcs.game, svcs.hub, svcs.rules, svcs.store, svcs.cfg.JoinBaseURL)

	// Setup HTTP server address
	addr := fmt.Sprintf("%s:%d", svcs.cfg.Host, svcs.cfg.Port)

	// Create MCP client for /mcp endpoint
	baseURL := fmt.Sprintf("http://%s", addr)
	mcpClient := mcp.NewClient(baseURL)

	// Create main router that combines API and MCP
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)

	// Always add MCP endpoint for HTTP server
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Start regular HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Start ngrok tunnel if enabled
	if svcs.cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()

			authToken := svcs.cfg.NgrokAuth
			if authToken == "" {
				log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN env var)")
				return
			}

			log.Println("Starting ngrok tunnel...")

			var tunnel ngrokConfig.Tunnel
			if svcs.cfg.NgrokDomain != "" {
				tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(svcs.cfg.NgrokDomain))
				log.Printf("Using custom ngrok domain: %s", svcs.cfg.NgrokDomain)
			} else {
				tunnel = ngrokConfig.HTTPEndpoint()
			}

			tun, err := ngrok.Listen(ctx,
				tunnel,
				ngrok.WithAuthtoken(authToken),
			)
			if err != nil {
				log.Printf("Failed to start ngrok tunnel: %v", err)
				return
			}
			defer func() {
				if err := tun.Close(); err != nil {
					log.Printf("Failed to close ngrok tunnel: %v", err)
				}
			}()

			ngrokURL := tun.URL()
			log.Printf("Ngrok tunnel established: %s", ngrokURL)
			log.Printf("  REST API (ngrok): %s/api", ngrokURL)
			log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
			log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

			if err := http.Serve(tun, mainRouter); err != nil && err != http.ErrServerClosed {
				log.Printf("Ngrok server error: %v", err)
			}
			log.Println("Ngrok tunnel closed")
		}()
	}

	// Wait for shutdown signal
	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Wait for all goroutines to finish
	wg.Wait()
	log.Println("Server stopped")
}

// initializeServices wires the store, rule sets, session registry, hub,
// countdown manager, and the game service. It also starts a background
// cleanup routine to prune stale sessions.
func initializeServices(cfg ServerConfig) (*services, error) {
	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	rulesManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	rules := rulesManager.Default()

	registry := session.NewManager()

	hub := websocket.NewHub()
	go hub.Run()

	// Countdown ticks and the terminal signal fan out to the session room
	countdowns := countdown.NewManager(
		func(sessionID string, remaining int) {
			hub.BroadcastEvent(sessionID, websocket.EventCountdownTick, map[string]int{"remaining": remaining})
		},
		func(sessionID string) {
			hub.BroadcastEvent(sessionID, websocket.EventCountdownEnded, nil)
		},
	)

	redirects, err := redirect.NewCodec(cfg.RedirectSecret, cfg.AnswerRedirectURL, cfg.EndGameRedirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create redirect codec: %w", err)
	}

	gameService := service.NewGameService(registry, st, countdowns, redirects, rules)
	hub.AttachService(gameService)

	// Start session cleanup routine
	go sessionCleanupRoutine(registry)

	return &services{
		game:  gameService,
		hub:   hub,
		rules: rulesManager,
		store: st,
		cfg:   cfg,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		removed := manager.CleanupExpiredSessions(24 * time.Hour)
		if removed > 0 {
			log.Printf("Cleaned up %d expired sessions", removed)
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(svcs *services) {
	var baseURL string
	var httpServer *http.Server
	var listener net.Listener

	externalURL := "http://localhost:8080"
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}

		internalPort := listener.Addr().(*net.TCPAddr).Port
		internalAddr := fmt.Sprintf("127.0.0.1:%d", internalPort)

		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		apiServer := api.NewServer(svcs.game, svcs.hub, svcs.rules, svcs.store, svcs.cfg.JoinBaseURL)

		httpServer = &http.Server{
			Handler: apiServer,
		}

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		// Wait a moment for the server to be ready
		time.Sleep(100 * time.Millisecond)

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
