package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"infrax/backend/internal/agents"
	"infrax/backend/internal/api"
	"infrax/backend/internal/artifacts"
	"infrax/backend/internal/config"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/internal/mcp"
	"infrax/backend/internal/orchestrator"
	"infrax/backend/internal/repository"
	"infrax/backend/internal/tls"
)

func main() {
	ctx := context.Background()

	// Initialize logging
	logger := logging.NewLogger()

	// Parse command line flags
	envFile := flag.String("env", "", "Path to .env file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		log.Fatalf("Configuration loading failed: %v", err)
	}
	logger.Info("Configuration loaded",
		"oracle_model", cfg.Oracle.Model,
		"key_len", len(cfg.Oracle.APIKey),
		"db_disabled", cfg.DB.Disable,
		"config_file", viper.ConfigFileUsed(),
	)

	if cfg.Oracle.APIKey == "" {
		logger.Warn("⚠️  No oracle API key configured. Generation requests will fail with 401s. Set ORACLE_API_KEY.")
	}

	logger.Info("Starting Brahma Orchestration Service")

	// Initialize history store
	history, closeDB, err := initHistory(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize history store", "error", err)
		log.Fatalf("History store initialization failed: %v", err)
	}
	defer closeDB()

	// Initialize artifact store
	store, err := artifacts.NewStore(cfg.Artifacts.CodeDir, cfg.Artifacts.DiagramDir)
	if err != nil {
		logger.Error("Failed to initialize artifact store", "error", err)
		log.Fatalf("Artifact store initialization failed: %v", err)
	}

	// Initialize the completion backend with retries
	var oracle llm.Client = llm.NewHTTPClient(
		cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model,
		time.Duration(cfg.Oracle.TimeoutSecs)*time.Second,
	)
	oracle = llm.WithRetry(oracle, cfg.Oracle.MaxRetries, 0)

	// Initialize the agents and orchestrator
	orch := orchestrator.New(
		agents.NewPlanner(oracle, logger),
		agents.NewCostEstimator(oracle, logger),
		agents.NewSelector(oracle, logger),
		agents.NewCodeGenerator(oracle, store, logger),
		agents.NewDiagramGenerator(oracle, store, logger),
		history,
		logger,
	)
	advisor := agents.NewAdvisor(oracle, logger)

	logger.Info("Service layer initialized")

	// Create Echo server
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("brahma"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	// Mount REST API handlers
	apiServer := api.NewServer(orch, advisor, history, store, logger)
	apiServer.RegisterRoutes(e)

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(orch, advisor, history)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if cfg.TLS.Enable {
		// use TLS port 8443
		addr = ":8443"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", addr, "tls", cfg.TLS.Enable)
		if cfg.TLS.Enable {
			// ensure certificate exists if requested
			if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
				logger.Error("TLS enabled but cert/key file not provided")
				serverErrors <- server.ListenAndServe()
				return
			}
			// generate if missing and hostnames provided
			if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) {
				if len(cfg.TLS.Hostnames) > 0 {
					if err := tls.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames); err != nil {
						logger.Error("failed to generate self-signed cert", "error", err)
					}
				}
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
}

// initHistory picks the history store implementation: Postgres normally,
// in-memory when db.disable is set.
func initHistory(ctx context.Context, cfg *config.Config, logger *logging.Logger) (repository.Store, func(), error) {
	if cfg.DB.Disable {
		logger.Warn("Database disabled, workflow history is in-memory only")
		return repository.NewMemoryStore(), func() {}, nil
	}

	logger.Debug("Initializing database connection")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	logger.Info("Database connected")
	return repository.NewPostgresStore(pool), pool.Close, nil
}
