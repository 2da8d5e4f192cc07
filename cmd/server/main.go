package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"mhmd-mcp/backend/internal/api"
	"mhmd-mcp/backend/internal/artifacts"
	"mhmd-mcp/backend/internal/auth"
	"mhmd-mcp/backend/internal/browser"
	"mhmd-mcp/backend/internal/config"
	"mhmd-mcp/backend/internal/dispatch"
	"mhmd-mcp/backend/internal/interpreter"
	"mhmd-mcp/backend/internal/logging"
	"mhmd-mcp/backend/internal/mcp"
	"mhmd-mcp/backend/internal/repository"
	"mhmd-mcp/backend/internal/services"
	"mhmd-mcp/backend/internal/tls"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "mhmd-server",
		Short: "MHMD preference automation backend",
		Long:  "MCP and REST backend that drives a headless browser through the MHMD preference workflow and persists the resulting profile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.Logging)
	defer logger.Sync()

	logger.Info("starting MHMD MCP backend",
		zap.String("environment", cfg.Environment),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("addr", cfg.Server.Addr),
	)

	store, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing profile store: %w", err)
	}
	defer cleanup()

	executor := browser.NewChromeExecutor(browser.Config{
		Headless:   cfg.Browser.Headless,
		NavTimeout: cfg.Browser.NavTimeout,
	}, logger)
	defer executor.Close()

	var interp interpreter.Interpreter = interpreter.Unavailable{}
	if cfg.LLM.APIKey != "" {
		interp, err = interpreter.NewGeminiClient(interpreter.Config{
			Endpoint:   cfg.LLM.Endpoint,
			APIKey:     cfg.LLM.APIKey,
			Model:      cfg.LLM.Model,
			Timeout:    cfg.LLM.Timeout,
			MaxElapsed: cfg.LLM.MaxElapsed,
		}, logger)
		if err != nil {
			return fmt.Errorf("initializing interpreter: %w", err)
		}
	} else {
		logger.Warn("no LLM API key configured, free-text commands will fail")
	}

	saver := artifacts.NewSaver(cfg.Artifacts.Dir, logger)

	dispatcher := dispatch.New(store, executor, interp, saver, logger, dispatch.Options{
		Timeout:        cfg.Dispatch.Timeout,
		DefaultBaseURL: cfg.Browser.BaseURL,
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware("mhmd-mcp"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
	}))

	apiServer := api.NewServer(dispatcher, services.NewProfileService(store))

	e.GET("/", apiServer.HandleHealth)
	e.GET("/health", apiServer.HandleHealth)
	e.GET("/api/health", apiServer.HandleHealth)

	restricted := e.Group("")
	if cfg.Auth.Enable {
		authz, err := auth.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing auth: %w", err)
		}
		e.GET("/login", echo.WrapHandler(http.HandlerFunc(authz.LoginHandler)))
		e.GET("/auth/callback", echo.WrapHandler(http.HandlerFunc(authz.CallbackHandler)))
		e.GET("/logout", echo.WrapHandler(http.HandlerFunc(authz.LogoutHandler)))
		restricted.Use(echo.WrapMiddleware(authz.RequireAuth))
	}

	restricted.POST("/mcp/call", apiServer.HandleCall)
	restricted.GET("/mcp/tools", apiServer.HandleListTools)
	restricted.GET("/api/user", apiServer.HandleGetProfile)
	restricted.POST("/api/user", apiServer.HandlePutProfile)
	restricted.PATCH("/api/user", apiServer.HandlePatchProfile)
	restricted.DELETE("/api/user", apiServer.HandleDeleteProfile)

	mcpServer := mcp.NewServer(dispatcher)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/sse", echo.WrapHandler(mcpHandlers))
	e.Any("/mcp/message", echo.WrapHandler(mcpHandlers))

	e.GET("/openapi.yaml", echo.WrapHandler(api.SpecHandler(cfg.Auth.OktaDomain)))
	e.GET("/docs", echo.WrapHandler(api.SwaggerHandler(cfg.Auth.OktaDomain, cfg.Auth.SwaggerClientID)))
	e.GET("/docs/oauth2-redirect.html", echo.WrapHandler(http.HandlerFunc(api.OAuthRedirectHandler)))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.Bool("tls", cfg.TLS.Enable))
		if cfg.TLS.Enable {
			if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) {
				if genErr := tls.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames); genErr != nil {
					serverErrors <- fmt.Errorf("generating self-signed cert: %w", genErr)
					return
				}
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Error("server close error", zap.Error(err))
			}
		}
		logger.Info("server stopped gracefully")
	}
	return nil
}

// buildStore selects the profile store backend from configuration. The
// returned cleanup releases the backing resources.
func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.ProfileStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		connStr := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Store.DB.Host, cfg.Store.DB.Port, cfg.Store.DB.User,
			cfg.Store.DB.Password, cfg.Store.DB.Name, cfg.Store.DB.SSLMode,
		)
		pool, err := pgxpool.New(ctx, connStr)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pinging postgres: %w", err)
		}
		store := repository.NewPostgresProfileStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensuring schema: %w", err)
		}
		logger.Info("postgres profile store ready", zap.String("host", cfg.Store.DB.Host))
		return store, pool.Close, nil

	case "json", "":
		store, err := repository.NewJSONProfileStore(cfg.Store.JSONPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("json profile store ready", zap.String("path", cfg.Store.JSONPath))
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
