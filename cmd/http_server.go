package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/viakashmir/admin-console/internal/auth"
	"github.com/viakashmir/admin-console/internal/gateway"
	"github.com/viakashmir/admin-console/internal/preset"
	"github.com/viakashmir/admin-console/internal/transport"
	"github.com/viakashmir/admin-console/internal/transport/rest"
)

var httpServerCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the console gateway",
	Long:    `Serve derived list views, record writes and saved presets to the admin web app over HTTP.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

func startHTTPServer(ctx context.Context) error {
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	router, err := setupRoutes(ctx, deps)
	if err != nil {
		return err
	}

	cfg := deps.Config
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", addr, "api", cfg.API.BaseURL, "env", cfg.Env)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Logger.Info("server stopped")
	return nil
}

func setupRoutes(ctx context.Context, deps *Dependencies) (*chi.Mux, error) {
	cfg := deps.Config
	db, _, err := deps.Database(ctx)
	if err != nil {
		return nil, err
	}
	presets, err := deps.Presets(ctx)
	if err != nil {
		return nil, err
	}

	if len(cfg.Security.Operators) == 0 {
		deps.Logger.Warn("no operators configured; every sign-in will be rejected")
	}
	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.RefreshSecret(),
		cfg.Security.AccessTokenDuration, cfg.Security.RefreshTokenDuration)
	authService := auth.NewService(auth.NewConfigOperators(cfg.Security.Operators), tokens, deps.Logger.With("component", "auth"))

	base := transport.NewBaseHandler(deps.Logger)
	handlers := rest.Handlers{
		Base:   base,
		Health: rest.NewHealthHandler(base, db, deps.Redis),
		Auth:   auth.NewHandler(base, authService),
		Gateway: gateway.NewHandler(base, gateway.Options{
			Registry:  deps.Registry,
			Backend:   deps.Client,
			Presets:   presets,
			Publisher: deps.Bus,
			Collector: deps.Collector,
		}),
		Presets: preset.NewHandler(base, presets),
	}

	router := chi.NewRouter()
	if err := rest.RegisterAllRoutes(router, cfg, handlers, deps.Collector, deps.Logger); err != nil {
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}
	return router, nil
}
