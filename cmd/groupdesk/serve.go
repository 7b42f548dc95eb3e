package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/groupdesk/internal/client"
	"github.com/alecgard/groupdesk/internal/config"
	"github.com/alecgard/groupdesk/internal/crypto"
	"github.com/alecgard/groupdesk/internal/metrics"
	"github.com/alecgard/groupdesk/internal/ratelimit"
	"github.com/alecgard/groupdesk/internal/server"
	"github.com/alecgard/groupdesk/internal/ui"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the groupdesk web front-end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *cliOptions) error {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	cookieKey := cfg.UI.CookieKey
	if cookieKey == "" {
		cookieKey, err = crypto.GenerateKey()
		if err != nil {
			return err
		}
		slog.Warn("ui.cookie_key not set, using a per-process key; sign-ins will not survive a restart")
	}
	sealer, err := crypto.NewSealer(cookieKey)
	if err != nil {
		return fmt.Errorf("cookie key: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	api := client.New(client.Options{
		GroupsBaseURL: cfg.API.GroupsBaseURL,
		AuthBaseURL:   cfg.API.AuthBaseURL,
		Timeout:       cfg.API.Timeout,
		UserAgent:     "groupdesk/" + version,
		Metrics:       m,
	})

	uiHandler := ui.NewHandler(ui.Options{
		Client:         api,
		Sealer:         sealer,
		BasePath:       cfg.UI.BasePath,
		PublicURL:      cfg.UI.PublicURL,
		ForwardCookies: cfg.API.ForwardCookies,
		Production:     cfg.UI.Production,
	})
	uiHandler.SetMetrics(m)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.PublicRPS > 0 {
		limiter = ratelimit.New(cfg.RateLimit.PublicRPS, cfg.RateLimit.Burst)
		m.RegisterLimiterCollector(limiter.Len)
		go limiter.Run(ctx, time.Minute, 10*time.Minute)
	}

	router := server.NewRouter(server.RouterDeps{
		Config:  cfg,
		UI:      uiHandler,
		Metrics: m,
		Limiter: limiter,
		Version: version,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting",
			"addr", cfg.Addr(),
			"base_path", cfg.UI.BasePath,
			"groups_api", cfg.API.GroupsBaseURL,
			"auth_api", cfg.API.AuthBaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
