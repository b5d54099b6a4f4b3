package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"zenbudget/internal/auth"
	"zenbudget/internal/backend"
	"zenbudget/internal/cache"
	"zenbudget/internal/changefeed"
	"zenbudget/internal/cli"
	"zenbudget/internal/config"
	"zenbudget/internal/export/sheets"
	apphttp "zenbudget/internal/http"
	"zenbudget/internal/log"
	"zenbudget/internal/middleware/ratelimit"
	"zenbudget/internal/middleware/security"
	"zenbudget/internal/prefs"
	"zenbudget/internal/recurring"
	"zenbudget/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(context.Background(), "Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	be, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return err
	}
	defer be.Close()

	prefStore, err := prefs.NewFileStore(cfg.PreferencesPath)
	if err != nil {
		return err
	}

	feed := changefeed.New(be.Repo, logger)
	sessions := session.NewManager(session.Deps{
		Repo:   be.Repo,
		Feed:   feed,
		Prefs:  prefStore,
		Logger: logger,
	})

	var google *auth.GoogleProvider
	if cfg.GoogleSignInEnabled() {
		google = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleOAuthClientID,
			ClientSecret: cfg.GoogleOAuthClientSecret,
			RedirectURL:  cfg.GoogleOAuthRedirectURL,
		})
		logger.InfoContext(ctx, "Google sign-in enabled")
	}

	var sheetsExporter apphttp.SheetsExporter
	if cfg.SheetsExportEnabled() {
		client, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return err
		}
		sheetsExporter = client
		logger.InfoContext(ctx, "Google Sheets export enabled")
	}

	ips, err := security.NewIPResolver()
	if err != nil {
		return err
	}
	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())
	authLimiter := ratelimit.NewLimiter(ratelimit.Config{Requests: 20, Window: time.Minute})
	dashboards := cache.NewDashboards(cfg.DashboardCacheSize, cfg.DashboardCacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Backend:     be,
		Sessions:    sessions,
		Feed:        feed,
		Passwords:   auth.NewPasswordProvider(be.Repo),
		Google:      google,
		Tokens:      auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Dashboards:  dashboards,
		Sheets:      sheetsExporter,
		Limiter:     limiter,
		AuthLimiter: authLimiter,
		IPs:         ips,
		Logger:      logger,
		Currency:    cfg.Currency,
	})

	materializer := recurring.NewMaterializer(be.Repo, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return feed.Run(gctx, be.Bus) })
	g.Go(func() error { return materializer.Loop(gctx, cfg.RecurringInterval) })
	g.Go(func() error { return cache.NewJanitor(logger, dashboards).Run(gctx, time.Minute) })
	g.Go(func() error { return limiter.Run(gctx, time.Minute) })
	g.Go(func() error { return authLimiter.Run(gctx, time.Minute) })
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting zenbudget server",
			"port", cfg.Port, "backend", cfg.DataBackend, "change_feed", cfg.ChangeFeed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
