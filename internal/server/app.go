// Package server wires the storefront API together: configuration, storage,
// the signing keyring, the route policy, the collaborators and the HTTP
// server. It also owns process signals (shutdown and SIGHUP reload).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/storefront/internal/cryptox"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/mailer"
	"github.com/dmitrijs2005/storefront/internal/server/media"
	"github.com/dmitrijs2005/storefront/internal/server/payment"
	"github.com/dmitrijs2005/storefront/internal/server/policy"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/rest"
	"github.com/dmitrijs2005/storefront/internal/server/services"
)

// seams for tests
var (
	openPostgres = dbx.OpenPostgres
	reloadConfig = config.Reload
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	repos      repomanager.RepositoryManager
	keys       *auth.Keyring
	httpServer *rest.HTTPServer
}

// NewApp builds every component from c. Storage is PostgreSQL when a DSN is
// configured (migrations are applied), in-memory otherwise.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(c.LogLevel)

	repos, err := openRepositories(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	keys, err := auth.NewKeyring([]byte(c.SecretKey))
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("keyring init error: %w", err)
	}
	tokens := auth.NewTokenService(keys, c.AccessTokenValidityDuration)

	table := policy.Default()
	if c.PolicyFile != "" {
		table, err = policy.Load(c.PolicyFile)
		if err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("policy load error: %w", err)
		}
	}
	logger.Info(ctx, "route policy loaded", "rules", table.Len(), "file", c.PolicyFile)

	users := services.NewUserService(repos.Users(), cryptox.NewArgon2idHasher(cryptox.DefaultParams), tokens)
	collections := services.NewCollectionService(repos.Collections())

	mail := mailer.New(mailer.Config{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		Security: c.SMTPSecurity,
	}, logger.With("module", "mailer"))

	payments := payment.NewVNPay(payment.Config{
		TmnCode:    c.PaymentTmnCode,
		HashSecret: c.PaymentHashSecret,
		PayURL:     c.PaymentURL,
		ReturnURL:  c.PaymentReturnURL,
	})

	presigner := media.NewS3Presigner(media.Config{
		Region:   c.S3Region,
		User:     c.S3RootUser,
		Password: c.S3RootPassword,
		Bucket:   c.S3Bucket,
		Endpoint: c.S3BaseEndpoint,
	})

	proxies, err := c.TrustedProxyPrefixes()
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	hs := rest.NewHTTPServer(c.HTTPAddr, logger, rest.Deps{
		Users:       users,
		Collections: collections,
		Gate:        policy.NewGate(table, tokens),
		Payments:    payments,
		Mailer:      mail,
		Media:       presigner,
	}, rest.Options{
		RateLimitRPS:      c.RateLimitRPS,
		RateLimitBurst:    c.RateLimitBurst,
		CORSAllowedOrigin: c.CORSAllowedOrigin,
		TrustedProxies:    proxies,
	})

	return &App{config: c, logger: logger, repos: repos, keys: keys, httpServer: hs}, nil
}

func newLogger(level string) logging.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return logging.NewJSONLogger(os.Stdout, lvl)
}

func openRepositories(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, using in-memory storage")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := openPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager(db)
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	return rm, nil
}

// reload re-reads the configuration and rotates the signing key when the
// secret changed. The previous key keeps verifying live sessions.
func (app *App) reload(ctx context.Context) {
	c, err := reloadConfig()
	if err != nil {
		app.logger.Error(ctx, "config reload failed, keeping current settings", "error", err)
		return
	}

	rotated, err := app.keys.Rotate([]byte(c.SecretKey))
	if err != nil {
		app.logger.Error(ctx, "key rotation failed", "error", err)
		return
	}
	if rotated {
		app.logger.Info(ctx, "signing key rotated", "kid", app.keys.Current().ID)
	} else {
		app.logger.Info(ctx, "config reloaded, signing key unchanged")
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigs:
				if sig == syscall.SIGHUP {
					app.reload(ctx)
					continue
				}
				app.logger.Info(ctx, "shutdown signal received", "signal", sig.String())
				cancelFunc()
				return
			}
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a shutdown signal arrives, then
// closes storage.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(context.Background(), "storage close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
