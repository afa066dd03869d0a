// Package main provides the entry point for Rolecall.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/graaaaa/rolecall/internal/api"
	"github.com/graaaaa/rolecall/internal/app"
	"github.com/graaaaa/rolecall/internal/appinfo"
	"github.com/graaaaa/rolecall/internal/assemble"
	"github.com/graaaaa/rolecall/internal/bot"
	"github.com/graaaaa/rolecall/internal/chat/discord"
	"github.com/graaaaa/rolecall/internal/config"
	"github.com/graaaaa/rolecall/internal/singleinstance"
	"github.com/graaaaa/rolecall/internal/store"
	"github.com/graaaaa/rolecall/internal/version"
)

func main() {
	port := flag.Int("port", 0, "HTTP status API port (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 1. Data directory and single instance check
	if _, err := config.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to ensure data directory: %v", err)
	}
	lockPath, err := config.LockFilePath()
	if err != nil {
		log.Fatalf("Failed to resolve lock path: %v", err)
	}
	release, ok, err := singleinstance.AcquireLock(lockPath)
	if err != nil {
		log.Fatalf("Failed to acquire lock: %v", err)
	}
	if !ok {
		log.Println("Another instance is already running against this data directory")
		os.Exit(1)
	}
	defer release()

	// 2. Load configuration: defaults < config.json < .env/environment
	if envPath, err := config.DotEnvPath(); err == nil {
		if err := config.LoadDotEnv(envPath); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	cfg, _ := config.LoadConfig()
	secrets, secretsStatus, err := config.LoadSecrets()
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	written, err := config.WriteTemplates(cfg, secretsStatus)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	if len(written) > 0 {
		logger.Info("wrote configuration templates; set bot_token in secrets.json and channel_id in config.json, or use the environment",
			"files", written,
			"env", []string{config.EnvPrefix + "BOT_TOKEN", config.EnvPrefix + "CHANNEL_ID"},
		)
	}

	cfg, err = config.ApplyEnvOverrides(cfg)
	if err != nil {
		log.Fatalf("Failed to apply environment overrides: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	secrets, err = config.ApplySecretEnvOverrides(secrets)
	if err != nil {
		log.Fatalf("Failed to apply environment overrides: %v", err)
	}
	if secrets.BotToken.IsEmpty() {
		log.Fatalf("Bot token not configured: set bot_token in %s or %sBOT_TOKEN", appinfo.SecretsFileName, config.EnvPrefix)
	}

	// 3. Error reporting
	var report bot.ErrorReporter
	if !secrets.SentryDSN.IsEmpty() {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:     secrets.SentryDSN.Value(),
			Release: appinfo.DirName + "@" + version.String(),
		}); err != nil {
			log.Printf("Warning: failed to initialise Sentry: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			report = reportToSentry
			logger.Info("error reporting enabled")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Open the document store
	storePath := cfg.Store.Path
	if storePath == "" {
		storePath, err = config.StorePath(cfg.Store.Backend)
		if err != nil {
			log.Fatalf("Failed to resolve store path: %v", err)
		}
	}
	docs, closer, err := store.Open(ctx, store.Options{
		Backend:  cfg.Store.Backend,
		Path:     storePath,
		RedisURL: cfg.Store.RedisURL,
		RedisKey: cfg.Store.RedisKey,
	}, store.Defaults(cfg.RoleNames()))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closer.Close()

	if sq, ok := docs.(*store.SQLiteStore); ok {
		if _, err := sq.VacuumIfNeeded(ctx); err != nil {
			log.Printf("Warning: vacuum failed: %v", err)
		}
	}

	// 5. Connect to Discord and start the bot. Handlers are registered
	// before the gateway opens; they wait until reconciliation is done.
	client, err := discord.New(secrets.BotToken.Value(), cfg.ChannelID,
		discord.WithLogger(logger),
		discord.WithConnectRetry(cfg.ConnectAttempts, discord.DefaultBackoffConfig),
	)
	if err != nil {
		log.Fatalf("Failed to create Discord client: %v", err)
	}

	b := bot.New(settingsFromConfig(cfg, loc), store.NewSerialized(docs), client,
		bot.WithLogger(logger),
		bot.WithErrorReporter(report),
	)
	removeHandlers := client.Listen(ctx, b)
	defer removeHandlers()

	if err := client.Open(ctx); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	defer client.Close()

	if err := b.Start(ctx); err != nil {
		log.Fatalf("Failed to reconcile events: %v", err)
	}
	go b.Run(ctx)

	// 6. Optional status API
	errCh := make(chan error, 1)
	var server *api.Server
	var limiter *api.RateLimiter
	if cfg.HTTPEnabled {
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
		limiter = api.NewRateLimiter(api.DefaultRateLimiterConfig())
		server = api.NewServer(addr,
			app.HealthService{Version: version.String(), Scheduler: b},
			api.WithEventsUsecase(&app.EventsService{Source: b}),
			api.WithRateLimiter(limiter),
			api.WithLogger(logger),
		)
		go func() {
			logger.Info("status API listening", "addr", addr)
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	logger.Info("Rolecall started", "version", version.String(), "channel_id", cfg.ChannelID)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		log.Println("Shutting down...")
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := b.Stop(shutdownCtx); err != nil {
		log.Printf("Scheduler stop error: %v", err)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		limiter.Stop()
	}

	log.Println("Stopped")
}

// settingsFromConfig maps the validated config onto bot settings.
func settingsFromConfig(cfg config.Config, loc *time.Location) bot.Settings {
	caps := make([]assemble.Capacity, len(cfg.Roles))
	for i, r := range cfg.Roles {
		caps[i] = assemble.Capacity{Role: r.Name, Count: r.Count}
	}
	return bot.Settings{
		Prefix:         cfg.CommandPrefix,
		Roles:          caps,
		FlexRoles:      cfg.FlexRoles,
		RandomBackfill: cfg.RandomBackfilling,
		Scramble:       cfg.ScrambleEntries,
		Location:       loc,
		Templates: bot.Templates{
			Announcement: cfg.AnnouncementMessage,
			Start:        cfg.StartMessage,
			Description:  cfg.DescriptionMessage,
			Empty:        cfg.EmptyMessage,
		},
		ConfigureTimeout: cfg.ConfigureTimeout(),
		ReactInterval:    cfg.ReactInterval(),
	}
}

// reportToSentry forwards an unhandled command failure.
func reportToSentry(ctx context.Context, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_kind", bot.KindOf(err).String())
		sentry.CaptureException(err)
	})
}
