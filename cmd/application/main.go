package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"emagsync_api/config"
	"emagsync_api/internal/core/models"
	"emagsync_api/internal/emag/app"
	"emagsync_api/internal/emag/availability"
	"emagsync_api/internal/emag/client"
	"emagsync_api/internal/emag/ratelimit"
	"emagsync_api/internal/emag/resolver"
	"emagsync_api/internal/emag/syncer"
	"emagsync_api/internal/storage"
	"emagsync_api/pkg/dbconnect/postgres"
	"emagsync_api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml configuration")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zlog, err := logger.NewZapLogger(cfg.LogLevel, true)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connector := postgres.NewPgConnector(&cfg.Postgres)
	db, err := connector.Connect()
	if err != nil {
		log.Fatalf("connecting to postgres: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("applying migrations: %v", err)
	}
	zlog.Infof("migrations applied")

	ceilings := ratelimit.Ceilings{
		models.ClassOrders: {
			PerSecond: cfg.RateLimits.OrdersPerSecond,
			PerMinute: cfg.RateLimits.OrdersPerMinute,
		},
		models.ClassDefault: {
			PerSecond: cfg.RateLimits.DefaultPerSecond,
			PerMinute: cfg.RateLimits.DefaultPerMinute,
		},
	}
	policy := client.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Retry.MaxAttempts
	policy.BaseDelay = cfg.Retry.BaseDelay
	policy.MaxDelay = cfg.Retry.MaxDelay

	clients := make(map[models.AccountName]client.Caller, len(cfg.Accounts))
	for _, accountCfg := range cfg.Accounts {
		account := models.Account{
			Name:    models.AccountName(accountCfg.Name),
			BaseURL: accountCfg.BaseURL,
			APIKey:  accountCfg.APIKey(),
		}
		limiter := ratelimit.NewLimiter(account.Name, ceilings)
		clients[account.Name] = client.NewClient(account, limiter, policy, cfg.Retry.CallTimeout, zlog)
		zlog.Infof("configured account %s against %s", account.Name, account.BaseURL)
	}

	fetcher := syncer.NewMarketplaceFetcher(clients, client.MaxPageSize, zlog)
	orchestrator := syncer.NewOrchestrator(
		ctx,
		fetcher,
		resolver.New(zlog),
		availability.NewClassifier(cfg.Availability),
		storage.NewSyncStore(db),
		zlog,
	)

	if cfg.Scheduler.Enabled {
		scheduler := syncer.NewScheduler(
			orchestrator,
			[]models.ResourceType{models.ResourceProductOffer, models.ResourceOrder},
			cfg.Scheduler.Interval,
			cfg.Scheduler.MaxJitter,
			zlog,
		)
		go scheduler.Run(ctx)
	}

	server := app.NewServer(cfg.ListenAddr, orchestrator, zlog)
	if err := server.Run(ctx); err != nil {
		zlog.Errorf("http server: %v", err)
	}

	zlog.Infof("draining running sync jobs")
	orchestrator.Wait()
}
