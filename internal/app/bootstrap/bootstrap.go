package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	podledger "arboretum/contexts/garden-core/pod-ledger"
	podpostgres "arboretum/contexts/garden-core/pod-ledger/adapters/postgres"
	podworkers "arboretum/contexts/garden-core/pod-ledger/application/workers"
	rewarddistributor "arboretum/contexts/garden-core/reward-distributor"
	rewardpostgres "arboretum/contexts/garden-core/reward-distributor/adapters/postgres"
	rewardworkers "arboretum/contexts/garden-core/reward-distributor/application/workers"
	rewardentities "arboretum/contexts/garden-core/reward-distributor/domain/entities"
	"arboretum/internal/platform/chainclock"
	"arboretum/internal/platform/config"
	"arboretum/internal/platform/db"
	"arboretum/internal/platform/httpserver"
	"arboretum/internal/platform/ledger"
	"arboretum/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server      *httpserver.Server
	postgres    *db.Postgres
	podRelay    podworkers.OutboxRelay
	rewardRelay rewardworkers.OutboxRelay
	logger      *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	podRelay     podworkers.OutboxRelay
	rewardRelay  rewardworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := podpostgres.AutoMigrate(pg.DB); err != nil {
		return nil, err
	}
	if err := rewardpostgres.AutoMigrate(pg.DB); err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	clock := chainclock.NewIntervalClock(
		time.Unix(cfg.GenesisUnix, 0),
		time.Duration(cfg.BlockIntervalSeconds)*time.Second,
	)
	nativeLedger := ledger.NewLedger(logger)

	rewardRepo := rewardpostgres.NewRepository(pg.DB, logger)
	if err := rewardRepo.SeedParameters(context.Background(), rewardentities.Parameters{
		GrowthMultiplier:       cfg.DefaultGrowthMultiplier,
		MinimumBlocksForReward: cfg.DefaultMinimumBlocksForReward,
		MaxRewardBasisPoints:   cfg.DefaultMaxRewardBasisPoints,
	}); err != nil {
		return nil, err
	}

	podRepo := podpostgres.NewRepository(pg.DB, logger)
	podModule := podledger.NewModule(podledger.Dependencies{
		Pods:        podRepo,
		Ledger:      nativeLedger,
		Blocks:      clock,
		Params:      rewardRepo,
		Outbox:      podRepo,
		Clock:       podpostgres.SystemClock{},
		IDGenerator: podpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	rewardModule := rewarddistributor.NewModule(rewarddistributor.Dependencies{
		State:          rewardRepo,
		Params:         rewardRepo,
		Ledger:         nativeLedger,
		Blocks:         clock,
		Env:            clock,
		Outbox:         rewardRepo,
		Clock:          rewardpostgres.SystemClock{},
		IDGenerator:    rewardpostgres.UUIDGenerator{},
		AuthorityID:    cfg.GardenAuthorityID,
		LedgerIdentity: cfg.LedgerIdentity,
		Logger:         logger,
	})

	server := httpserver.New(podModule, rewardModule, kafka, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		// The API process relays its own outbox so the live event stream
		// sees events without a separate worker running.
		podRelay: podworkers.OutboxRelay{
			Outbox:    podRepo,
			Publisher: kafka,
			Clock:     podpostgres.SystemClock{},
			Topic:     "garden.pods",
			BatchSize: 100,
			Logger:    logger,
		},
		rewardRelay: rewardworkers.OutboxRelay{
			Outbox:    rewardRepo,
			Publisher: kafka,
			Clock:     rewardpostgres.SystemClock{},
			Topic:     "garden.rewards",
			BatchSize: 100,
			Logger:    logger,
		},
		logger: logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := podpostgres.AutoMigrate(pg.DB); err != nil {
		return nil, err
	}
	if err := rewardpostgres.AutoMigrate(pg.DB); err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	podRepo := podpostgres.NewRepository(pg.DB, logger)
	rewardRepo := rewardpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		podRelay: podworkers.OutboxRelay{
			Outbox:    podRepo,
			Publisher: kafka,
			Clock:     podpostgres.SystemClock{},
			Topic:     "garden.pods",
			BatchSize: 100,
			Logger:    logger,
		},
		rewardRelay: rewardworkers.OutboxRelay{
			Outbox:    rewardRepo,
			Publisher: kafka,
			Clock:     rewardpostgres.SystemClock{},
			Topic:     "garden.rewards",
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			if err := a.podRelay.RunOnce(ctx); err != nil && a.logger != nil {
				a.logger.Error("pod outbox relay cycle failed",
					"event", "bootstrap_pod_relay_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
			if err := a.rewardRelay.RunOnce(ctx); err != nil && a.logger != nil {
				a.logger.Error("reward outbox relay cycle failed",
					"event", "bootstrap_reward_relay_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.podRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.rewardRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
