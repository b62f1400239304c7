package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	revealservice "aqualedger/contexts/client-session/reveal-service"
	revealapplication "aqualedger/contexts/client-session/reveal-service/application"
	revealports "aqualedger/contexts/client-session/reveal-service/ports"
	badgeservice "aqualedger/contexts/confidential-ledger/badge-service"
	badgepostgres "aqualedger/contexts/confidential-ledger/badge-service/adapters/postgres"
	badgeworkers "aqualedger/contexts/confidential-ledger/badge-service/application/workers"
	ledgerservice "aqualedger/contexts/confidential-ledger/ledger-service"
	ledgerpostgres "aqualedger/contexts/confidential-ledger/ledger-service/adapters/postgres"
	ledgerapplication "aqualedger/contexts/confidential-ledger/ledger-service/application"
	ledgerports "aqualedger/contexts/confidential-ledger/ledger-service/ports"
	"aqualedger/internal/platform/config"
	"aqualedger/internal/platform/db"
	"aqualedger/internal/platform/httpserver"
	"aqualedger/internal/platform/messaging"
	"aqualedger/internal/platform/oracle"
	"aqualedger/internal/platform/wallet"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  badgeworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

// LocalSessionApp is a fully in-memory process: an oracle-backed ledger,
// badge state, and one wallet-bound client session. Used by local tooling
// and end-to-end tests.
type LocalSessionApp struct {
	Session *revealapplication.Session
	Ledger  ledgerservice.Module
	Badges  badgeservice.Module
	Reveal  revealservice.Module
	Oracle  *oracle.Oracle
	Signer  *wallet.LocalSigner
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

	engine := oracle.New(cfg.ChainID, cfg.DecryptionVerifier, nil)

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	ledgerModule := ledgerservice.NewModule(ledgerservice.Dependencies{
		Repository:      ledgerRepo,
		Engine:          engine,
		Clock:           ledgerpostgres.SystemClock{},
		IDGenerator:     ledgerpostgres.UUIDGenerator{},
		ContractAddress: cfg.LedgerContract,
		Logger:          logger,
	})

	badgeRepo := badgepostgres.NewRepository(pg.DB, logger)
	badgeModule := badgeservice.NewModule(badgeservice.Dependencies{
		Repository:   badgeRepo,
		Streaks:      ledgerModule.Service,
		Clock:        badgepostgres.SystemClock{},
		IDGenerator:  badgepostgres.UUIDGenerator{},
		AdminAddress: cfg.BadgeAdmin,
		Logger:       logger,
	})

	auth := httpserver.NewAuthenticator(cfg.JWTSecret)
	server := httpserver.New(ledgerModule, badgeModule, auth, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
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

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	badgeRepo := badgepostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: badgeworkers.OutboxRelay{
			Outbox:    badgeRepo,
			Publisher: kafka,
			Clock:     badgepostgres.SystemClock{},
			Topic:     "badge.events",
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

// BuildLocalSession wires every module in memory around one oracle so
// handles issued to the session verify on the ledger side. The signer is
// derived from the seed and registered with the oracle before use.
func BuildLocalSession(cfg config.Config, seed []byte, logger *slog.Logger) *LocalSessionApp {
	if logger == nil {
		logger = slog.Default()
	}

	engine := oracle.New(cfg.ChainID, cfg.DecryptionVerifier, nil)
	signer := wallet.NewLocalSignerFromSeed(seed)
	engine.RegisterAccount(signer.Address(), signer.PublicKey())

	ledgerModule := ledgerservice.NewInMemoryModule(engine, cfg.LedgerContract, logger)
	badgeModule := badgeservice.NewInMemoryModule(ledgerModule.Service, cfg.BadgeAdmin, logger)
	revealModule := revealservice.NewInMemoryModule(
		ledgerGateway{service: ledgerModule.Service},
		engine,
		cfg.ChainID,
		cfg.LedgerContract,
		cfg.DecryptionVerifier,
		cfg.GrantDurationDays,
		logger,
	)

	return &LocalSessionApp{
		Session: revealModule.Service.NewSession(signer.Address(), signer),
		Ledger:  ledgerModule,
		Badges:  badgeModule,
		Reveal:  revealModule,
		Oracle:  engine,
		Signer:  signer,
	}
}

// ledgerGateway adapts the ledger module's write and read surface to the
// session orchestrator's port. Cross-module calls stay in the composition
// root.
type ledgerGateway struct {
	service ledgerapplication.Service
}

func (g ledgerGateway) Submit(ctx context.Context, submission revealports.LedgerSubmission) error {
	_, err := g.service.Submit(ctx, ledgerapplication.SubmitInput{
		UserAddress: submission.UserAddress,
		Amount:      submission.Amount,
		Proof:       submission.Proof,
		ActionType:  ledgerports.ActionType(submission.ActionType),
		CityCode:    submission.CityCode,
	})
	return err
}

func (g ledgerGateway) GetUserStats(ctx context.Context, userAddress string) (revealports.LedgerStats, error) {
	stats, err := g.service.GetUserStats(ctx, userAddress)
	if err != nil {
		return revealports.LedgerStats{}, err
	}
	return revealports.LedgerStats{
		TotalDays:     stats.TotalDays,
		Streak:        stats.Streak,
		LastSubmitDay: stats.LastSubmitDay,
		TotalLiters:   stats.TotalLiters,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
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
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
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
