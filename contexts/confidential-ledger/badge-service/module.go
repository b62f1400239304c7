package badgeservice

import (
	"log/slog"

	httpadapter "aqualedger/contexts/confidential-ledger/badge-service/adapters/http"
	"aqualedger/contexts/confidential-ledger/badge-service/adapters/memory"
	"aqualedger/contexts/confidential-ledger/badge-service/application"
	"aqualedger/contexts/confidential-ledger/badge-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository   ports.Repository
	Streaks      ports.StreakReader
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	AdminAddress string
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:         deps.Repository,
		Streaks:      deps.Streaks,
		Clock:        deps.Clock,
		IDGen:        deps.IDGenerator,
		AdminAddress: deps.AdminAddress,
		Logger:       deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(streaks ports.StreakReader, adminAddress string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:   store,
		Streaks:      streaks,
		Clock:        store,
		IDGenerator:  store,
		AdminAddress: adminAddress,
		Logger:       logger,
	})
	module.Store = store
	return module
}
