package ledgerservice

import (
	"log/slog"

	httpadapter "aqualedger/contexts/confidential-ledger/ledger-service/adapters/http"
	"aqualedger/contexts/confidential-ledger/ledger-service/adapters/memory"
	"aqualedger/contexts/confidential-ledger/ledger-service/application"
	"aqualedger/contexts/confidential-ledger/ledger-service/ports"
)

// Module is the composition surface for the confidential ledger.
// Runtime wiring should consume Handler; Store and Service are exposed
// for tests and for cross-module reads through the composition root.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository      ports.Repository
	Engine          ports.CipherEngine
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	ContractAddress string
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:            deps.Repository,
		Engine:          deps.Engine,
		Clock:           deps.Clock,
		IDGen:           deps.IDGenerator,
		ContractAddress: deps.ContractAddress,
		Logger:          deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(engine ports.CipherEngine, contractAddress string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:      store,
		Engine:          engine,
		Clock:           store,
		IDGenerator:     store,
		ContractAddress: contractAddress,
		Logger:          logger,
	})
	module.Store = store
	return module
}
