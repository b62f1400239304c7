package revealservice

import (
	"log/slog"

	"aqualedger/contexts/client-session/reveal-service/adapters/memory"
	"aqualedger/contexts/client-session/reveal-service/application"
	"aqualedger/contexts/client-session/reveal-service/ports"
)

type Module struct {
	Service application.Service
	Grants  *memory.GrantStore
}

type Dependencies struct {
	Ledger             ports.LedgerGateway
	Values             ports.ValueService
	Grants             ports.GrantStore
	Clock              ports.Clock
	ChainID            uint64
	LedgerContract     string
	DecryptionVerifier string
	GrantDurationDays  uint32
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Service: application.Service{
			Ledger:             deps.Ledger,
			Values:             deps.Values,
			Grants:             deps.Grants,
			Clock:              deps.Clock,
			ChainID:            deps.ChainID,
			LedgerContract:     deps.LedgerContract,
			DecryptionVerifier: deps.DecryptionVerifier,
			GrantDurationDays:  deps.GrantDurationDays,
			Logger:             deps.Logger,
		},
	}
}

// NewInMemoryModule wires the orchestrator against an in-memory grant
// store; ledger and value-service ports stay caller-provided.
func NewInMemoryModule(
	ledger ports.LedgerGateway,
	values ports.ValueService,
	chainID uint64,
	ledgerContract string,
	decryptionVerifier string,
	grantDurationDays uint32,
	logger *slog.Logger,
) Module {
	grants := memory.NewGrantStore()
	module := NewModule(Dependencies{
		Ledger:             ledger,
		Values:             values,
		Grants:             grants,
		Clock:              grants,
		ChainID:            chainID,
		LedgerContract:     ledgerContract,
		DecryptionVerifier: decryptionVerifier,
		GrantDurationDays:  grantDurationDays,
		Logger:             logger,
	})
	module.Grants = grants
	return module
}
