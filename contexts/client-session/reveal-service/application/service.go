package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainerrors "aqualedger/contexts/client-session/reveal-service/domain/errors"
	"aqualedger/contexts/client-session/reveal-service/ports"
	"aqualedger/internal/shared/confidential"
)

// DefaultGrantDurationDays keeps grants short enough to limit exposure and
// long enough to avoid re-signing on every page view.
const DefaultGrantDurationDays uint32 = 7

// Service sequences encryption, ledger writes, grant acquisition, and
// reveals for client sessions. It is stateless; per-session state lives in
// Session values created through NewSession.
type Service struct {
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

// decryptBatch resolves non-zero handles under one grant with one batched
// decrypt call. A grant the service rejects despite passing the local
// validity check is invalidated and re-acquired exactly once.
func (s Service) decryptBatch(
	ctx context.Context,
	userAddress string,
	signer ports.Signer,
	pairs []ports.HandleContractPair,
) (map[confidential.Handle]uint64, error) {
	contracts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		contracts = append(contracts, pair.ContractAddress)
	}

	grant, err := s.AcquireGrant(ctx, userAddress, signer, contracts)
	if err != nil {
		return nil, err
	}

	values, err := s.Values.UserDecrypt(ctx, grant, pairs)
	if err == nil {
		return values, nil
	}
	if !errors.Is(err, domainerrors.ErrGrantRejected) {
		return nil, domainerrors.ErrDecryptFailed
	}

	s.invalidateGrant(userAddress, contracts)
	grant, err = s.AcquireGrant(ctx, userAddress, signer, contracts)
	if err != nil {
		return nil, err
	}
	values, err = s.Values.UserDecrypt(ctx, grant, pairs)
	if err != nil {
		return nil, domainerrors.ErrDecryptFailed
	}
	return values, nil
}

func (s Service) durationDays() uint32 {
	if s.GrantDurationDays == 0 {
		return DefaultGrantDurationDays
	}
	return s.GrantDurationDays
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
