package application

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	domainerrors "aqualedger/contexts/client-session/reveal-service/domain/errors"
	"aqualedger/contexts/client-session/reveal-service/ports"
	"aqualedger/internal/shared/confidential"
)

// lease is the single-slot in-flight guard. Acquiring it is the
// single-flight check; releasing it on every exit path is mandatory.
type lease struct {
	held atomic.Bool
}

func (l *lease) acquire() bool {
	return l.held.CompareAndSwap(false, true)
}

func (l *lease) release() {
	l.held.Store(false)
}

// Session is the per-user client session. Concurrent operations of the
// same kind are rejected immediately, never queued, so a duplicate
// submission can never race for the same day slot.
type Session struct {
	svc         Service
	userAddress string
	signer      ports.Signer

	submitLease  lease
	revealLease  lease
	refreshLease lease

	mu    sync.RWMutex
	stats ports.LedgerStats
}

func (s Service) NewSession(userAddress string, signer ports.Signer) *Session {
	address := strings.ToLower(strings.TrimSpace(userAddress))
	if address == "" && signer != nil {
		address = strings.ToLower(strings.TrimSpace(signer.Address()))
	}
	return &Session{
		svc:         s,
		userAddress: address,
		signer:      signer,
	}
}

func (s *Session) UserAddress() string {
	return s.userAddress
}

type SubmitOutcome struct {
	Submitted  bool
	Stats      ports.LedgerStats
	StatsFresh bool
}

// SubmitAction encrypts the plaintext amount bound to the ledger contract
// and this session's address, writes it to the ledger, and then refreshes
// the cached stats best-effort. A refresh failure leaves stale counters;
// the ledger stays authoritative.
func (s *Session) SubmitAction(ctx context.Context, liters uint64, actionType uint8, cityCode uint32) (SubmitOutcome, error) {
	if !s.submitLease.acquire() {
		return SubmitOutcome{}, domainerrors.ErrOperationInFlight
	}
	defer s.submitLease.release()

	input, err := s.svc.Values.Encrypt(ctx, liters, s.svc.LedgerContract, s.userAddress)
	if err != nil {
		return SubmitOutcome{}, domainerrors.ErrEncryptFailed
	}

	if err := s.svc.Ledger.Submit(ctx, ports.LedgerSubmission{
		UserAddress: s.userAddress,
		Amount:      input.Handle,
		Proof:       input.Proof,
		ActionType:  actionType,
		CityCode:    cityCode,
	}); err != nil {
		return SubmitOutcome{}, err
	}

	outcome := SubmitOutcome{Submitted: true}
	stats, err := s.svc.Ledger.GetUserStats(ctx, s.userAddress)
	if err != nil {
		resolveLogger(s.svc.Logger).Warn("stats refresh after submit failed",
			"event", "reveal_stats_refresh_failed",
			"module", "client-session/reveal-service",
			"layer", "application",
			"user_address", s.userAddress,
			"error", err.Error(),
		)
		outcome.Stats = s.Stats()
		return outcome, nil
	}

	s.setStats(stats)
	outcome.Stats = stats
	outcome.StatsFresh = true
	return outcome, nil
}

// RevealOne resolves a single handle to plaintext. The reserved zero
// handle resolves to 0 locally with no grant and no service call.
func (s *Session) RevealOne(ctx context.Context, handle confidential.Handle) (uint64, error) {
	parsed, err := confidential.ParseHandle(handle.String())
	if err != nil {
		return 0, domainerrors.ErrInvalidHandle
	}
	if parsed.IsZero() {
		return 0, nil
	}

	if !s.revealLease.acquire() {
		return 0, domainerrors.ErrOperationInFlight
	}
	defer s.revealLease.release()

	values, err := s.svc.decryptBatch(ctx, s.userAddress, s.signer, []ports.HandleContractPair{
		{Handle: parsed, ContractAddress: s.svc.LedgerContract},
	})
	if err != nil {
		return 0, err
	}
	value, ok := values[parsed]
	if !ok {
		return 0, domainerrors.ErrDecryptFailed
	}
	return value, nil
}

// RevealMany resolves a batch of handles. Zero handles are resolved
// locally; all remaining handles share one grant acquisition and one
// batched decrypt call, keeping the signing cost O(1) per reveal session.
func (s *Session) RevealMany(ctx context.Context, handles []confidential.Handle) (map[confidential.Handle]uint64, error) {
	results := make(map[confidential.Handle]uint64, len(handles))
	pairs := make([]ports.HandleContractPair, 0, len(handles))
	seen := make(map[confidential.Handle]struct{}, len(handles))
	for _, handle := range handles {
		parsed, err := confidential.ParseHandle(handle.String())
		if err != nil {
			return nil, domainerrors.ErrInvalidHandle
		}
		if parsed.IsZero() {
			results[parsed] = 0
			continue
		}
		if _, ok := seen[parsed]; ok {
			continue
		}
		seen[parsed] = struct{}{}
		pairs = append(pairs, ports.HandleContractPair{
			Handle:          parsed,
			ContractAddress: s.svc.LedgerContract,
		})
	}
	if len(pairs) == 0 {
		return results, nil
	}

	if !s.revealLease.acquire() {
		return nil, domainerrors.ErrOperationInFlight
	}
	defer s.revealLease.release()

	values, err := s.svc.decryptBatch(ctx, s.userAddress, s.signer, pairs)
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		value, ok := values[pair.Handle]
		if !ok {
			return nil, domainerrors.ErrDecryptFailed
		}
		results[pair.Handle] = value
	}
	return results, nil
}

// RefreshStats reloads the ledger counters for this session.
func (s *Session) RefreshStats(ctx context.Context) (ports.LedgerStats, error) {
	if !s.refreshLease.acquire() {
		return ports.LedgerStats{}, domainerrors.ErrOperationInFlight
	}
	defer s.refreshLease.release()

	stats, err := s.svc.Ledger.GetUserStats(ctx, s.userAddress)
	if err != nil {
		return ports.LedgerStats{}, err
	}
	s.setStats(stats)
	return stats, nil
}

// Stats returns the last loaded counters, which may be stale until the
// next successful refresh.
func (s *Session) Stats() ports.LedgerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Session) setStats(stats ports.LedgerStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}
