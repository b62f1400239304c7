package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "aqualedger/contexts/confidential-ledger/badge-service/domain/errors"
	"aqualedger/contexts/confidential-ledger/badge-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing repository/outbox/clock/id ports.
type Store struct {
	mu sync.RWMutex

	badges map[string]ports.UserBadge
	claims map[string]map[ports.BadgeLevel]ports.ClaimRecord
	outbox []ports.OutboxMessage
}

func NewStore() *Store {
	return &Store{
		badges: make(map[string]ports.UserBadge),
		claims: make(map[string]map[ports.BadgeLevel]ports.ClaimRecord),
	}
}

func (s *Store) GetUserBadge(_ context.Context, userAddress string) (ports.UserBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := normalize(userAddress)
	badge, ok := s.badges[key]
	if !ok {
		return ports.UserBadge{UserAddress: key, Highest: ports.LevelNone}, nil
	}
	return badge, nil
}

func (s *Store) GetClaim(_ context.Context, userAddress string, level ports.BadgeLevel) (ports.ClaimRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.claims[normalize(userAddress)][level]
	return claim, ok, nil
}

func (s *Store) ListClaims(_ context.Context, userAddress string) ([]ports.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claims := s.claims[normalize(userAddress)]
	items := make([]ports.ClaimRecord, 0, len(claims))
	for _, claim := range claims {
		items = append(items, claim)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Level < items[j].Level
	})
	return items, nil
}

func (s *Store) ApplyClaim(_ context.Context, claim ports.ClaimRecord, badge ports.UserBadge, outbox ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize(claim.UserAddress)
	if _, ok := s.claims[key][claim.Level]; ok {
		return domainerrors.ErrAlreadyClaimed
	}
	if _, ok := s.claims[key]; !ok {
		s.claims[key] = make(map[ports.BadgeLevel]ports.ClaimRecord)
	}
	s.claims[key][claim.Level] = claim
	s.badges[key] = badge
	s.outbox = append(s.outbox, outbox)
	return nil
}

func (s *Store) RemoveClaim(_ context.Context, userAddress string, level ports.BadgeLevel, badge ports.UserBadge, outbox ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize(userAddress)
	if _, ok := s.claims[key][level]; !ok {
		return domainerrors.ErrNotClaimed
	}
	delete(s.claims[key], level)
	s.badges[key] = badge
	s.outbox = append(s.outbox, outbox)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, message := range s.outbox {
		if message.Status != "pending" {
			continue
		}
		items = append(items, message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].OutboxID == outboxID {
			stamp := sentAt.UTC()
			s.outbox[i].Status = "sent"
			s.outbox[i].SentAt = &stamp
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
