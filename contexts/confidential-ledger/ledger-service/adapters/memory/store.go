package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainerrors "aqualedger/contexts/confidential-ledger/ledger-service/domain/errors"
	"aqualedger/contexts/confidential-ledger/ledger-service/ports"
	"aqualedger/internal/shared/confidential"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing repository/clock/id ports.
// It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	stats       map[string]ports.UserStats
	submissions map[string][]ports.DailySubmission
	byDay       map[string]map[uint64]int
}

func NewStore() *Store {
	return &Store{
		stats:       make(map[string]ports.UserStats),
		submissions: make(map[string][]ports.DailySubmission),
		byDay:       make(map[string]map[uint64]int),
	}
}

func (s *Store) GetUserStats(_ context.Context, userAddress string) (ports.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := normalize(userAddress)
	item, ok := s.stats[key]
	if !ok {
		return ports.UserStats{UserAddress: key, TotalLiters: confidential.ZeroHandle}, nil
	}
	return item, nil
}

func (s *Store) GetSubmission(_ context.Context, userAddress string, day uint64) (ports.DailySubmission, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := normalize(userAddress)
	index, ok := s.byDay[key][day]
	if !ok {
		return ports.DailySubmission{}, false, nil
	}
	return s.submissions[key][index], true, nil
}

func (s *Store) ApplySubmission(_ context.Context, submission ports.DailySubmission, stats ports.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalize(submission.UserAddress)
	if _, ok := s.byDay[key][submission.Day]; ok {
		return domainerrors.ErrAlreadySubmittedToday
	}
	if _, ok := s.byDay[key]; !ok {
		s.byDay[key] = make(map[uint64]int)
	}
	s.byDay[key][submission.Day] = len(s.submissions[key])
	s.submissions[key] = append(s.submissions[key], submission)
	s.stats[key] = stats
	return nil
}

func (s *Store) ListSubmissions(_ context.Context, userAddress string) ([]ports.DailySubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.submissions[normalize(userAddress)]
	return append([]ports.DailySubmission(nil), items...), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func normalize(userAddress string) string {
	return strings.ToLower(strings.TrimSpace(userAddress))
}
