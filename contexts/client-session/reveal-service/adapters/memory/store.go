package memory

import (
	"sync"
	"time"

	"aqualedger/contexts/client-session/reveal-service/ports"
)

// GrantStore keeps signed decryption grants in process memory only.
// Expired entries are dropped lazily on read.
type GrantStore struct {
	mu     sync.Mutex
	grants map[string]ports.DecryptionGrant
}

func NewGrantStore() *GrantStore {
	return &GrantStore{
		grants: make(map[string]ports.DecryptionGrant),
	}
}

func (s *GrantStore) Get(key string, now time.Time) (ports.DecryptionGrant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[key]
	if !ok {
		return ports.DecryptionGrant{}, false
	}
	if !grant.ValidAt(now) {
		delete(s.grants, key)
		return ports.DecryptionGrant{}, false
	}
	return grant, true
}

func (s *GrantStore) Put(key string, grant ports.DecryptionGrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[key] = grant
}

func (s *GrantStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, key)
}

func (s *GrantStore) Now() time.Time {
	return time.Now().UTC()
}
