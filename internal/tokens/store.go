// Package tokens holds the ephemeral attendance-token store. Tokens are
// single-use and short-lived; losing them on restart only forces the staff
// device to re-issue, so the default backend is in-memory.
package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Token binds an opaque token string to a workshop for one attendance scan.
type Token struct {
	Value      string
	WorkshopID string
	ExpiresAt  time.Time
	IssuedAt   time.Time
}

// Store is the injected token-store abstraction. A multi-process deployment
// can back it with a shared store; tests and single-process deployments use
// the in-memory implementation.
type Store interface {
	Issue(workshopID string) (*Token, error)
	Resolve(token string) (*Token, bool)
	Consume(token string)
	PurgeExpired()
}

type memoryStore struct {
	ttl   time.Duration
	cache *gocache.Cache
}

// NewMemoryStore builds an in-memory store whose entries expire after ttl.
// The cache also evicts on its own cleanup interval so unredeemed tokens do
// not accumulate.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		ttl:   ttl,
		cache: gocache.New(ttl, 5*time.Minute),
	}
}

func (s *memoryStore) Issue(workshopID string) (*Token, error) {
	value, err := randomToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	token := &Token{
		Value:      value,
		WorkshopID: workshopID,
		ExpiresAt:  now.Add(s.ttl),
		IssuedAt:   now,
	}

	s.cache.Set(value, token, s.ttl)
	return token, nil
}

func (s *memoryStore) Resolve(value string) (*Token, bool) {
	entry, found := s.cache.Get(value)
	if !found {
		return nil, false
	}

	token, ok := entry.(*Token)
	if !ok {
		return nil, false
	}

	if time.Now().After(token.ExpiresAt) {
		s.cache.Delete(value)
		return nil, false
	}

	return token, true
}

func (s *memoryStore) Consume(value string) {
	s.cache.Delete(value)
}

func (s *memoryStore) PurgeExpired() {
	s.cache.DeleteExpired()
}

// randomToken returns 32 random bytes hex-encoded, matching the entropy of
// the spot-registration tokens minted onto workshop rows.
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RandomToken mints an opaque high-entropy token string.
func RandomToken() (string, error) {
	return randomToken()
}
