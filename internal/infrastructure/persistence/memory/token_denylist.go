package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
)

// TokenDenylist keeps revoked session token IDs until they expire
type TokenDenylist struct {
	entries map[string]time.Time
	mutex   sync.RWMutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewTokenDenylist creates a denylist that purges expired entries every interval
func NewTokenDenylist(interval time.Duration) *TokenDenylist {
	d := &TokenDenylist{
		entries: make(map[string]time.Time),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if interval > 0 {
		go d.cleanup(interval)
	}

	return d
}

// Revoke marks a token ID as unusable until expiresAt
func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.entries[tokenID] = expiresAt
	return nil
}

// IsRevoked reports whether a token ID was revoked and has not expired yet
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	expiresAt, exists := d.entries[tokenID]
	if !exists {
		return false, nil
	}
	return d.now().Before(expiresAt), nil
}

// Close stops the cleanup goroutine
func (d *TokenDenylist) Close() error {
	d.once.Do(func() { close(d.stop) })
	return nil
}

func (d *TokenDenylist) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.purge()
		case <-d.stop:
			return
		}
	}
}

func (d *TokenDenylist) purge() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	now := d.now()
	for id, expiresAt := range d.entries {
		if !now.Before(expiresAt) {
			delete(d.entries, id)
		}
	}
}

var _ outbound.TokenDenylist = (*TokenDenylist)(nil)
