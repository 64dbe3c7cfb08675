package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memo is a small in-process cache for values that are cheap to recompute but hot.
type Memo struct {
	store *gocache.Cache
}

// NewMemo creates a memo whose entries live for ttl. A non-positive ttl disables it.
func NewMemo(ttl time.Duration) *Memo {
	if ttl <= 0 {
		return &Memo{}
	}
	return &Memo{store: gocache.New(ttl, 2*ttl)}
}

// Get returns the value stored under key.
func (m *Memo) Get(key string) (any, bool) {
	if m == nil || m.store == nil {
		return nil, false
	}
	return m.store.Get(key)
}

// Set stores v using the default expiration.
func (m *Memo) Set(key string, v any) {
	if m == nil || m.store == nil {
		return
	}
	m.store.SetDefault(key, v)
}

// Len reports the number of live entries, expired ones included until the next sweep.
func (m *Memo) Len() int {
	if m == nil || m.store == nil {
		return 0
	}
	return m.store.ItemCount()
}
