package document

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memStore struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]Document
	counters map[string]int
	gets     int
	inTx     bool
}

func newMemStore() *memStore {
	return &memStore{docs: map[uuid.UUID]Document{}, counters: map[string]int{}}
}

func (m *memStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) Insert(_ context.Context, doc Document) error {
	defer m.lock()()
	m.docs[doc.ID] = doc
	return nil
}

func (m *memStore) Get(_ context.Context, tenantID string, id uuid.UUID) (Document, error) {
	defer m.lock()()
	m.gets++
	doc, ok := m.docs[id]
	if !ok || doc.TenantID != tenantID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (m *memStore) GetForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (Document, error) {
	return m.Get(ctx, tenantID, id)
}

func (m *memStore) List(_ context.Context, tenantID string, f Filter) ([]Document, int, error) {
	defer m.lock()()
	var out []Document
	for _, doc := range m.docs {
		if doc.TenantID != tenantID {
			continue
		}
		if f.Kind != "" && doc.Kind != f.Kind {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(doc.ClientName), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, doc)
	}
	slices.SortFunc(out, func(a, b Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	total := len(out)
	start := min(f.offset(), total)
	end := total
	if f.PerPage > 0 {
		end = min(start+f.PerPage, total)
	}
	return out[start:end], total, nil
}

func (m *memStore) Update(_ context.Context, doc Document) error {
	defer m.lock()()
	existing, ok := m.docs[doc.ID]
	if !ok || existing.TenantID != doc.TenantID {
		return ErrNotFound
	}
	doc.CreatedAt = existing.CreatedAt
	m.docs[doc.ID] = doc
	return nil
}

func (m *memStore) Delete(_ context.Context, tenantID string, id uuid.UUID) error {
	defer m.lock()()
	doc, ok := m.docs[id]
	if !ok || doc.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memStore) NextNumber(_ context.Context, tenantID string, kind Kind, year int) (int, error) {
	defer m.lock()()
	key := fmt.Sprintf("%s|%s|%d", tenantID, kind, year)
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memStore) ListExpirable(_ context.Context, cutoff time.Time, limit int) ([]Document, error) {
	defer m.lock()()
	var out []Document
	for _, doc := range m.docs {
		if doc.Kind == KindQuote && doc.Status == StatusSent && doc.ValidUntil != nil && doc.ValidUntil.Before(cutoff) {
			out = append(out, doc)
		}
	}
	slices.SortFunc(out, func(a, b Document) int { return a.ValidUntil.Compare(*b.ValidUntil) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// WithTx restores the previous state when fn fails.
func (m *memStore) WithTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := maps.Clone(m.docs)
	counters := maps.Clone(m.counters)
	m.inTx = true
	err := fn(m)
	m.inTx = false
	if err != nil {
		m.docs = docs
		m.counters = counters
	}
	return err
}

func (m *memStore) put(doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
}

func (m *memStore) doc(id uuid.UUID) Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id]
}
