package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory implements Store in process. Safe for concurrent use. It is the
// development fallback and the default backend for tests; state is scoped to
// the constructed instance, never package-global.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]Doc
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]Doc)}
}

// FindOne returns the first matching document.
func (m *Memory) FindOne(ctx context.Context, collection string, filter Doc) (Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doc := range m.data[collection] {
		if matches(doc, filter) {
			return cloneDoc(doc), nil
		}
	}
	return nil, ErrNoDocument
}

// Find returns matching documents with sort, limit and projection applied.
func (m *Memory) Find(ctx context.Context, collection string, filter Doc, opts FindOptions) ([]Doc, error) {
	m.mu.RLock()
	var filtered []Doc
	for _, doc := range m.data[collection] {
		if matches(doc, filter) {
			filtered = append(filtered, cloneDoc(doc))
		}
	}
	m.mu.RUnlock()

	sorted := sortDocs(filtered, opts.Sort)
	if opts.Limit > 0 && len(sorted) > opts.Limit {
		sorted = sorted[:opts.Limit]
	}
	return projectDocs(sorted, opts.Projection), nil
}

// InsertOne appends the document, generating an id when absent.
func (m *Memory) InsertOne(ctx context.Context, collection string, doc Doc) (string, error) {
	stored := cloneDoc(doc)
	id, ok := stored[IDField].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored[IDField] = id
	}

	m.mu.Lock()
	m.data[collection] = append(m.data[collection], stored)
	m.mu.Unlock()
	return id, nil
}

// UpdateOne merges set into the first match, upserting when requested.
func (m *Memory) UpdateOne(ctx context.Context, collection string, filter Doc, set Doc, opts UpdateOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.data[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			merged := cloneDoc(doc)
			for k, v := range set {
				merged[k] = v
			}
			docs[i] = merged
			return 1, nil
		}
	}

	if !opts.Upsert {
		return 0, nil
	}

	inserted := Doc{}
	for k, v := range opts.SetOnInsert {
		inserted[k] = v
	}
	for k, v := range filter {
		inserted[k] = v
	}
	for k, v := range set {
		inserted[k] = v
	}
	inserted[IDField] = uuid.NewString()
	m.data[collection] = append(docs, inserted)
	return 1, nil
}

// DeleteOne removes the first matching document.
func (m *Memory) DeleteOne(ctx context.Context, collection string, filter Doc) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.data[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			m.data[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}
