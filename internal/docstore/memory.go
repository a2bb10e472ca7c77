package docstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Documents are kept JSON-encoded so callers never share maps
// with the store and values come back with the same types a real database would return.
type Memory struct {
	collections map[string]map[string][]byte
	mu          sync.RWMutex
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string][]byte),
	}
}

func (m *Memory) Add(_ context.Context, collection string, doc Document) (string, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.collection(collection)[id] = encoded
	return id, nil
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	encoded, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return decode(encoded)
}

func (m *Memory) Set(_ context.Context, collection, id string, doc Document) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collection(collection)[id] = encoded
	return nil
}

func (m *Memory) Merge(_ context.Context, collection, id string, fields Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	encoded, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	merged, err := mergeEncoded(encoded, fields)
	if err != nil {
		return err
	}
	m.collections[collection][id] = merged
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) Scan(_ context.Context, collection string, q Query) ([]Snapshot, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	snapshots := make([]Snapshot, 0, len(m.collections[collection]))
	for id, encoded := range m.collections[collection] {
		doc, err := decode(encoded)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		snapshots = append(snapshots, Snapshot{ID: id, Data: doc})
	}
	m.mu.RUnlock()

	slices.SortFunc(snapshots, func(a, b Snapshot) int {
		c := 0
		if q.OrderBy != "" {
			c = compareValues(a.Data[q.OrderBy], b.Data[q.OrderBy])
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Descending {
			return -c
		}
		return c
	})

	if q.OrderBy == "" && q.StartAfter != "" {
		start := len(snapshots)
		for i, s := range snapshots {
			if (!q.Descending && s.ID > q.StartAfter) || (q.Descending && s.ID < q.StartAfter) {
				start = i
				break
			}
		}
		snapshots = snapshots[start:]
	}
	if q.Limit > 0 && len(snapshots) > q.Limit {
		snapshots = snapshots[:q.Limit]
	}
	return snapshots, nil
}

// Len returns the number of documents in collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) collection(name string) map[string][]byte {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string][]byte)
		m.collections[name] = c
	}
	return c
}

func decode(encoded []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func mergeEncoded(encoded []byte, fields Document) ([]byte, error) {
	doc, err := decode(encoded)
	if err != nil {
		return nil, err
	}
	for key, val := range fields {
		doc[key] = val
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return merged, nil
}

// compareValues orders missing values first, then booleans, numbers and strings.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		return cmp.Compare(av, b.(float64))
	case string:
		return cmp.Compare(av, b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
