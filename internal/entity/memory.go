package entity

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/segmentio/ksuid"
)

// FillPrimaryKeys copies data and fills missing string primary keys with
// new KSUIDs. Other missing primary keys are an error.
func FillPrimaryKeys(schema *Schema, data map[string]any) (map[string]any, error) {
	row := maps.Clone(data)
	if row == nil {
		row = make(map[string]any)
	}
	for _, p := range schema.Columns() {
		if !p.Primary {
			continue
		}
		if _, ok := row[p.Name]; ok {
			continue
		}
		if p.Type != String {
			return nil, fmt.Errorf("%s.%s: primary key is required", schema.Name, p.Name)
		}
		row[p.Name] = ksuid.New().String()
	}
	return row, nil
}

// Record is an entity instance held by MemorySession.
type Record struct {
	Schema *Schema
	Data   map[string]any
}

func (r *Record) Get(name string) any { return r.Data[name] }

// MemoryStore keeps committed entities in memory.
type MemoryStore struct {
	mu        sync.Mutex
	committed map[*Schema][]map[string]any
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{committed: make(map[*Schema][]map[string]any)}
}

// Fork returns a new session committing into s.
func (s *MemoryStore) Fork() Session { return s.Session() }

// Session is Fork with the concrete type.
func (s *MemoryStore) Session() *MemorySession { return &MemorySession{store: s} }

// All returns the committed rows of schema in insertion order.
func (s *MemoryStore) All(schema *Schema) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.committed[schema]...)
}

func (s *MemoryStore) commit(records []*Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.committed[r.Schema] = append(s.committed[r.Schema], r.Data)
	}
}

// MemorySession is a unit of work over a MemoryStore. Missing string
// primary keys are filled with KSUIDs on Create.
type MemorySession struct {
	store *MemoryStore

	mu      sync.Mutex
	pending []*Record
	flushes int
}

var _ Session = (*MemorySession)(nil)

// NewMemorySession returns a session over its own empty store.
func NewMemorySession() *MemorySession {
	return NewMemoryStore().Session()
}

func (s *MemorySession) Create(_ context.Context, schema *Schema, data map[string]any) (any, error) {
	row, err := FillPrimaryKeys(schema, data)
	if err != nil {
		return nil, err
	}
	return &Record{Schema: schema, Data: row}, nil
}

func (s *MemorySession) Persist(_ context.Context, entity any) error {
	r, ok := entity.(*Record)
	if !ok {
		return fmt.Errorf("memory session cannot persist %T", entity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, r)
	return nil
}

func (s *MemorySession) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.commit(s.pending)
	s.pending = nil
	s.flushes++
	return nil
}

// All returns the committed rows of schema in the session's store.
func (s *MemorySession) All(schema *Schema) []map[string]any {
	return s.store.All(schema)
}

// Pending reports how many entities await Flush.
func (s *MemorySession) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flushes reports how many times Flush ran.
func (s *MemorySession) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}
