package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/peopledesk/peopledesk/internal/query"
)

type memoryCollection struct {
	order []string
	rows  map[string]Row
}

// MemoryStore is an in-process Store. It honours filters and pagination with
// the same leniency as the SQL stores and is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	fixed       bool
	logger      zerolog.Logger
}

// NewMemoryStore creates an empty memory store. When collections are named,
// only those exist and any other name fails like a missing table; otherwise
// collections are created on first write.
func NewMemoryStore(logger zerolog.Logger, collections ...string) *MemoryStore {
	s := &MemoryStore{
		collections: make(map[string]*memoryCollection),
		fixed:       len(collections) > 0,
		logger:      logger.With().Str("dialect", "memory").Logger(),
	}
	for _, name := range collections {
		s.collections[name] = newMemoryCollection()
	}
	return s
}

func newMemoryCollection() *memoryCollection {
	return &memoryCollection{rows: make(map[string]Row)}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// Select filters, counts, orders and windows the collection's rows.
func (s *MemoryStore) Select(ctx context.Context, q SelectQuery) ([]Row, int, error) {
	const op = "select"
	if err := ctx.Err(); err != nil {
		return nil, 0, Wrap(op, q.Collection, err)
	}

	s.mu.RLock()
	c, err := s.lookup(op, q.Collection, false)
	if err != nil {
		s.mu.RUnlock()
		return nil, 0, err
	}
	matcher := query.NewMatcher(q.Filters, s.logger)
	matched := make([]Row, 0, len(c.order))
	for _, id := range c.order {
		row := c.rows[id]
		if matcher.Match(row) {
			matched = append(matched, maps.Clone(row))
		}
	}
	s.mu.RUnlock()

	total := len(matched)
	page := query.Window(matched, q.Pagination, s.logger)
	if len(q.Columns) > 0 && !slices.Contains(q.Columns, "*") {
		for i, row := range page {
			page[i] = project(row, q.Columns)
		}
	}
	return page, total, nil
}

// SelectOne returns a copy of the row with the given id.
func (s *MemoryStore) SelectOne(ctx context.Context, collection, id string) (Row, error) {
	const op = "select_one"
	if err := ctx.Err(); err != nil {
		return nil, Wrap(op, collection, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.lookup(op, collection, false)
	if err != nil {
		return nil, err
	}
	row, ok := c.rows[id]
	if !ok {
		return nil, Wrap(op, collection, ErrNotFound)
	}
	return maps.Clone(row), nil
}

// Insert stores a copy of row. The row must carry a string id.
func (s *MemoryStore) Insert(ctx context.Context, collection string, row Row) (Row, error) {
	const op = "insert"
	if err := ctx.Err(); err != nil {
		return nil, Wrap(op, collection, err)
	}
	if err := validateRow(row); err != nil {
		return nil, Wrap(op, collection, err)
	}
	id, ok := row["id"].(string)
	if !ok || id == "" {
		return nil, Wrap(op, collection, fmt.Errorf("null value in column \"id\""))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(op, collection, true)
	if err != nil {
		return nil, err
	}
	if _, exists := c.rows[id]; exists {
		return nil, Wrap(op, collection, fmt.Errorf("%w: id %q", ErrConflict, id))
	}
	c.rows[id] = maps.Clone(row)
	c.order = append(c.order, id)
	return maps.Clone(row), nil
}

// Update merges patch into the stored row.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch Row) (Row, error) {
	const op = "update"
	if err := ctx.Err(); err != nil {
		return nil, Wrap(op, collection, err)
	}
	if err := validateRow(patch); err != nil {
		return nil, Wrap(op, collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(op, collection, false)
	if err != nil {
		return nil, err
	}
	row, ok := c.rows[id]
	if !ok {
		return nil, Wrap(op, collection, ErrNotFound)
	}
	updated := maps.Clone(row)
	maps.Copy(updated, patch)
	updated["id"] = id
	c.rows[id] = updated
	return maps.Clone(updated), nil
}

// Delete removes the row with the given id.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	const op = "delete"
	if err := ctx.Err(); err != nil {
		return Wrap(op, collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.lookup(op, collection, false)
	if err != nil {
		return err
	}
	if _, ok := c.rows[id]; !ok {
		return Wrap(op, collection, ErrNotFound)
	}
	delete(c.rows, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
	return nil
}

// lookup resolves a collection. The caller holds the lock; create requires
// the write lock.
func (s *MemoryStore) lookup(op, name string, create bool) (*memoryCollection, error) {
	if !query.ValidIdentifier(name) {
		return nil, Wrap(op, name, invalidIdentifier(name))
	}
	c, ok := s.collections[name]
	if ok {
		return c, nil
	}
	if s.fixed {
		return nil, NewError(KindSchemaMismatch, op, name, fmt.Errorf("no such table: %s", name))
	}
	if !create {
		return newMemoryCollection(), nil
	}
	c = newMemoryCollection()
	s.collections[name] = c
	return c, nil
}

func project(row Row, columns []string) Row {
	out := make(Row, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}
