// Package storetest provides a hand-written Store mock for tests.
//
// Each Store method delegates to a corresponding Fn field. Unused Fn fields
// left nil panic if called, which means the test hit an unexpected code path.
package storetest

import (
	"context"

	"github.com/peopledesk/peopledesk/internal/store"
)

// MockStore implements store.Store. Set only the Fn fields needed for the
// test case being exercised.
type MockStore struct {
	PingFn      func(ctx context.Context) error
	SelectFn    func(ctx context.Context, q store.SelectQuery) ([]store.Row, int, error)
	SelectOneFn func(ctx context.Context, collection, id string) (store.Row, error)
	InsertFn    func(ctx context.Context, collection string, row store.Row) (store.Row, error)
	UpdateFn    func(ctx context.Context, collection, id string, patch store.Row) (store.Row, error)
	DeleteFn    func(ctx context.Context, collection, id string) error
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingFn(ctx)
}

func (m *MockStore) Select(ctx context.Context, q store.SelectQuery) ([]store.Row, int, error) {
	return m.SelectFn(ctx, q)
}

func (m *MockStore) SelectOne(ctx context.Context, collection, id string) (store.Row, error) {
	return m.SelectOneFn(ctx, collection, id)
}

func (m *MockStore) Insert(ctx context.Context, collection string, row store.Row) (store.Row, error) {
	return m.InsertFn(ctx, collection, row)
}

func (m *MockStore) Update(ctx context.Context, collection, id string, patch store.Row) (store.Row, error) {
	return m.UpdateFn(ctx, collection, id, patch)
}

func (m *MockStore) Delete(ctx context.Context, collection, id string) error {
	return m.DeleteFn(ctx, collection, id)
}

func (m *MockStore) Close() error {
	return nil
}

// Failing returns a mock whose every operation fails with err.
func Failing(err error) *MockStore {
	return &MockStore{
		PingFn: func(context.Context) error { return err },
		SelectFn: func(context.Context, store.SelectQuery) ([]store.Row, int, error) {
			return nil, 0, err
		},
		SelectOneFn: func(context.Context, string, string) (store.Row, error) { return nil, err },
		InsertFn:    func(context.Context, string, store.Row) (store.Row, error) { return nil, err },
		UpdateFn:    func(context.Context, string, string, store.Row) (store.Row, error) { return nil, err },
		DeleteFn:    func(context.Context, string, string) error { return err },
	}
}
