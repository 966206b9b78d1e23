package store

import "context"

// OfflineStore is a Store with no backend. Every call fails with a transport
// error so the data layer serves sample data, which is how the service runs
// in demo mode without a database.
type OfflineStore struct{}

// NewOfflineStore returns an offline store.
func NewOfflineStore() OfflineStore {
	return OfflineStore{}
}

func unavailable(op, collection string) error {
	return NewError(KindTransport, op, collection, ErrUnavailable)
}

// Ping reports the backend as unreachable.
func (OfflineStore) Ping(context.Context) error {
	return unavailable("ping", "")
}

func (OfflineStore) Select(_ context.Context, q SelectQuery) ([]Row, int, error) {
	return nil, 0, unavailable("select", q.Collection)
}

func (OfflineStore) SelectOne(_ context.Context, collection, _ string) (Row, error) {
	return nil, unavailable("select_one", collection)
}

func (OfflineStore) Insert(_ context.Context, collection string, _ Row) (Row, error) {
	return nil, unavailable("insert", collection)
}

func (OfflineStore) Update(_ context.Context, collection, _ string, _ Row) (Row, error) {
	return nil, unavailable("update", collection)
}

func (OfflineStore) Delete(_ context.Context, collection, _ string) error {
	return unavailable("delete", collection)
}

func (OfflineStore) Close() error {
	return nil
}
