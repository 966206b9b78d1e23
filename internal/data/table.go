package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/peopledesk/peopledesk/internal/events"
	"github.com/peopledesk/peopledesk/internal/query"
	"github.com/peopledesk/peopledesk/internal/store"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// Table is the CRUD façade over one collection, generic over its record
// type. R is a record struct with JSON tags naming its columns, or store.Row
// for schema-less access.
type Table[R any] struct {
	db         *DB
	collection string
	idPrefix   string
}

// NewTable binds a collection. New records get ids "<idPrefix>_<millis>".
func NewTable[R any](db *DB, collection, idPrefix string) *Table[R] {
	return &Table[R]{db: db, collection: collection, idPrefix: idPrefix}
}

// Collection returns the collection name.
func (t *Table[R]) Collection() string {
	return t.collection
}

// DB returns the database the table is bound to.
func (t *Table[R]) DB() *DB {
	return t.db
}

// List returns one page of records matching filters. On success Count is
// the number of matching rows across all pages; on recoverable failure Data
// is fallback and Count its length.
func (t *Table[R]) List(ctx context.Context, p *query.Pagination, filters []query.Filter, fallback []R) types.Response[[]R] {
	return execute(ctx, t.db, call[[]R]{
		collection:    t.collection,
		op:            "list",
		fallback:      fallback,
		fallbackCount: len(fallback),
		run: func(ctx context.Context) ([]R, *int, error) {
			rows, total, err := t.db.store.Select(ctx, store.SelectQuery{
				Collection: t.collection,
				Filters:    filters,
				Pagination: p,
			})
			if err != nil {
				return nil, nil, err
			}
			recs, err := fromRows[R](rows)
			if err != nil {
				return nil, nil, store.Wrap("list", t.collection, err)
			}
			return recs, &total, nil
		},
	})
}

// Get returns the record with the given id. A missing record is a failure
// wrapping store.ErrNotFound.
func (t *Table[R]) Get(ctx context.Context, id string, fallback *R) types.Response[*R] {
	return execute(ctx, t.db, call[*R]{
		collection: t.collection,
		op:         "get",
		fallback:   fallback,
		run: func(ctx context.Context) (*R, *int, error) {
			row, err := t.db.store.SelectOne(ctx, t.collection, id)
			if err != nil {
				return nil, nil, err
			}
			rec, err := fromRow[R](row)
			if err != nil {
				return nil, nil, store.Wrap("get", t.collection, err)
			}
			return &rec, nil, nil
		},
	})
}

// Create inserts rec with a generated id and a created_at timestamp and
// returns the stored record. On recoverable failure it returns fallback, or
// rec with the generated fields when fallback is nil. A record that does not
// encode as a JSON object fails with ErrInvalidRecord.
func (t *Table[R]) Create(ctx context.Context, rec R, fallback *R) types.Response[*R] {
	row, err := toRow(rec)
	if err != nil {
		return types.Fail[*R](fmt.Errorf("%w: %w", ErrInvalidRecord, err))
	}
	id := t.db.ids.Next(t.idPrefix)
	row["id"] = id
	row["created_at"] = Timestamp(t.db.Now())

	merged, err := fromInput[R](row)
	if err != nil {
		return types.Fail[*R](err)
	}
	if fallback == nil {
		fallback = &merged
	}

	resp := execute(ctx, t.db, call[*R]{
		collection: t.collection,
		op:         "create",
		fallback:   fallback,
		run: func(ctx context.Context) (*R, *int, error) {
			stored, err := t.db.store.Insert(ctx, t.collection, row)
			if err != nil {
				return nil, nil, err
			}
			out, err := fromRow[R](stored)
			if err != nil {
				return nil, nil, store.Wrap("create", t.collection, err)
			}
			return &out, nil, nil
		},
	})
	if resp.Success && !resp.Fallback {
		t.publish(ctx, events.OpCreated, id, resp.Data)
	}
	return resp
}

// Update applies patch plus an updated_at timestamp to the record with the
// given id. On recoverable failure it returns fallback, or a record built
// from the id and patch when fallback is nil. A patch value that does not fit
// the record type fails with ErrInvalidRecord before the store is called.
func (t *Table[R]) Update(ctx context.Context, id string, patch Patch, fallback *R) types.Response[*R] {
	row := normalizePatch(patch)
	delete(row, "id")
	row["updated_at"] = Timestamp(t.db.Now())

	partial := normalizePatch(Patch(row))
	partial["id"] = id
	merged, err := fromInput[R](partial)
	if err != nil {
		return types.Fail[*R](err)
	}
	if fallback == nil {
		fallback = &merged
	}

	resp := execute(ctx, t.db, call[*R]{
		collection: t.collection,
		op:         "update",
		fallback:   fallback,
		run: func(ctx context.Context) (*R, *int, error) {
			stored, err := t.db.store.Update(ctx, t.collection, id, row)
			if err != nil {
				return nil, nil, err
			}
			out, err := fromRow[R](stored)
			if err != nil {
				return nil, nil, store.Wrap("update", t.collection, err)
			}
			return &out, nil, nil
		},
	})
	if resp.Success && !resp.Fallback {
		t.publish(ctx, events.OpUpdated, id, resp.Data)
	}
	return resp
}

// Delete removes the record with the given id. Deleting a missing record
// succeeds, as does a delete that fails recoverably.
func (t *Table[R]) Delete(ctx context.Context, id string) types.Response[bool] {
	deleted := false
	resp := execute(ctx, t.db, call[bool]{
		collection: t.collection,
		op:         "delete",
		fallback:   true,
		run: func(ctx context.Context) (bool, *int, error) {
			err := t.db.store.Delete(ctx, t.collection, id)
			if errors.Is(err, store.ErrNotFound) {
				return true, nil, nil
			}
			if err != nil {
				return false, nil, err
			}
			deleted = true
			return true, nil, nil
		},
	})
	if deleted {
		t.publish(ctx, events.OpDeleted, id, nil)
	}
	return resp
}

// publish emits a change event. Failures are logged, never surfaced.
func (t *Table[R]) publish(ctx context.Context, op, id string, record any) {
	if _, noop := t.db.publisher.(events.Noop); noop {
		return
	}
	logger := t.db.logger.With().Str("collection", t.collection).Str("operation", op).Str("id", id).Logger()

	event, err := events.NewChangeEvent(t.collection, op, id, record, t.db.Now())
	if err != nil {
		logger.Warn().Err(err).Msg("building change event")
		return
	}
	subject := events.SubjectFor(t.db.subjectPrefix, t.collection, op)
	if err := t.db.publisher.Publish(ctx, subject, event); err != nil {
		logger.Warn().Err(err).Str("subject", subject).Msg("publishing change event")
	}
}
