package data

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/peopledesk/peopledesk/internal/metrics"
	"github.com/peopledesk/peopledesk/internal/store"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// call describes one store operation and what to serve if it fails
// recoverably.
type call[T any] struct {
	collection string
	op         string
	// fallback and fallbackCount are served on recoverable failure.
	fallback      T
	fallbackCount int
	run           func(ctx context.Context) (T, *int, error)
}

// execute runs c against the store and folds the outcome into an envelope.
func execute[T any](ctx context.Context, db *DB, c call[T]) types.Response[T] {
	logger := db.logger.With().Str("collection", c.collection).Str("operation", c.op).Logger()

	if db.health != nil {
		up := db.health.Reachable(ctx)
		db.metrics.StoreUp(up)
		if !up {
			err := store.NewError(store.KindTransport, c.op, c.collection, store.ErrUnavailable)
			return recovered(db, logger, c, err)
		}
	}

	opCtx := ctx
	if db.timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, db.timeout)
		defer cancel()
	}

	result, count, err := c.run(opCtx)
	if err == nil {
		db.metrics.Operation(c.collection, c.op, metrics.OutcomeSuccess)
		return types.Response[T]{Data: result, Success: true, Count: count}
	}

	kind := store.KindOf(err)
	db.metrics.Failure(c.collection, kind.String())

	if kind == store.KindTransport && db.health != nil && storeDown(ctx, err) {
		db.health.MarkUnreachable(err)
	}
	if kind.Recoverable() {
		return recovered(db, logger, c, err)
	}

	logger.Error().Err(err).Str("kind", kind.String()).Msg("store operation failed")
	db.metrics.Operation(c.collection, c.op, metrics.OutcomeError)
	return types.Fail[T](err)
}

// storeDown reports whether a transport failure means the store itself is
// unreachable. A bad row, a cancelled caller or an expired deadline says
// nothing about the connection.
func storeDown(ctx context.Context, err error) bool {
	switch {
	case ctx.Err() != nil:
		return false
	case errors.Is(err, store.ErrMalformedRow):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func recovered[T any](db *DB, logger zerolog.Logger, c call[T], err error) types.Response[T] {
	logger.Warn().Err(err).Str("kind", store.KindOf(err).String()).Msg("store unavailable; serving fallback data")
	db.metrics.Operation(c.collection, c.op, metrics.OutcomeFallback)

	resp := types.OKCount(c.fallback, c.fallbackCount)
	resp.Fallback = true
	resp.Err = err
	return resp
}
