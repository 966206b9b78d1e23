package data_test

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/internal/events"
	"github.com/peopledesk/peopledesk/internal/health"
	"github.com/peopledesk/peopledesk/internal/metrics"
	"github.com/peopledesk/peopledesk/internal/query"
	"github.com/peopledesk/peopledesk/internal/store"
	"github.com/peopledesk/peopledesk/internal/store/storetest"
	"github.com/peopledesk/peopledesk/pkg/types"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var sampleTeams = []types.Team{
	{ID: "team_1", Name: "Platform", Status: "active"},
	{ID: "team_2", Name: "People Ops", Status: "active"},
}

func teams(st store.Store, opts ...data.Option) *data.Table[types.Team] {
	opts = append([]data.Option{data.WithClock(fixedClock)}, opts...)
	return data.NewTable[types.Team](data.New(st, opts...), "teams", "team")
}

func assertEnvelope[T any](t *testing.T, resp types.Response[T]) {
	t.Helper()
	assert.Equal(t, resp.Success, resp.Error == "", "success must hold exactly when error is empty")
}

var (
	errSchema    = errors.New("Could not find a relationship between 'teams' and 'members' in the schema cache")
	errFunction  = errors.New("function public.team_stats() does not exist")
	errFatal     = errors.New("permission denied for table teams")
	errTransport = &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
)

func TestList_Success(t *testing.T) {
	mock := &storetest.MockStore{
		SelectFn: func(_ context.Context, q store.SelectQuery) ([]store.Row, int, error) {
			assert.Equal(t, "teams", q.Collection)
			assert.Equal(t, []query.Filter{query.Eq("status", "active")}, q.Filters)
			assert.Equal(t, 2, q.Pagination.Page)
			return []store.Row{
				{"id": "team_7", "name": "Data", "member_count": int64(4), "created_at": fixedNow},
			}, 11, nil
		},
	}

	resp := teams(mock).List(context.Background(), &query.Pagination{Page: 2, Limit: 10}, []query.Filter{query.Eq("status", "active")}, sampleTeams)
	assertEnvelope(t, resp)
	require.True(t, resp.Success)
	assert.False(t, resp.Fallback)
	assert.Equal(t, 11, resp.CountOrZero())
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Data", resp.Data[0].Name)
	assert.Equal(t, 4, resp.Data[0].MemberCount)
	assert.True(t, fixedNow.Equal(resp.Data[0].CreatedAt))
}

func TestRecoverableFailuresServeFallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "relationship", err: errors.New("Could not find a relationship between 'teams' and 'members'")},
		{name: "schema cache", err: errSchema},
		{name: "function", err: errFunction},
		{name: "connection refused", err: errTransport},
		{name: "timeout", err: context.DeadlineExceeded},
		{name: "typed transport", err: store.NewError(store.KindTransport, "select", "teams", errors.New("socket closed"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := teams(storetest.Failing(tt.err))
			ctx := context.Background()

			list := tbl.List(ctx, nil, nil, sampleTeams)
			assertEnvelope(t, list)
			assert.True(t, list.Success)
			assert.Empty(t, list.Error)
			assert.True(t, list.Fallback)
			assert.Equal(t, sampleTeams, list.Data)
			assert.Equal(t, len(sampleTeams), list.CountOrZero())

			fallback := sampleTeams[0]
			get := tbl.Get(ctx, "team_1", &fallback)
			assertEnvelope(t, get)
			assert.True(t, get.Success)
			assert.Equal(t, &fallback, get.Data)
			require.NotNil(t, get.Count)
			assert.Equal(t, 0, *get.Count)

			none := tbl.Get(ctx, "team_1", nil)
			assert.True(t, none.Success)
			assert.Nil(t, none.Data)

			emptyList := tbl.List(ctx, nil, nil, nil)
			assert.True(t, emptyList.Success)
			assert.Nil(t, emptyList.Data)
			assert.Equal(t, 0, emptyList.CountOrZero())
		})
	}
}

func TestFatalFailuresPassThrough(t *testing.T) {
	tbl := teams(storetest.Failing(errFatal))
	ctx := context.Background()

	list := tbl.List(ctx, nil, nil, sampleTeams)
	assertEnvelope(t, list)
	assert.False(t, list.Success)
	assert.Nil(t, list.Data)
	assert.Equal(t, errFatal.Error(), list.Error)
	assert.Nil(t, list.Count)

	get := tbl.Get(ctx, "team_1", &sampleTeams[0])
	assert.False(t, get.Success)
	assert.Nil(t, get.Data)
	assert.Equal(t, errFatal.Error(), get.Error)

	created := tbl.Create(ctx, types.Team{Name: "X"}, nil)
	assert.False(t, created.Success)
	assert.Nil(t, created.Data)

	updated := tbl.Update(ctx, "team_1", data.Patch{"name": "Y"}, nil)
	assert.False(t, updated.Success)

	deleted := tbl.Delete(ctx, "team_1")
	assertEnvelope(t, deleted)
	assert.False(t, deleted.Success)
	assert.False(t, deleted.Data)
	assert.Equal(t, errFatal.Error(), deleted.Error)
}

func TestGet_NotFound(t *testing.T) {
	mock := &storetest.MockStore{
		SelectOneFn: func(_ context.Context, collection, id string) (store.Row, error) {
			return nil, store.Wrap("select_one", collection, store.ErrNotFound)
		},
	}

	resp := teams(mock).Get(context.Background(), "team_404", &sampleTeams[0])
	assertEnvelope(t, resp)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, "resource not found", resp.Error)
	assert.ErrorIs(t, resp.Err, store.ErrNotFound)
}

func TestCreate_GeneratesIDAndTimestamp(t *testing.T) {
	var inserted store.Row
	mock := &storetest.MockStore{
		InsertFn: func(_ context.Context, collection string, row store.Row) (store.Row, error) {
			assert.Equal(t, "teams", collection)
			inserted = row
			out := store.Row{"status": "active"}
			for k, v := range row {
				out[k] = v
			}
			return out, nil
		},
	}

	resp := teams(mock).Create(context.Background(), types.Team{Name: "X"}, nil)
	assertEnvelope(t, resp)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)

	assert.Regexp(t, regexp.MustCompile(`^team_\d+$`), resp.Data.ID)
	assert.Equal(t, "team_1709287200000", resp.Data.ID)
	assert.True(t, fixedNow.Equal(resp.Data.CreatedAt))
	assert.Equal(t, "active", resp.Data.Status, "store defaults are authoritative")

	assert.Equal(t, "2024-03-01T10:00:00Z", inserted["created_at"])
	assert.NotContains(t, inserted, "updated_at", "zero timestamps are not written")
	assert.NotContains(t, inserted, "member_count", "zero values are not written")
}

func TestCreate_RecoverableReturnsMergedRecord(t *testing.T) {
	tbl := teams(storetest.Failing(errTransport))

	resp := tbl.Create(context.Background(), types.Team{Name: "X", Status: "active"}, nil)
	assertEnvelope(t, resp)
	require.True(t, resp.Success)
	assert.True(t, resp.Fallback)
	require.NotNil(t, resp.Data)
	assert.Regexp(t, `^team_\d+$`, resp.Data.ID)
	assert.Equal(t, "X", resp.Data.Name)
	assert.True(t, fixedNow.Equal(resp.Data.CreatedAt))

	explicit := types.Team{ID: "team_demo", Name: "Demo"}
	resp = tbl.Create(context.Background(), types.Team{Name: "X"}, &explicit)
	assert.Equal(t, &explicit, resp.Data)
}

func TestUpdate(t *testing.T) {
	t.Run("stamps updated_at and drops id", func(t *testing.T) {
		mock := &storetest.MockStore{
			UpdateFn: func(_ context.Context, collection, id string, patch store.Row) (store.Row, error) {
				assert.Equal(t, "team_1", id)
				assert.NotContains(t, patch, "id")
				assert.Equal(t, "2024-03-01T10:00:00Z", patch["updated_at"])
				assert.Equal(t, "2024-02-01T00:00:00Z", patch["cancelled_at"])
				return store.Row{"id": id, "name": patch["name"], "updated_at": patch["updated_at"]}, nil
			},
		}
		resp := teams(mock).Update(context.Background(), "team_1", data.Patch{
			"id":           "team_other",
			"name":         "Renamed",
			"cancelled_at": time.Date(2024, 2, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
		}, nil)
		require.True(t, resp.Success)
		assert.Equal(t, "Renamed", resp.Data.Name)
		assert.True(t, fixedNow.Equal(resp.Data.UpdatedAt))
	})

	t.Run("recoverable returns id and patch", func(t *testing.T) {
		resp := teams(storetest.Failing(errSchema)).Update(context.Background(), "team_1", data.Patch{"status": "archived"}, nil)
		assertEnvelope(t, resp)
		require.True(t, resp.Success)
		require.NotNil(t, resp.Data)
		assert.Equal(t, "team_1", resp.Data.ID)
		assert.Equal(t, "archived", resp.Data.Status)
		assert.True(t, fixedNow.Equal(resp.Data.UpdatedAt))
	})
}

func TestUpdate_PatchNotFittingRecordFails(t *testing.T) {
	// No Fn fields: the store must not be called.
	resp := teams(&storetest.MockStore{}).Update(context.Background(), "team_1", data.Patch{"member_count": "abc"}, nil)
	assertEnvelope(t, resp)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.ErrorIs(t, resp.Err, data.ErrInvalidRecord)
	assert.NotErrorIs(t, resp.Err, store.ErrMalformedRow)
}

func TestCreate_RecordNotEncodableFails(t *testing.T) {
	tbl := data.NewTable[int](data.New(&storetest.MockStore{}), "numbers", "n")

	resp := tbl.Create(context.Background(), 7, nil)
	assertEnvelope(t, resp)
	assert.False(t, resp.Success)
	assert.ErrorIs(t, resp.Err, data.ErrInvalidRecord)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		success bool
	}{
		{name: "deleted", err: nil, success: true},
		{name: "missing row", err: store.Wrap("delete", "teams", store.ErrNotFound), success: true},
		{name: "transport failure", err: errTransport, success: true},
		{name: "schema mismatch", err: errSchema, success: true},
		{name: "fatal", err: errFatal, success: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &storetest.MockStore{
				DeleteFn: func(context.Context, string, string) error { return tt.err },
			}
			resp := teams(mock).Delete(context.Background(), "team_missing")
			assertEnvelope(t, resp)
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.success, resp.Data)
		})
	}
}

func TestMalformedRowServesFallback(t *testing.T) {
	pinger := &countingPinger{}
	checker := health.NewChecker(pinger, health.WithTTL(time.Hour))
	mock := &storetest.MockStore{
		SelectFn: func(context.Context, store.SelectQuery) ([]store.Row, int, error) {
			return []store.Row{{"id": "team_1", "member_count": "many"}}, 1, nil
		},
	}
	tbl := teams(mock, data.WithHealth(checker))

	resp := tbl.List(context.Background(), nil, nil, sampleTeams)
	assert.True(t, resp.Success)
	assert.True(t, resp.Fallback)
	assert.ErrorIs(t, resp.Err, store.ErrMalformedRow)
	assert.True(t, checker.Status().Reachable, "a bad row does not mark the store down")
}

type countingPinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *countingPinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func TestHealth_ShortCircuitsWhileUnreachable(t *testing.T) {
	pinger := &countingPinger{err: errTransport}
	checker := health.NewChecker(pinger, health.WithTTL(time.Hour))
	// No Fn fields: any store call panics.
	tbl := teams(&storetest.MockStore{}, data.WithHealth(checker))
	ctx := context.Background()

	list := tbl.List(ctx, nil, nil, sampleTeams)
	assert.True(t, list.Success)
	assert.Equal(t, sampleTeams, list.Data)
	assert.ErrorIs(t, list.Err, store.ErrUnavailable)

	assert.True(t, tbl.Delete(ctx, "team_1").Data)
	assert.Equal(t, 1, pinger.calls)
}

func TestHealth_TransportFailureMarksStoreDown(t *testing.T) {
	pinger := &countingPinger{}
	checker := health.NewChecker(pinger, health.WithTTL(time.Hour))
	calls := 0
	mock := &storetest.MockStore{
		SelectFn: func(context.Context, store.SelectQuery) ([]store.Row, int, error) {
			calls++
			return nil, 0, errTransport
		},
	}
	tbl := teams(mock, data.WithHealth(checker))
	ctx := context.Background()

	tbl.List(ctx, nil, nil, sampleTeams)
	assert.False(t, checker.Status().Reachable)

	resp := tbl.List(ctx, nil, nil, sampleTeams)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, calls, "second call is served without touching the store")
}

func TestHealth_CancelledCallerKeepsStoreUp(t *testing.T) {
	st := store.NewMemoryStore(zerolog.Nop())
	checker := health.NewChecker(st, health.WithTTL(time.Minute))
	tbl := teams(st, data.WithHealth(checker))
	require.True(t, tbl.Create(context.Background(), types.Team{Name: "Data"}, nil).Success)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	resp := tbl.List(cancelled, nil, nil, sampleTeams)
	assertEnvelope(t, resp)
	assert.True(t, resp.Fallback)
	assert.ErrorIs(t, resp.Err, context.Canceled)
	assert.True(t, checker.Status().Reachable, "a cancelled caller does not mark the store down")

	resp = tbl.List(context.Background(), nil, nil, sampleTeams)
	require.True(t, resp.Success)
	assert.False(t, resp.Fallback)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Data", resp.Data[0].Name)
}

func TestHealth_DeadlineKeepsStoreUp(t *testing.T) {
	pinger := &countingPinger{}
	checker := health.NewChecker(pinger, health.WithTTL(time.Hour))
	mock := &storetest.MockStore{
		SelectFn: func(context.Context, store.SelectQuery) ([]store.Row, int, error) {
			return nil, 0, context.DeadlineExceeded
		},
	}
	resp := teams(mock, data.WithHealth(checker)).List(context.Background(), nil, nil, sampleTeams)
	assert.True(t, resp.Success)
	assert.True(t, resp.Fallback)
	assert.True(t, checker.Status().Reachable, "a slow query does not mark the store down")
}

func TestWithTimeout(t *testing.T) {
	mock := &storetest.MockStore{
		SelectFn: func(ctx context.Context, _ store.SelectQuery) ([]store.Row, int, error) {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
			return []store.Row{}, 0, nil
		},
	}
	resp := teams(mock, data.WithTimeout(time.Second)).List(context.Background(), nil, nil, nil)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Data)
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestChangeEvents(t *testing.T) {
	pub := &recordingPublisher{}
	mem := store.NewMemoryStore(zerolog.Nop())
	tbl := teams(mem, data.WithPublisher(pub, "peopledesk.changes"))
	ctx := context.Background()

	created := tbl.Create(ctx, types.Team{Name: "X"}, nil)
	require.True(t, created.Success)
	id := created.Data.ID

	require.True(t, tbl.Update(ctx, id, data.Patch{"status": "archived"}, nil).Success)
	require.True(t, tbl.Delete(ctx, id).Success)
	// Deleting again succeeds but publishes nothing.
	require.True(t, tbl.Delete(ctx, id).Success)

	assert.Equal(t, []string{
		"peopledesk.changes.teams.created",
		"peopledesk.changes.teams.updated",
		"peopledesk.changes.teams.deleted",
	}, pub.subjects)
	assert.Equal(t, id, pub.events[0].Subject)

	// Fallback writes publish nothing.
	offline := teams(store.NewOfflineStore(), data.WithPublisher(pub, "peopledesk.changes"))
	offline.Create(ctx, types.Team{Name: "Y"}, nil)
	assert.Len(t, pub.subjects, 3)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	ctx := context.Background()

	teams(store.NewMemoryStore(zerolog.Nop()), data.WithMetrics(rec)).List(ctx, nil, nil, nil)
	teams(storetest.Failing(errTransport), data.WithMetrics(rec)).List(ctx, nil, nil, sampleTeams)
	teams(storetest.Failing(errFatal), data.WithMetrics(rec)).List(ctx, nil, nil, sampleTeams)

	expected := `
# HELP peopledesk_data_operations_total Data operations by collection, operation and outcome.
# TYPE peopledesk_data_operations_total counter
peopledesk_data_operations_total{collection="teams",operation="list",outcome="error"} 1
peopledesk_data_operations_total{collection="teams",operation="list",outcome="fallback"} 1
peopledesk_data_operations_total{collection="teams",operation="list",outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "peopledesk_data_operations_total"))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	tbl := data.NewTable[types.Project](data.New(store.NewMemoryStore(zerolog.Nop())), "projects", "project")
	ctx := context.Background()

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		require.True(t, tbl.Create(ctx, types.Project{Name: name, Status: "planning", Budget: 1500.5}, nil).Success)
	}

	resp := tbl.List(ctx, &query.Pagination{Page: 1, Limit: 2, OrderBy: "name", Ascending: true}, []query.Filter{query.Eq("status", "planning")}, nil)
	require.True(t, resp.Success)
	assert.Equal(t, 3, resp.CountOrZero())
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Alpha", resp.Data[0].Name)
	assert.Equal(t, 1500.5, resp.Data[0].Budget)

	got := tbl.Get(ctx, resp.Data[1].ID, nil)
	require.True(t, got.Success)
	assert.Equal(t, "Beta", got.Data.Name)
}

func TestRowTable(t *testing.T) {
	tbl := data.NewTable[store.Row](data.New(store.NewMemoryStore(zerolog.Nop()), data.WithClock(fixedClock)), "anything", "any")

	resp := tbl.Create(context.Background(), store.Row{"title": "free-form"}, nil)
	require.True(t, resp.Success)
	assert.Equal(t, "free-form", (*resp.Data)["title"])
	assert.Equal(t, "any_1709287200000", (*resp.Data)["id"])
}
