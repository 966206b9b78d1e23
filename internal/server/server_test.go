package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/peopledesk/peopledesk/internal/config"
	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/internal/health"
	"github.com/peopledesk/peopledesk/internal/metrics"
	"github.com/peopledesk/peopledesk/internal/query"
	"github.com/peopledesk/peopledesk/internal/store"
	"github.com/peopledesk/peopledesk/internal/store/storetest"
	"github.com/peopledesk/peopledesk/pkg/types"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestServer(t *testing.T, st store.Store, opts ...Option) *Server {
	t.Helper()
	db := data.New(st, data.WithClock(fixedClock))
	return New(db, config.Defaults(), "1.0.0", "abc123", "2024-03-01", opts...)
}

func memoryServer(t *testing.T) *Server {
	return newTestServer(t, store.NewMemoryStore(zerolog.Nop()))
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv := memoryServer(t)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/readiness", "").Code)

	w := do(t, srv, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0.0", decode[map[string]string](t, w)["version"])
}

func TestReadiness_OfflineStore(t *testing.T) {
	srv := newTestServer(t, store.NewOfflineStore())
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/readiness", "").Code)
}

func TestReadiness_UsesHealthChecker(t *testing.T) {
	st := store.NewOfflineStore()
	checker := health.NewChecker(st)
	db := data.New(st, data.WithHealth(checker))
	srv := New(db, config.Defaults(), "dev", "none", "unknown")

	w := do(t, srv, http.MethodGet, "/readiness", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "store unreachable")
	assert.False(t, checker.Status().Reachable)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	db := data.New(store.NewMemoryStore(zerolog.Nop()), data.WithMetrics(rec))
	srv := New(db, config.Defaults(), "dev", "none", "unknown", WithGatherer(reg))

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/v1/teams", "").Code)

	w := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `peopledesk_data_operations_total{collection="teams",operation="list",outcome="success"} 1`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.MetricsEnabled = false
	srv := New(data.New(store.NewMemoryStore(zerolog.Nop())), cfg, "dev", "none", "unknown", WithGatherer(prometheus.NewRegistry()))

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/metrics", "").Code)
}

func TestTracing(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		spans   []string
	}{
		{name: "enabled", enabled: true, spans: []string{"GET /api/v1/teams"}},
		{name: "disabled", enabled: false, spans: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			cfg := config.Defaults()
			cfg.TracesEnabled = tt.enabled
			srv := New(data.New(store.NewMemoryStore(zerolog.Nop())), cfg, "dev", "none", "unknown", WithTracerProvider(tp))

			require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/v1/teams", "").Code)

			var names []string
			for _, span := range recorder.Ended() {
				names = append(names, span.Name())
			}
			assert.Equal(t, tt.spans, names)
		})
	}
}

func TestList_OfflineServesSamples(t *testing.T) {
	srv := newTestServer(t, store.NewOfflineStore())

	w := do(t, srv, http.MethodGet, "/api/v1/meeting-rooms?page=1&limit=10&orderBy=name&ascending=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fallback", w.Header().Get(FallbackHeader))

	body := decode[types.ListBody[types.MeetingRoom]](t, w)
	samples := srv.Services().MeetingRooms.Samples()
	assert.Len(t, body.Data, len(samples))
	assert.Equal(t, len(samples), body.Count)
	assert.Equal(t, types.Pagination{Page: 1, Limit: 10, Total: len(samples), TotalPages: 1}, body.Pagination)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	srv := memoryServer(t)
	for floor := 1; floor <= 5; floor++ {
		body := `{"name":"Room","floor":` + strconv.Itoa(floor) + `}`
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/v1/meeting-rooms", body).Code)
	}

	filters := url.QueryEscape(`[{"column":"floor","operator":"gte","value":2}]`)
	w := do(t, srv, http.MethodGet, "/api/v1/meeting-rooms?limit=3&orderBy=floor&ascending=true&filters="+filters, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(FallbackHeader))

	body := decode[types.ListBody[types.MeetingRoom]](t, w)
	assert.Equal(t, 4, body.Count)
	require.Len(t, body.Data, 3)
	assert.Equal(t, 2, body.Data[0].Floor)
	assert.Equal(t, 4, body.Data[2].Floor)
	assert.Equal(t, types.Pagination{Page: 1, Limit: 3, Total: 4, TotalPages: 2, HasNext: true}, body.Pagination)
}

func TestList_EmptyCollectionReturnsEmptyArray(t *testing.T) {
	w := do(t, memoryServer(t), http.MethodGet, "/api/v1/teams", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"count":0,"pagination":{"page":1,"limit":10,"total":0,"totalPages":0,"hasNext":false}}`, w.Body.String())
}

func TestList_BadParams(t *testing.T) {
	srv := memoryServer(t)
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "page", query: "page=abc", want: "invalid page"},
		{name: "page too large", query: "page=" + strconv.Itoa(math.MaxInt), want: "invalid page"},
		{name: "negative limit", query: "limit=-3", want: "invalid limit"},
		{name: "ascending", query: "ascending=sometimes", want: "invalid ascending"},
		{name: "filters", query: "filters=" + url.QueryEscape(`[{"column":`), want: "invalid filters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodGet, "/api/v1/teams?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[types.ErrorBody](t, w).Error, tt.want)
		})
	}
}

func TestList_LastPageHasNoNext(t *testing.T) {
	srv := memoryServer(t)
	for range 3 {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/v1/teams", `{"name":"Data"}`).Code)
	}

	w := do(t, srv, http.MethodGet, "/api/v1/teams?page=2&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[types.ListBody[types.Team]](t, w)
	assert.Len(t, body.Data, 1)
	assert.Equal(t, types.Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2, HasNext: false}, body.Pagination)

	w = do(t, srv, http.MethodGet, "/api/v1/teams?page="+strconv.Itoa(query.MaxPage)+"&limit=100", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[types.ListBody[types.Team]](t, w)
	assert.Empty(t, body.Data)
	assert.False(t, body.Pagination.HasNext)
}

func TestList_LimitIsClamped(t *testing.T) {
	w := do(t, memoryServer(t), http.MethodGet, "/api/v1/teams?limit=1000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, decode[types.ListBody[types.Team]](t, w).Pagination.Limit)
}

func TestList_UnknownOperatorIsSkipped(t *testing.T) {
	srv := memoryServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/v1/teams", `{"name":"Data"}`).Code)

	filters := url.QueryEscape(`[{"column":"name","operator":"regex","value":"^X"}]`)
	w := do(t, srv, http.MethodGet, "/api/v1/teams?filters="+filters, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.ListBody[types.Team]](t, w).Count)
}

func TestTeamLifecycle(t *testing.T) {
	srv := memoryServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/teams", `{"name":"Data","department":"Engineering"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[types.ItemBody[types.Team]](t, w).Data
	assert.Regexp(t, `^team_\d+$`, created.ID)
	assert.Equal(t, "active", created.Status)
	assert.True(t, fixedNow.Equal(created.CreatedAt))

	w = do(t, srv, http.MethodGet, "/api/v1/teams/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Data", decode[types.ItemBody[types.Team]](t, w).Data.Name)

	w = do(t, srv, http.MethodPatch, "/api/v1/teams/"+created.ID, `{"name":"Data Platform","id":"team_hijack"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[types.ItemBody[types.Team]](t, w).Data
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Data Platform", updated.Name)
	assert.Equal(t, "Engineering", updated.Department)

	w = do(t, srv, http.MethodDelete, "/api/v1/teams/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":true}`, w.Body.String())

	w = do(t, srv, http.MethodGet, "/api/v1/teams/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[types.ErrorBody](t, w).Error, "resource not found")

	w = do(t, srv, http.MethodDelete, "/api/v1/teams/"+created.ID, "")
	assert.Equal(t, http.StatusOK, w.Code, "deleting a missing record succeeds")
}

func TestGet_OfflineUnknownIDIsNotFound(t *testing.T) {
	srv := newTestServer(t, store.NewOfflineStore())

	w := do(t, srv, http.MethodGet, "/api/v1/teams/team_1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fallback", w.Header().Get(FallbackHeader))

	w = do(t, srv, http.MethodGet, "/api/v1/teams/team_404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "teams team_404 not found", decode[types.ErrorBody](t, w).Error)
}

func TestUpdate_MissingRecord(t *testing.T) {
	w := do(t, memoryServer(t), http.MethodPatch, "/api/v1/projects/project_404", `{"status":"active"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAndUpdate_BadBodies(t *testing.T) {
	srv := memoryServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/v1/teams", `{"name":`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/v1/teams", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/v1/teams", `{"member_count":"many"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, "/api/v1/teams/team_1", `{}`).Code)

	w := do(t, srv, http.MethodPatch, "/api/v1/teams/team_1", `{"member_count":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[types.ErrorBody](t, w).Error, "invalid record")
}

func TestFatalStoreFailureIs500(t *testing.T) {
	mock := &storetest.MockStore{
		SelectFn: func(context.Context, store.SelectQuery) ([]store.Row, int, error) {
			return nil, 0, errors.New("permission denied for table teams")
		},
	}
	w := do(t, newTestServer(t, mock), http.MethodGet, "/api/v1/teams", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"permission denied for table teams"}`, w.Body.String())
}

func TestActions(t *testing.T) {
	srv := memoryServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/requests", `{"title":"Chair","requester_name":"Ana"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[types.ItemBody[types.Request]](t, w).Data.ID

	w = do(t, srv, http.MethodPost, "/api/v1/requests/"+id+"/assign", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "assigned_to is required", decode[types.ErrorBody](t, w).Error)

	w = do(t, srv, http.MethodPost, "/api/v1/requests/"+id+"/assign", `{"assigned_to":"Marcus"}`)
	require.Equal(t, http.StatusOK, w.Code)
	req := decode[types.ItemBody[types.Request]](t, w).Data
	assert.Equal(t, "in_progress", req.Status)
	assert.Equal(t, "Marcus", req.AssignedTo)

	w = do(t, srv, http.MethodPost, "/api/v1/requests/"+id+"/reject", "")
	require.Equal(t, http.StatusOK, w.Code, "reject body is optional")
	assert.Equal(t, "rejected", decode[types.ItemBody[types.Request]](t, w).Data.Status)

	w = do(t, srv, http.MethodPut, "/api/v1/requests/"+id+"/status", `{"status":"pending"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode[types.ItemBody[types.Request]](t, w).Data.Status)
}

func TestRoomBookingActions(t *testing.T) {
	srv := memoryServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/room-bookings", `{"room_id":"room_7","title":"Standup","start_time":"2024-03-04T09:00:00Z"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	booking := decode[types.ItemBody[types.RoomBooking]](t, w).Data
	assert.Equal(t, "confirmed", booking.Status)

	w = do(t, srv, http.MethodGet, "/api/v1/meeting-rooms/room_7/bookings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.ListBody[types.RoomBooking]](t, w).Count)

	w = do(t, srv, http.MethodPost, "/api/v1/room-bookings/"+booking.ID+"/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	cancelled := decode[types.ItemBody[types.RoomBooking]](t, w).Data
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "Cancelled by organizer", cancelled.CancellationReason)
}

func TestChatActions(t *testing.T) {
	srv := memoryServer(t)

	for _, content := range []string{"one", "two"} {
		w := do(t, srv, http.MethodPost, "/api/v1/chat-messages", `{"channel_id":"channel_5","content":"`+content+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, srv, http.MethodGet, "/api/v1/chat-channels/channel_5/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode[types.ListBody[types.ChatMessage]](t, w).Data
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)

	w = do(t, srv, http.MethodPost, "/api/v1/chat-messages/"+msgs[0].ID+"/edit", `{"content":"uno"}`)
	require.Equal(t, http.StatusOK, w.Code)
	edited := decode[types.ItemBody[types.ChatMessage]](t, w).Data
	assert.Equal(t, "uno", edited.Content)
	assert.True(t, fixedNow.Equal(edited.EditedAt))
}

func TestEquipmentSafetyCheckAction(t *testing.T) {
	srv := memoryServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/equipment", `{"name":"Projector"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[types.ItemBody[types.Equipment]](t, w).Data.ID

	w = do(t, srv, http.MethodPost, "/api/v1/equipment/"+id+"/safety-check", `{"inspector":"Jordan","result":"pass"}`)
	require.Equal(t, http.StatusOK, w.Code)
	eq := decode[types.ItemBody[types.Equipment]](t, w).Data
	assert.True(t, fixedNow.Equal(eq.LastSafetyCheck))

	w = do(t, srv, http.MethodGet, "/api/v1/safety-checks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.ListBody[types.SafetyCheck]](t, w).Count)
}
