package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/internal/httputil"
	"github.com/peopledesk/peopledesk/internal/query"
	"github.com/peopledesk/peopledesk/internal/store"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// crud is the surface every domain service exposes.
type crud[R any] interface {
	Collection() string
	List(ctx context.Context, p *query.Pagination, filters []query.Filter) types.Response[[]R]
	Get(ctx context.Context, id string) types.Response[*R]
	Create(ctx context.Context, rec R) types.Response[*R]
	Update(ctx context.Context, id string, patch data.Patch) types.Response[*R]
	Delete(ctx context.Context, id string) types.Response[bool]
}

type resourceHandler[R any] struct {
	svc      crud[R]
	maxLimit int
}

// mount registers list/create on path and get/update/delete on path/{id}.
func mount[R any](r chi.Router, path string, svc crud[R], maxLimit int) {
	h := &resourceHandler[R]{svc: svc, maxLimit: maxLimit}
	r.Get(path, h.list)
	r.Post(path, h.create)
	r.Get(path+"/{id}", h.get)
	r.Patch(path+"/{id}", h.update)
	r.Put(path+"/{id}", h.update)
	r.Delete(path+"/{id}", h.delete)
}

func (h *resourceHandler[R]) list(w http.ResponseWriter, r *http.Request) {
	p, filters, err := parseListParams(r, h.maxLimit)
	if err != nil {
		httputil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	respondList(w, r, p, h.svc.List(r.Context(), &p, filters))
}

func (h *resourceHandler[R]) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp := h.svc.Get(r.Context(), id)
	if resp.Success && resp.Data == nil {
		httputil.RespondErrorf(w, r, http.StatusNotFound, "%s %s not found", h.svc.Collection(), id)
		return
	}
	respondItem(w, r, http.StatusOK, resp)
}

func (h *resourceHandler[R]) create(w http.ResponseWriter, r *http.Request) {
	var rec R
	if err := httputil.DecodeJSON(r, &rec); err != nil {
		httputil.RespondErrorf(w, r, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	respondItem(w, r, http.StatusCreated, h.svc.Create(r.Context(), rec))
}

func (h *resourceHandler[R]) update(w http.ResponseWriter, r *http.Request) {
	var patch data.Patch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.RespondErrorf(w, r, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if len(patch) == 0 {
		httputil.RespondError(w, r, http.StatusBadRequest, "invalid request body: no fields to update")
		return
	}
	respondItem(w, r, http.StatusOK, h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch))
}

func (h *resourceHandler[R]) delete(w http.ResponseWriter, r *http.Request) {
	resp := h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if !resp.Success {
		respondFailure(w, r, resp.Error, resp.Err)
		return
	}
	markFallback(w, resp.Fallback)
	httputil.RespondJSON(w, http.StatusOK, types.ItemBody[bool]{Data: resp.Data})
}

// parseListParams reads page, limit, orderBy, ascending and filters. The
// limit is clamped to maxLimit.
func parseListParams(r *http.Request, maxLimit int) (query.Pagination, []query.Filter, error) {
	q := r.URL.Query()
	var p query.Pagination

	var err error
	if p.Page, err = optionalInt(q.Get("page"), "page"); err != nil {
		return p, nil, err
	}
	if p.Page > query.MaxPage {
		return p, nil, fmt.Errorf("invalid page %d: must be at most %d", p.Page, query.MaxPage)
	}
	if p.Limit, err = optionalInt(q.Get("limit"), "limit"); err != nil {
		return p, nil, err
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	p.OrderBy = strings.TrimSpace(q.Get("orderBy"))
	if raw := strings.TrimSpace(q.Get("ascending")); raw != "" {
		asc, err := strconv.ParseBool(raw)
		if err != nil {
			return p, nil, fmt.Errorf("invalid ascending %q: must be true or false", raw)
		}
		p.Ascending = asc
	}

	filters, err := query.ParseFilters(q.Get("filters"))
	if err != nil {
		return p, nil, fmt.Errorf("invalid filters: %w", err)
	}
	return p.Normalize(), filters, nil
}

func optionalInt(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, raw)
	}
	return v, nil
}

func respondList[R any](w http.ResponseWriter, r *http.Request, p query.Pagination, resp types.Response[[]R]) {
	if !resp.Success {
		respondFailure(w, r, resp.Error, resp.Err)
		return
	}
	items := resp.Data
	if items == nil {
		items = []R{}
	}
	total := resp.CountOrZero()
	totalPages := 0
	if p.Limit > 0 {
		totalPages = total / p.Limit
		if total%p.Limit != 0 {
			totalPages++
		}
	}
	markFallback(w, resp.Fallback)
	httputil.RespondJSON(w, http.StatusOK, types.ListBody[R]{
		Data:  items,
		Count: total,
		Pagination: types.Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    p.Page < totalPages,
		},
	})
}

func respondItem[R any](w http.ResponseWriter, r *http.Request, status int, resp types.Response[*R]) {
	if !resp.Success {
		respondFailure(w, r, resp.Error, resp.Err)
		return
	}
	markFallback(w, resp.Fallback)
	httputil.RespondJSON(w, status, types.ItemBody[*R]{Data: resp.Data})
}

// respondFailure maps a failed envelope to a status: missing records are
// 404, rejected identifiers and records 400, everything else 500.
func respondFailure(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidIdentifier), errors.Is(err, data.ErrInvalidRecord):
		status = http.StatusBadRequest
	}
	httputil.RespondError(w, r, status, msg)
}

func markFallback(w http.ResponseWriter, fallback bool) {
	if fallback {
		w.Header().Set(FallbackHeader, "fallback")
	}
}
