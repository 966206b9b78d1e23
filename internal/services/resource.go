// Package services binds each HR collection to its sample data, create
// defaults and composite actions.
//
// Services are stateless: every method is one or two calls on a data.Table
// and returns its envelope unchanged. Status strings are free-form; no
// transition rules are enforced here.
package services

import (
	"context"
	"time"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/internal/query"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// Resource is the CRUD surface shared by every domain service.
type Resource[R any] struct {
	table    *data.Table[R]
	samples  []R
	idOf     func(*R) string
	defaults func(*R)
}

func newResource[R any](db *data.DB, collection, idPrefix string, samples []R, idOf func(*R) string, defaults func(*R)) *Resource[R] {
	return &Resource[R]{
		table:    data.NewTable[R](db, collection, idPrefix),
		samples:  samples,
		idOf:     idOf,
		defaults: defaults,
	}
}

// Collection returns the backing collection name.
func (r *Resource[R]) Collection() string {
	return r.table.Collection()
}

// Samples returns the fallback records served while the store is unavailable.
func (r *Resource[R]) Samples() []R {
	return r.samples
}

// List returns a page of records, or the samples when the store is
// unavailable.
func (r *Resource[R]) List(ctx context.Context, p *query.Pagination, filters []query.Filter) types.Response[[]R] {
	return r.table.List(ctx, p, filters, r.samples)
}

// Get returns one record, or the sample with the same id when the store is
// unavailable.
func (r *Resource[R]) Get(ctx context.Context, id string) types.Response[*R] {
	return r.table.Get(ctx, id, r.sample(id))
}

// Create fills defaults and inserts rec.
func (r *Resource[R]) Create(ctx context.Context, rec R) types.Response[*R] {
	if r.defaults != nil {
		r.defaults(&rec)
	}
	return r.table.Create(ctx, rec, nil)
}

// Update applies patch to the record with the given id.
func (r *Resource[R]) Update(ctx context.Context, id string, patch data.Patch) types.Response[*R] {
	return r.table.Update(ctx, id, patch, nil)
}

// Delete removes the record with the given id.
func (r *Resource[R]) Delete(ctx context.Context, id string) types.Response[bool] {
	return r.table.Delete(ctx, id)
}

func (r *Resource[R]) sample(id string) *R {
	for i := range r.samples {
		if r.idOf(&r.samples[i]) == id {
			rec := r.samples[i]
			return &rec
		}
	}
	return nil
}

func (r *Resource[R]) now() time.Time {
	return r.table.DB().Now()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// mustTime parses a fixed RFC 3339 timestamp and panics on a bad literal.
func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Services groups every domain service over one database.
type Services struct {
	Teams             *Teams
	Projects          *Projects
	MeetingRooms      *MeetingRooms
	RoomBookings      *RoomBookings
	Equipment         *Equipment
	EquipmentBookings *EquipmentBookings
	SafetyChecks      *SafetyChecks
	BusinessTravel    *BusinessTravel
	ChatChannels      *ChatChannels
	ChatMessages      *ChatMessages
	Requests          *Requests
}

// New creates every domain service over db.
func New(db *data.DB) *Services {
	safety := NewSafetyChecks(db)
	return &Services{
		Teams:             NewTeams(db),
		Projects:          NewProjects(db),
		MeetingRooms:      NewMeetingRooms(db),
		RoomBookings:      NewRoomBookings(db),
		Equipment:         NewEquipment(db, safety),
		EquipmentBookings: NewEquipmentBookings(db),
		SafetyChecks:      safety,
		BusinessTravel:    NewBusinessTravel(db),
		ChatChannels:      NewChatChannels(db),
		ChatMessages:      NewChatMessages(db),
		Requests:          NewRequests(db),
	}
}
