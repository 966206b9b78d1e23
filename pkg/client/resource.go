package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/peopledesk/peopledesk/pkg/types"
)

// List is one page of records.
type List[R any] struct {
	types.ListBody[R]
	// Fallback is set when the server answered from sample data.
	Fallback bool
}

// Resource is the CRUD client for one collection.
type Resource[R any] struct {
	c    *Client
	path string
}

// NewResource binds a collection path under /api/v1, e.g. "teams".
func NewResource[R any](c *Client, path string) *Resource[R] {
	return &Resource[R]{c: c, path: "/api/v1/" + path}
}

func (r *Resource[R]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List returns one page of records.
func (r *Resource[R]) List(ctx context.Context, opts ListOptions) (*List[R], error) {
	query, err := opts.values()
	if err != nil {
		return nil, err
	}
	var out List[R]
	out.Fallback, err = r.c.do(ctx, http.MethodGet, r.path, query, nil, &out.ListBody)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one record. A missing record is an *APIError with status 404.
func (r *Resource[R]) Get(ctx context.Context, id string) (*R, error) {
	return r.item(ctx, http.MethodGet, r.itemPath(id), nil)
}

// Create stores rec and returns it with its generated id.
func (r *Resource[R]) Create(ctx context.Context, rec R) (*R, error) {
	return r.item(ctx, http.MethodPost, r.path, rec)
}

// Update applies patch to the record with the given id.
func (r *Resource[R]) Update(ctx context.Context, id string, patch map[string]any) (*R, error) {
	return r.item(ctx, http.MethodPatch, r.itemPath(id), patch)
}

// Delete removes the record with the given id.
func (r *Resource[R]) Delete(ctx context.Context, id string) error {
	_, err := r.c.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil)
	return err
}

// Action posts body to /<id>/<action> and returns the updated record.
func (r *Resource[R]) Action(ctx context.Context, id, action string, body any) (*R, error) {
	return r.item(ctx, http.MethodPost, r.itemPath(id)+"/"+action, body)
}

func (r *Resource[R]) item(ctx context.Context, method, path string, body any) (*R, error) {
	var out types.ItemBody[*R]
	if _, err := r.c.do(ctx, method, path, nil, body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Teams() *Resource[types.Team] {
	return NewResource[types.Team](c, "teams")
}

func (c *Client) Projects() *Resource[types.Project] {
	return NewResource[types.Project](c, "projects")
}

func (c *Client) MeetingRooms() *Resource[types.MeetingRoom] {
	return NewResource[types.MeetingRoom](c, "meeting-rooms")
}

func (c *Client) RoomBookings() *Resource[types.RoomBooking] {
	return NewResource[types.RoomBooking](c, "room-bookings")
}

func (c *Client) Equipment() *Resource[types.Equipment] {
	return NewResource[types.Equipment](c, "equipment")
}

func (c *Client) EquipmentBookings() *Resource[types.EquipmentBooking] {
	return NewResource[types.EquipmentBooking](c, "equipment-bookings")
}

func (c *Client) SafetyChecks() *Resource[types.SafetyCheck] {
	return NewResource[types.SafetyCheck](c, "safety-checks")
}

func (c *Client) BusinessTravel() *Resource[types.TravelRequest] {
	return NewResource[types.TravelRequest](c, "business-travel")
}

func (c *Client) ChatChannels() *Resource[types.ChatChannel] {
	return NewResource[types.ChatChannel](c, "chat-channels")
}

func (c *Client) ChatMessages() *Resource[types.ChatMessage] {
	return NewResource[types.ChatMessage](c, "chat-messages")
}

func (c *Client) Requests() *Resource[types.Request] {
	return NewResource[types.Request](c, "requests")
}
