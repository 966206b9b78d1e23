package services

import (
	"context"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/internal/query"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// MeetingRooms manages the meeting_rooms collection.
type MeetingRooms struct {
	*Resource[types.MeetingRoom]
}

// NewMeetingRooms creates the meeting rooms service.
func NewMeetingRooms(db *data.DB) *MeetingRooms {
	return &MeetingRooms{newResource(db, "meeting_rooms", "room", sampleRooms,
		func(r *types.MeetingRoom) string { return r.ID },
		func(r *types.MeetingRoom) {
			r.Status = orDefault(r.Status, "available")
		},
	)}
}

// SetStatus changes a room's status, for example to "maintenance".
func (s *MeetingRooms) SetStatus(ctx context.Context, id, status string) types.Response[*types.MeetingRoom] {
	return s.Update(ctx, id, data.Patch{"status": status})
}

// RoomBookings manages the room_bookings collection.
type RoomBookings struct {
	*Resource[types.RoomBooking]
}

// NewRoomBookings creates the room bookings service.
func NewRoomBookings(db *data.DB) *RoomBookings {
	return &RoomBookings{newResource(db, "room_bookings", "booking", sampleRoomBookings,
		func(b *types.RoomBooking) string { return b.ID },
		func(b *types.RoomBooking) {
			b.Status = orDefault(b.Status, "confirmed")
		},
	)}
}

// ListByRoom returns the bookings of one room, earliest first.
func (s *RoomBookings) ListByRoom(ctx context.Context, roomID string, p *query.Pagination) types.Response[[]types.RoomBooking] {
	page := query.Pagination{OrderBy: "start_time", Ascending: true}
	if p != nil {
		page.Page, page.Limit = p.Page, p.Limit
	}
	var fallback []types.RoomBooking
	for _, b := range s.samples {
		if b.RoomID == roomID {
			fallback = append(fallback, b)
		}
	}
	return s.table.List(ctx, &page, []query.Filter{query.Eq("room_id", roomID)}, fallback)
}

// Cancel cancels a booking. An empty reason is recorded as cancelled by the
// organizer.
func (s *RoomBookings) Cancel(ctx context.Context, id, reason string) types.Response[*types.RoomBooking] {
	return s.Update(ctx, id, data.Patch{
		"status":              "cancelled",
		"cancellation_reason": orDefault(reason, "Cancelled by organizer"),
		"cancelled_at":        s.now(),
	})
}

var sampleRooms = []types.MeetingRoom{
	{
		ID:        "room_1",
		Name:      "Aurora",
		Location:  "HQ North Wing",
		Floor:     2,
		Capacity:  12,
		Amenities: "projector,whiteboard,video conferencing",
		Status:    "available",
		CreatedAt: mustTime("2024-01-02T08:00:00Z"),
	},
	{
		ID:        "room_2",
		Name:      "Borealis",
		Location:  "HQ North Wing",
		Floor:     2,
		Capacity:  6,
		Amenities: "tv screen,whiteboard",
		Status:    "occupied",
		CreatedAt: mustTime("2024-01-02T08:05:00Z"),
	},
	{
		ID:        "room_3",
		Name:      "Cirrus",
		Location:  "HQ South Wing",
		Floor:     4,
		Capacity:  20,
		Amenities: "projector,video conferencing,catering",
		Status:    "available",
		CreatedAt: mustTime("2024-01-02T08:10:00Z"),
	},
	{
		ID:        "room_4",
		Name:      "Dune",
		Location:  "Annex",
		Floor:     1,
		Capacity:  4,
		Amenities: "phone",
		Status:    "maintenance",
		CreatedAt: mustTime("2024-01-02T08:15:00Z"),
	},
}

var sampleRoomBookings = []types.RoomBooking{
	{
		ID:        "booking_1",
		RoomID:    "room_1",
		Title:     "Quarterly planning",
		Organizer: "Sarah Chen",
		Attendees: 10,
		StartTime: mustTime("2024-04-02T09:00:00Z"),
		EndTime:   mustTime("2024-04-02T11:00:00Z"),
		Status:    "confirmed",
		CreatedAt: mustTime("2024-03-20T14:00:00Z"),
	},
	{
		ID:        "booking_2",
		RoomID:    "room_3",
		Title:     "New hire orientation",
		Organizer: "Marcus Johnson",
		Attendees: 15,
		StartTime: mustTime("2024-04-03T13:00:00Z"),
		EndTime:   mustTime("2024-04-03T16:00:00Z"),
		Status:    "confirmed",
		CreatedAt: mustTime("2024-03-21T09:30:00Z"),
	},
	{
		ID:                 "booking_3",
		RoomID:             "room_2",
		Title:              "Vendor call",
		Organizer:          "Tom Becker",
		Attendees:          3,
		StartTime:          mustTime("2024-04-01T15:00:00Z"),
		EndTime:            mustTime("2024-04-01T15:30:00Z"),
		Status:             "cancelled",
		CancellationReason: "Cancelled by organizer",
		CancelledAt:        mustTime("2024-03-30T10:00:00Z"),
		CreatedAt:          mustTime("2024-03-25T11:00:00Z"),
	},
}
