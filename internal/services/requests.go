package services

import (
	"context"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// Requests manages the requests collection.
type Requests struct {
	*Resource[types.Request]
}

// NewRequests creates the employee requests service.
func NewRequests(db *data.DB) *Requests {
	return &Requests{newResource(db, "requests", "request", sampleRequests,
		func(r *types.Request) string { return r.ID },
		func(r *types.Request) {
			r.Status = orDefault(r.Status, "pending")
			r.Priority = orDefault(r.Priority, "medium")
		},
	)}
}

func (s *Requests) Approve(ctx context.Context, id, approvedBy string) types.Response[*types.Request] {
	return s.Update(ctx, id, data.Patch{
		"status":      "approved",
		"approved_by": approvedBy,
		"approved_at": s.now(),
	})
}

func (s *Requests) Reject(ctx context.Context, id, reason string) types.Response[*types.Request] {
	return s.Update(ctx, id, data.Patch{
		"status":           "rejected",
		"rejection_reason": reason,
	})
}

// Assign hands the request to someone and moves it to in_progress.
func (s *Requests) Assign(ctx context.Context, id, assignee string) types.Response[*types.Request] {
	return s.Update(ctx, id, data.Patch{
		"assigned_to": assignee,
		"status":      "in_progress",
	})
}

func (s *Requests) Resolve(ctx context.Context, id, resolution string) types.Response[*types.Request] {
	return s.Update(ctx, id, data.Patch{
		"status":      "resolved",
		"resolution":  resolution,
		"resolved_at": s.now(),
	})
}

// SetStatus sets an arbitrary status.
func (s *Requests) SetStatus(ctx context.Context, id, status string) types.Response[*types.Request] {
	return s.Update(ctx, id, data.Patch{"status": status})
}

var sampleRequests = []types.Request{
	{
		ID:            "request_1",
		Title:         "Second monitor",
		Description:   "Requesting a 27 inch monitor for the home office",
		Category:      "equipment",
		RequesterID:   "emp_131",
		RequesterName: "Tom Becker",
		Priority:      "low",
		Status:        "pending",
		CreatedAt:     mustTime("2024-03-04T10:15:00Z"),
	},
	{
		ID:            "request_2",
		Title:         "Parental leave documents",
		Description:   "Need the leave policy and forms for June",
		Category:      "hr",
		RequesterID:   "emp_104",
		RequesterName: "Sarah Chen",
		Priority:      "medium",
		Status:        "in_progress",
		AssignedTo:    "Marcus Johnson",
		CreatedAt:     mustTime("2024-02-26T13:40:00Z"),
	},
	{
		ID:            "request_3",
		Title:         "VPN access",
		Description:   "Contractor needs VPN access for three months",
		Category:      "it",
		RequesterID:   "emp_087",
		RequesterName: "Marcus Johnson",
		Priority:      "high",
		Status:        "resolved",
		Resolution:    "Access granted until end of June",
		ResolvedAt:    mustTime("2024-02-20T16:00:00Z"),
		CreatedAt:     mustTime("2024-02-19T09:00:00Z"),
	},
}
