package services

import (
	"context"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// BusinessTravel manages the business_travel collection.
type BusinessTravel struct {
	*Resource[types.TravelRequest]
}

// NewBusinessTravel creates the business travel service.
func NewBusinessTravel(db *data.DB) *BusinessTravel {
	return &BusinessTravel{newResource(db, "business_travel", "travel", sampleTravel,
		func(t *types.TravelRequest) string { return t.ID },
		func(t *types.TravelRequest) {
			t.Status = orDefault(t.Status, "pending")
		},
	)}
}

func (s *BusinessTravel) Approve(ctx context.Context, id, approvedBy string) types.Response[*types.TravelRequest] {
	return s.Update(ctx, id, data.Patch{
		"status":      "approved",
		"approved_by": approvedBy,
		"approved_at": s.now(),
	})
}

func (s *BusinessTravel) Reject(ctx context.Context, id, rejectedBy, reason string) types.Response[*types.TravelRequest] {
	return s.Update(ctx, id, data.Patch{
		"status":           "rejected",
		"rejected_by":      rejectedBy,
		"rejection_reason": reason,
		"rejected_at":      s.now(),
	})
}

func (s *BusinessTravel) Complete(ctx context.Context, id string) types.Response[*types.TravelRequest] {
	return s.Update(ctx, id, data.Patch{"status": "completed"})
}

var sampleTravel = []types.TravelRequest{
	{
		ID:            "travel_1",
		EmployeeID:    "emp_104",
		EmployeeName:  "Sarah Chen",
		Destination:   "Berlin",
		Purpose:       "Infrastructure conference",
		DepartureDate: "2024-05-14",
		ReturnDate:    "2024-05-17",
		EstimatedCost: 1850,
		Status:        "pending",
		CreatedAt:     mustTime("2024-03-10T11:00:00Z"),
	},
	{
		ID:            "travel_2",
		EmployeeID:    "emp_087",
		EmployeeName:  "Marcus Johnson",
		Destination:   "Lisbon",
		Purpose:       "Regional HR summit",
		DepartureDate: "2024-04-08",
		ReturnDate:    "2024-04-10",
		EstimatedCost: 1200,
		Status:        "approved",
		ApprovedBy:    "Elena Ruiz",
		ApprovedAt:    mustTime("2024-03-05T15:30:00Z"),
		CreatedAt:     mustTime("2024-02-28T09:00:00Z"),
	},
	{
		ID:              "travel_3",
		EmployeeID:      "emp_131",
		EmployeeName:    "Tom Becker",
		Destination:     "New York",
		Purpose:         "Vendor visit",
		DepartureDate:   "2024-03-20",
		ReturnDate:      "2024-03-24",
		EstimatedCost:   4300,
		Status:          "rejected",
		RejectedBy:      "Elena Ruiz",
		RejectionReason: "Meeting can be held remotely",
		RejectedAt:      mustTime("2024-03-01T10:00:00Z"),
		CreatedAt:       mustTime("2024-02-25T09:00:00Z"),
	},
}
