package services

import (
	"context"
	"time"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// SafetyCheckInterval is how far ahead the next inspection is scheduled
// after a check completes.
const SafetyCheckInterval = 90 * 24 * time.Hour

// Equipment manages the equipment collection.
type Equipment struct {
	*Resource[types.Equipment]
	checks *SafetyChecks
}

// NewEquipment creates the equipment service. Completed inspections are
// recorded through checks.
func NewEquipment(db *data.DB, checks *SafetyChecks) *Equipment {
	return &Equipment{
		Resource: newResource(db, "equipment", "equipment", sampleEquipment,
			func(e *types.Equipment) string { return e.ID },
			func(e *types.Equipment) {
				e.Status = orDefault(e.Status, "available")
				e.Condition = orDefault(e.Condition, "good")
			},
		),
		checks: checks,
	}
}

// CompleteSafetyCheck records a completed inspection of the equipment and
// moves its inspection dates forward. It fails without touching the
// equipment when the inspection record cannot be written.
func (s *Equipment) CompleteSafetyCheck(ctx context.Context, equipmentID string, res types.SafetyCheckResult) types.Response[*types.Equipment] {
	now := s.now()
	check := s.checks.Create(ctx, types.SafetyCheck{
		EquipmentID: equipmentID,
		Inspector:   res.Inspector,
		Status:      "completed",
		Result:      res.Result,
		Notes:       res.Notes,
		CompletedAt: now,
	})
	if !check.Success {
		return types.Response[*types.Equipment]{Error: check.Error, Err: check.Err}
	}
	return s.Update(ctx, equipmentID, data.Patch{
		"last_safety_check": now,
		"next_safety_check": now.Add(SafetyCheckInterval),
	})
}

// EquipmentBookings manages the equipment_bookings collection.
type EquipmentBookings struct {
	*Resource[types.EquipmentBooking]
}

// NewEquipmentBookings creates the equipment bookings service.
func NewEquipmentBookings(db *data.DB) *EquipmentBookings {
	return &EquipmentBookings{newResource(db, "equipment_bookings", "eqbooking", sampleEquipmentBookings,
		func(b *types.EquipmentBooking) string { return b.ID },
		func(b *types.EquipmentBooking) {
			b.Status = orDefault(b.Status, "active")
		},
	)}
}

// Return marks borrowed equipment as returned. Condition defaults to "good".
func (s *EquipmentBookings) Return(ctx context.Context, id, condition, notes string) types.Response[*types.EquipmentBooking] {
	return s.Update(ctx, id, data.Patch{
		"status":           "returned",
		"return_condition": orDefault(condition, "good"),
		"return_notes":     notes,
		"returned_at":      s.now(),
	})
}

// SafetyChecks manages the safety_checks collection.
type SafetyChecks struct {
	*Resource[types.SafetyCheck]
}

// NewSafetyChecks creates the safety checks service.
func NewSafetyChecks(db *data.DB) *SafetyChecks {
	return &SafetyChecks{newResource(db, "safety_checks", "check", sampleSafetyChecks,
		func(c *types.SafetyCheck) string { return c.ID },
		func(c *types.SafetyCheck) {
			c.Status = orDefault(c.Status, "scheduled")
		},
	)}
}

// Complete records the outcome of a scheduled check.
func (s *SafetyChecks) Complete(ctx context.Context, id string, res types.SafetyCheckResult) types.Response[*types.SafetyCheck] {
	return s.Update(ctx, id, data.Patch{
		"status":       "completed",
		"result":       res.Result,
		"inspector":    res.Inspector,
		"notes":        res.Notes,
		"completed_at": s.now(),
	})
}

var sampleEquipment = []types.Equipment{
	{
		ID:              "equipment_1",
		Name:            "Dell Latitude 7440",
		Category:        "laptop",
		SerialNumber:    "DL7440-0192",
		Location:        "IT storeroom",
		Status:          "available",
		Condition:       "good",
		LastSafetyCheck: mustTime("2024-01-15T10:00:00Z"),
		NextSafetyCheck: mustTime("2024-04-14T10:00:00Z"),
		CreatedAt:       mustTime("2023-11-01T09:00:00Z"),
	},
	{
		ID:              "equipment_2",
		Name:            "Epson EB-L200F projector",
		Category:        "av",
		SerialNumber:    "EP-L200F-77",
		Location:        "Facilities desk",
		Status:          "in_use",
		Condition:       "good",
		LastSafetyCheck: mustTime("2023-12-05T10:00:00Z"),
		NextSafetyCheck: mustTime("2024-03-04T10:00:00Z"),
		CreatedAt:       mustTime("2023-09-18T09:00:00Z"),
	},
	{
		ID:           "equipment_3",
		Name:         "Cordless drill",
		Category:     "tools",
		SerialNumber: "BD-CD-3310",
		Location:     "Maintenance room",
		Status:       "maintenance",
		Condition:    "fair",
		CreatedAt:    mustTime("2023-07-03T09:00:00Z"),
	},
}

var sampleEquipmentBookings = []types.EquipmentBooking{
	{
		ID:           "eqbooking_1",
		EquipmentID:  "equipment_2",
		EmployeeName: "Priya Patel",
		Purpose:      "Client workshop",
		StartDate:    "2024-03-18",
		EndDate:      "2024-03-22",
		Status:       "active",
		CreatedAt:    mustTime("2024-03-15T12:00:00Z"),
	},
	{
		ID:              "eqbooking_2",
		EquipmentID:     "equipment_1",
		EmployeeName:    "Tom Becker",
		Purpose:         "Remote audit",
		StartDate:       "2024-02-05",
		EndDate:         "2024-02-09",
		Status:          "returned",
		ReturnCondition: "good",
		ReturnedAt:      mustTime("2024-02-09T17:00:00Z"),
		CreatedAt:       mustTime("2024-02-01T12:00:00Z"),
	},
}

var sampleSafetyChecks = []types.SafetyCheck{
	{
		ID:           "check_1",
		EquipmentID:  "equipment_2",
		Inspector:    "Facilities",
		ScheduledFor: "2024-03-04",
		Status:       "scheduled",
		CreatedAt:    mustTime("2024-02-20T08:00:00Z"),
	},
	{
		ID:           "check_2",
		EquipmentID:  "equipment_1",
		Inspector:    "Jordan Lee",
		ScheduledFor: "2024-01-15",
		Status:       "completed",
		Result:       "pass",
		CompletedAt:  mustTime("2024-01-15T10:00:00Z"),
		CreatedAt:    mustTime("2024-01-02T08:00:00Z"),
	},
}
