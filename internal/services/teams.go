package services

import (
	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// Teams manages the teams collection.
type Teams struct {
	*Resource[types.Team]
}

// NewTeams creates the teams service.
func NewTeams(db *data.DB) *Teams {
	return &Teams{newResource(db, "teams", "team", sampleTeams,
		func(t *types.Team) string { return t.ID },
		func(t *types.Team) {
			t.Status = orDefault(t.Status, "active")
		},
	)}
}

var sampleTeams = []types.Team{
	{
		ID:          "team_1",
		Name:        "Platform Engineering",
		Description: "Internal tooling, CI and developer experience",
		Department:  "Engineering",
		LeadName:    "Sarah Chen",
		MemberCount: 8,
		Status:      "active",
		CreatedAt:   mustTime("2024-01-08T09:00:00Z"),
	},
	{
		ID:          "team_2",
		Name:        "People Operations",
		Description: "Onboarding, benefits and employee relations",
		Department:  "Human Resources",
		LeadName:    "Marcus Johnson",
		MemberCount: 5,
		Status:      "active",
		CreatedAt:   mustTime("2024-01-15T09:00:00Z"),
	},
	{
		ID:          "team_3",
		Name:        "Growth Marketing",
		Description: "Campaigns, lifecycle and analytics",
		Department:  "Marketing",
		LeadName:    "Priya Patel",
		MemberCount: 6,
		Status:      "active",
		CreatedAt:   mustTime("2024-02-01T09:00:00Z"),
	},
	{
		ID:          "team_4",
		Name:        "Legacy Billing",
		Description: "Maintenance of the retired billing system",
		Department:  "Finance",
		LeadName:    "Tom Becker",
		MemberCount: 2,
		Status:      "inactive",
		CreatedAt:   mustTime("2023-06-12T09:00:00Z"),
	},
}
