package services

import (
	"context"

	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// Projects manages the projects collection.
type Projects struct {
	*Resource[types.Project]
}

// NewProjects creates the projects service.
func NewProjects(db *data.DB) *Projects {
	return &Projects{newResource(db, "projects", "project", sampleProjects,
		func(p *types.Project) string { return p.ID },
		func(p *types.Project) {
			p.Status = orDefault(p.Status, "planning")
			p.Priority = orDefault(p.Priority, "medium")
		},
	)}
}

// Complete marks a project completed at full progress.
func (s *Projects) Complete(ctx context.Context, id string) types.Response[*types.Project] {
	return s.Update(ctx, id, data.Patch{
		"status":       "completed",
		"progress":     100,
		"completed_at": s.now(),
	})
}

var sampleProjects = []types.Project{
	{
		ID:          "project_1",
		Name:        "Self-service onboarding portal",
		Description: "Let new hires complete paperwork before day one",
		TeamID:      "team_2",
		Owner:       "Marcus Johnson",
		Status:      "active",
		Priority:    "high",
		Progress:    65,
		Budget:      48000,
		StartDate:   "2024-02-01",
		DueDate:     "2024-06-30",
		CreatedAt:   mustTime("2024-01-20T10:00:00Z"),
	},
	{
		ID:          "project_2",
		Name:        "CI pipeline migration",
		Description: "Move builds to the shared runner fleet",
		TeamID:      "team_1",
		Owner:       "Sarah Chen",
		Status:      "planning",
		Priority:    "medium",
		Progress:    10,
		Budget:      15000,
		StartDate:   "2024-04-01",
		DueDate:     "2024-08-15",
		CreatedAt:   mustTime("2024-03-02T10:00:00Z"),
	},
	{
		ID:          "project_3",
		Name:        "Spring hiring campaign",
		Description: "Employer branding push for graduate roles",
		TeamID:      "team_3",
		Owner:       "Priya Patel",
		Status:      "completed",
		Priority:    "medium",
		Progress:    100,
		Budget:      22000,
		StartDate:   "2024-01-10",
		DueDate:     "2024-03-31",
		CompletedAt: mustTime("2024-03-28T16:00:00Z"),
		CreatedAt:   mustTime("2024-01-05T10:00:00Z"),
	},
}
