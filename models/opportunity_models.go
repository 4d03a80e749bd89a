package models

import (
	"time"

	"volunteerhub/eligibility"
)

// Opportunity is a single scheduled volunteer event. Date and start time are
// wall-clock values in US Eastern regardless of where the viewer is.
type Opportunity struct {
	ID              int64     `json:"id"`
	MultiID         *int64    `json:"multi_id,omitempty"`
	HostID          int64     `json:"host_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Address         string    `json:"address"`
	ImagePath       string    `json:"image_path,omitempty"`
	EventDate       string    `json:"event_date"` // "2006-01-02"
	StartTime       string    `json:"start_time"` // "15:04"
	DurationMinutes int       `json:"duration_minutes"`
	TotalSlots      int       `json:"total_slots"`
	Approved        bool      `json:"approved"`
	VisibilityOrgs  []int64   `json:"visibility_orgs,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Signup is one roster record: a user's participation in an opportunity.
type Signup struct {
	ID            int64     `json:"id"`
	OpportunityID int64     `json:"opportunity_id"`
	UserID        int64     `json:"user_id"`
	Registered    bool      `json:"registered"`
	Attended      bool      `json:"attended"`
	CreatedAt     time.Time `json:"created_at"`
}

// OpportunityView is an opportunity decorated with everything the front end
// needs to render it for one viewer: the eligibility verdict, the roster, and
// the co-attending organization ranking.
type OpportunityView struct {
	Opportunity
	Verdict          eligibility.Verdict       `json:"verdict"`
	Participants     []eligibility.Participant `json:"participants"`
	HostName         string                    `json:"host_name"`
	TopOrganizations []eligibility.OrgCount    `json:"top_organizations,omitempty"`
}

// CreateOpportunityRequest is the request body for hosting a new opportunity.
type CreateOpportunityRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Address         string  `json:"address"`
	ImagePath       string  `json:"image_path"`
	EventDate       string  `json:"event_date"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
	TotalSlots      int     `json:"total_slots"`
	VisibilityOrgs  []int64 `json:"visibility_orgs"`
}

// MultiOpportunity is a recurring series template. Its occurrences are
// ordinary opportunities pointing back at it through multi_id.
type MultiOpportunity struct {
	ID          int64     `json:"id"`
	HostID      int64     `json:"host_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	ImagePath   string    `json:"image_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Announcement is a host message to the registered participants of an
// opportunity.
type Announcement struct {
	ID            int64     `json:"id"`
	OpportunityID int64     `json:"opportunity_id"`
	AuthorID      int64     `json:"author_id"`
	AuthorName    string    `json:"author_name,omitempty"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}
