package models

import "time"

// Organization types form a closed set, enforced both here and by the schema
// CHECK constraint.
var ValidOrgTypes = map[string]bool{
	"education":   true,
	"environment": true,
	"health":      true,
	"animals":     true,
	"community":   true,
	"other":       true,
}

type Organization struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	OrgType     string    `json:"org_type"`
	Description string    `json:"description"`
	Approved    bool      `json:"approved"`
	HostID      int64     `json:"host_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrganizationResponse adds viewer-relative and aggregate fields for lists.
type OrganizationResponse struct {
	Organization
	MemberCount int  `json:"member_count"`
	IsMember    bool `json:"is_member"`
}

// CreateOrganizationRequest is the request body for creating an organization.
type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	OrgType     string `json:"org_type"`
	Description string `json:"description"`
}
