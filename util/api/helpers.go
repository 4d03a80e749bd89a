package api

import (
	"database/sql"
	"net/http"

	"volunteerhub/database"
	"volunteerhub/eligibility"
	"volunteerhub/middleware"
	"volunteerhub/models"
)

// currentUserID pulls the authenticated user id placed in the request context
// by the auth middleware. 0 means not authenticated.
func currentUserID(r *http.Request) int64 {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		return 0
	}
	return userID
}

// loadViewer assembles the viewer snapshot the eligibility engine consumes:
// user id, organization memberships, admin flag.
func loadViewer(userID int64) (eligibility.Viewer, error) {
	viewer := eligibility.Viewer{UserID: userID}

	err := database.DB.QueryRow("SELECT is_admin FROM users WHERE id = ?", userID).Scan(&viewer.IsAdmin)
	if err != nil {
		return viewer, err
	}

	rows, err := database.DB.Query("SELECT org_id FROM organization_members WHERE user_id = ?", userID)
	if err != nil {
		return viewer, err
	}
	defer rows.Close()
	for rows.Next() {
		var orgID int64
		if err := rows.Scan(&orgID); err != nil {
			return viewer, err
		}
		viewer.OrgIDs = append(viewer.OrgIDs, orgID)
	}
	return viewer, rows.Err()
}

// loadOpportunity fetches one opportunity row plus its visibility set.
func loadOpportunity(id int64) (models.Opportunity, error) {
	var opp models.Opportunity
	var multiID sql.NullInt64
	err := database.DB.QueryRow(`
		SELECT id, multi_id, host_id, name, description, address, COALESCE(image_path, ''),
		       event_date, start_time, duration_minutes, total_slots, approved, created_at
		FROM opportunities WHERE id = ?
	`, id).Scan(&opp.ID, &multiID, &opp.HostID, &opp.Name, &opp.Description, &opp.Address, &opp.ImagePath,
		&opp.EventDate, &opp.StartTime, &opp.DurationMinutes, &opp.TotalSlots, &opp.Approved, &opp.CreatedAt)
	if err != nil {
		return opp, err
	}
	if multiID.Valid {
		opp.MultiID = &multiID.Int64
	}

	rows, err := database.DB.Query("SELECT org_id FROM opportunity_visibility WHERE opportunity_id = ?", id)
	if err != nil {
		return opp, err
	}
	defer rows.Close()
	for rows.Next() {
		var orgID int64
		if err := rows.Scan(&orgID); err != nil {
			return opp, err
		}
		opp.VisibilityOrgs = append(opp.VisibilityOrgs, orgID)
	}
	return opp, rows.Err()
}

// loadRoster fetches the participation roster of an opportunity, with each
// participant's organization memberships attached for the co-attending
// organization aggregate.
func loadRoster(opportunityID int64) ([]eligibility.Participant, error) {
	rows, err := database.DB.Query(`
		SELECT s.user_id, u.username, COALESCE(u.avatar, ''), s.registered, s.attended
		FROM signups s
		JOIN users u ON u.id = s.user_id
		WHERE s.opportunity_id = ?
		ORDER BY s.created_at ASC, s.id ASC
	`, opportunityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []eligibility.Participant
	for rows.Next() {
		var p eligibility.Participant
		if err := rows.Scan(&p.UserID, &p.Name, &p.ImageURL, &p.Registered, &p.Attended); err != nil {
			return nil, err
		}
		roster = append(roster, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roster {
		orgRows, err := database.DB.Query("SELECT org_id FROM organization_members WHERE user_id = ?", roster[i].UserID)
		if err != nil {
			return nil, err
		}
		for orgRows.Next() {
			var orgID int64
			if err := orgRows.Scan(&orgID); err != nil {
				orgRows.Close()
				return nil, err
			}
			roster[i].OrgIDs = append(roster[i].OrgIDs, orgID)
		}
		orgRows.Close()
	}
	return roster, nil
}

// snapshot converts a stored opportunity plus roster into the immutable
// snapshot the eligibility engine evaluates.
func snapshot(opp models.Opportunity, roster []eligibility.Participant) eligibility.Opportunity {
	return eligibility.Opportunity{
		ID:              opp.ID,
		Date:            opp.EventDate,
		StartTime:       opp.StartTime,
		DurationMinutes: opp.DurationMinutes,
		TotalSlots:      opp.TotalSlots,
		HostID:          opp.HostID,
		VisibilityOrgs:  opp.VisibilityOrgs,
		Roster:          roster,
	}
}
