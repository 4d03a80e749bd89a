package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"volunteerhub/database"
	"volunteerhub/models"
)

// WhoAmIHandler returns the authenticated user's basic identity.
func WhoAmIHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var resp models.UserResponse
	err := database.DB.QueryRow(`
		SELECT id, username, email, is_admin FROM users WHERE id = ?
	`, userID).Scan(&resp.ID, &resp.Username, &resp.Email, &resp.IsAdmin)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetProfileHandler returns the full profile for a user: identity, derived
// points, organization memberships, friends, and hosting/attendance counts.
// Points are the summed durations of attended events, computed on every read.
func GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	viewerID := currentUserID(r)
	if viewerID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profileID, err := strconv.ParseInt(r.PathValue("userID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var user models.User
	err = database.DB.QueryRow(`
		SELECT id, username, email, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(avatar, ''), COALESCE(phone, ''), COALESCE(bio, ''), is_admin, created_at
		FROM users WHERE id = ?
	`, profileID).Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.Avatar, &user.Phone, &user.Bio, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := models.ProfileResponse{
		User:      user,
		OrgIDs:    []int64{},
		FriendIDs: []int64{},
	}

	err = database.DB.QueryRow(`
		SELECT COALESCE(SUM(o.duration_minutes), 0)
		FROM signups s
		JOIN opportunities o ON o.id = s.opportunity_id
		WHERE s.user_id = ? AND s.attended = TRUE
	`, profileID).Scan(&resp.Points)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	err = database.DB.QueryRow(`
		SELECT COUNT(*) FROM signups WHERE user_id = ? AND attended = TRUE
	`, profileID).Scan(&resp.EventsAttended)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	err = database.DB.QueryRow(`
		SELECT COUNT(*) FROM opportunities WHERE host_id = ?
	`, profileID).Scan(&resp.EventsHosted)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	orgRows, err := database.DB.Query(`
		SELECT org_id FROM organization_members WHERE user_id = ? ORDER BY org_id ASC
	`, profileID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer orgRows.Close()
	for orgRows.Next() {
		var orgID int64
		if err := orgRows.Scan(&orgID); err == nil {
			resp.OrgIDs = append(resp.OrgIDs, orgID)
		}
	}

	friendRows, err := database.DB.Query(`
		SELECT CASE WHEN requester_id = ? THEN addressee_id ELSE requester_id END
		FROM friendships
		WHERE status = 'accepted' AND (requester_id = ? OR addressee_id = ?)
	`, profileID, profileID, profileID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer friendRows.Close()
	for friendRows.Next() {
		var friendID int64
		if err := friendRows.Scan(&friendID); err == nil {
			resp.FriendIDs = append(resp.FriendIDs, friendID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
