package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"volunteerhub/database"
	"volunteerhub/models"
)

// POST /organizations - new organizations start unapproved; an admin signs
// off before the org can gate visibility.
func CreateOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Organization name is required", http.StatusBadRequest)
		return
	}
	if !models.ValidOrgTypes[req.OrgType] {
		http.Error(w, "Invalid org_type", http.StatusBadRequest)
		return
	}

	now := time.Now()
	result, err := database.DB.Exec(`
		INSERT INTO organizations (name, org_type, description, approved, host_id, created_at)
		VALUES (?, ?, ?, FALSE, ?, ?)
	`, req.Name, req.OrgType, req.Description, userID, now)
	if err != nil {
		http.Error(w, "Failed to create organization: "+err.Error(), http.StatusInternalServerError)
		log.Printf("Error inserting organization: %v", err)
		return
	}
	orgID, _ := result.LastInsertId()

	// The creator is a member from the start.
	_, err = database.DB.Exec(`
		INSERT INTO organization_members (org_id, user_id, joined_at) VALUES (?, ?, ?)
	`, orgID, userID, now)
	if err != nil {
		log.Printf("Error adding creator %d to organization %d: %v", userID, orgID, err)
	}

	log.Printf("User %d created organization %d (%s)", userID, orgID, req.Name)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.Organization{
		ID:          orgID,
		Name:        req.Name,
		OrgType:     req.OrgType,
		Description: req.Description,
		Approved:    false,
		HostID:      userID,
		CreatedAt:   now,
	})
}

// GET /organizations - approved organizations, plus the viewer's own
// unapproved ones. Admins see everything.
func ListOrganizationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	viewer, err := loadViewer(userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	query := `
		SELECT o.id, o.name, o.org_type, o.description, o.approved, o.host_id, o.created_at,
		       (SELECT COUNT(*) FROM organization_members m WHERE m.org_id = o.id),
		       EXISTS(SELECT 1 FROM organization_members m WHERE m.org_id = o.id AND m.user_id = ?)
		FROM organizations o
	`
	args := []interface{}{userID}
	if !viewer.IsAdmin {
		query += " WHERE o.approved = TRUE OR o.host_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY o.name ASC"

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	orgs := []models.OrganizationResponse{}
	for rows.Next() {
		var o models.OrganizationResponse
		if err := rows.Scan(&o.ID, &o.Name, &o.OrgType, &o.Description, &o.Approved, &o.HostID, &o.CreatedAt, &o.MemberCount, &o.IsMember); err != nil {
			continue
		}
		orgs = append(orgs, o)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orgs)
}

// GET /organizations/{orgID}/members
func ListOrganizationMembersHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	orgID, err := strconv.ParseInt(r.PathValue("orgID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid organization ID", http.StatusBadRequest)
		return
	}

	var exists bool
	err = database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM organizations WHERE id = ?)", orgID).Scan(&exists)
	if err != nil || !exists {
		http.Error(w, "Organization not found", http.StatusNotFound)
		return
	}

	rows, err := database.DB.Query(`
		SELECT u.id, u.username, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), COALESCE(u.avatar, '')
		FROM organization_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.org_id = ?
		ORDER BY u.username ASC
	`, orgID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	members := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Avatar); err != nil {
			continue
		}
		members = append(members, u)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

// POST /organizations/{orgID}/join
func JoinOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	orgID, err := strconv.ParseInt(r.PathValue("orgID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid organization ID", http.StatusBadRequest)
		return
	}

	var approved bool
	err = database.DB.QueryRow("SELECT approved FROM organizations WHERE id = ?", orgID).Scan(&approved)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Organization not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !approved {
		http.Error(w, "Organization is not approved yet", http.StatusForbidden)
		return
	}

	_, err = database.DB.Exec(`
		INSERT INTO organization_members (org_id, user_id, joined_at) VALUES (?, ?, ?)
	`, orgID, userID, time.Now())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			http.Error(w, "Already a member", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to join organization: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("User %d joined organization %d", userID, orgID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"status": "joined"})
}

// DELETE /organizations/{orgID}/membership - leaving changes which
// restricted opportunities the user can see from the next request on.
func LeaveOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	orgID, err := strconv.ParseInt(r.PathValue("orgID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid organization ID", http.StatusBadRequest)
		return
	}

	var hostID int64
	err = database.DB.QueryRow("SELECT host_id FROM organizations WHERE id = ?", orgID).Scan(&hostID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Organization not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if hostID == userID {
		http.Error(w, "The organization host cannot leave", http.StatusForbidden)
		return
	}

	res, err := database.DB.Exec(`
		DELETE FROM organization_members WHERE org_id = ? AND user_id = ?
	`, orgID, userID)
	if err != nil {
		http.Error(w, "Failed to leave organization: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "Not a member", http.StatusNotFound)
		return
	}

	log.Printf("User %d left organization %d", userID, orgID)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "left"})
}

// PATCH /organizations/{orgID}/approve - admin only
func ApproveOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	viewer, err := loadViewer(userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !viewer.IsAdmin {
		http.Error(w, "Admin access required", http.StatusForbidden)
		return
	}

	orgID, err := strconv.ParseInt(r.PathValue("orgID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid organization ID", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec("UPDATE organizations SET approved = TRUE WHERE id = ?", orgID)
	if err != nil {
		http.Error(w, "Failed to approve organization: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "Organization not found", http.StatusNotFound)
		return
	}

	log.Printf("Admin %d approved organization %d", userID, orgID)
	go BroadcastToOrgMembers(orgID, "organization_approved", map[string]interface{}{"org_id": orgID}, nil)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "approved"})
}
