package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"volunteerhub/database"
	"volunteerhub/eligibility"
	"volunteerhub/metrics"
	"volunteerhub/models"
)

// POST /opportunities - host a new opportunity
func CreateOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.EventDate == "" || req.StartTime == "" {
		http.Error(w, "Name, event_date and start_time are required", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes <= 0 || req.TotalSlots <= 0 {
		http.Error(w, "duration_minutes and total_slots must be positive", http.StatusBadRequest)
		return
	}
	// Validate the wall-clock fields the same way the engine will read them.
	if _, err := eligibility.EvaluateWindow(req.EventDate, req.StartTime, req.DurationMinutes, time.Now()); err != nil {
		http.Error(w, "Invalid event_date/start_time format", http.StatusBadRequest)
		return
	}

	now := time.Now()
	res, err := database.DB.Exec(`
		INSERT INTO opportunities (host_id, name, description, address, image_path, event_date, start_time, duration_minutes, total_slots, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, req.Name, req.Description, req.Address, req.ImagePath, req.EventDate, req.StartTime, req.DurationMinutes, req.TotalSlots, now)
	if err != nil {
		http.Error(w, "Failed to create opportunity", http.StatusInternalServerError)
		log.Printf("Error inserting opportunity for host %d: %v", userID, err)
		return
	}
	oppID, _ := res.LastInsertId()

	for _, orgID := range req.VisibilityOrgs {
		if _, err := database.DB.Exec("INSERT INTO opportunity_visibility (opportunity_id, org_id) VALUES (?, ?)", oppID, orgID); err != nil {
			http.Error(w, "Failed to store visibility restriction", http.StatusInternalServerError)
			return
		}
	}

	// The host joins the roster on creation. The registered flag stays unset;
	// the engine still counts the host toward occupancy.
	_, err = database.DB.Exec(
		"INSERT INTO signups (opportunity_id, user_id, registered, created_at) VALUES (?, ?, FALSE, ?)",
		oppID, userID, now,
	)
	if err != nil {
		http.Error(w, "Failed to add host to roster", http.StatusInternalServerError)
		return
	}

	log.Printf("User %d created opportunity %d (%s on %s %s)", userID, oppID, req.Name, req.EventDate, req.StartTime)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": oppID})
}

// GET /opportunities - list opportunities visible to the viewer, each with
// the viewer's eligibility verdict embedded. Hidden opportunities are omitted
// entirely.
func ListOpportunitiesHandler(w http.ResponseWriter, r *http.Request) {
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

	query := `SELECT id FROM opportunities WHERE multi_id IS NULL`
	args := []interface{}{}
	if r.URL.Query().Get("include_past") != "true" {
		// Past events stay queryable for history; the default listing is
		// upcoming only. "Today" is a reference-zone day, not the viewer's.
		query += ` AND event_date >= ?`
		args = append(args, time.Now().In(eligibility.ReferenceZone()).Format("2006-01-02"))
	}
	query += ` ORDER BY event_date ASC, start_time ASC`

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}

	now := time.Now()
	views := []models.OpportunityView{}
	for _, id := range ids {
		view, verdict, err := buildOpportunityView(id, viewer, now)
		if err != nil {
			log.Printf("Error building view for opportunity %d: %v", id, err)
			continue
		}
		if !verdict.Visible {
			continue
		}
		views = append(views, view)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

// GET /opportunities/{opportunityID} - opportunity detail with verdict,
// roster, and co-attending organization ranking. Responds 404 for hidden
// opportunities so restricted events are indistinguishable from missing ones.
func GetOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	oppID, err := strconv.ParseInt(r.PathValue("opportunityID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid opportunity ID", http.StatusBadRequest)
		return
	}

	viewer, err := loadViewer(userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	view, verdict, err := buildOpportunityView(oppID, viewer, time.Now())
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Opportunity not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !verdict.Visible {
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// PUT /opportunities/{opportunityID} - update details (host or admin only)
func UpdateOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	oppID, _ := strconv.ParseInt(r.PathValue("opportunityID"), 10, 64)

	opp, err := loadOpportunity(oppID)
	if err != nil {
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}
	viewer, err := loadViewer(userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if userID != opp.HostID && !viewer.IsAdmin {
		http.Error(w, "Forbidden: only the host or an admin can edit", http.StatusForbidden)
		return
	}

	var req models.CreateOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes <= 0 || req.TotalSlots <= 0 {
		http.Error(w, "duration_minutes and total_slots must be positive", http.StatusBadRequest)
		return
	}
	if _, err := eligibility.EvaluateWindow(req.EventDate, req.StartTime, req.DurationMinutes, time.Now()); err != nil {
		http.Error(w, "Invalid event_date/start_time format", http.StatusBadRequest)
		return
	}

	// The visibility set is replaced wholesale alongside the row update. One
	// transaction, so a failed re-insert can never leave a restricted
	// opportunity public.
	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	_, err = tx.Exec(`
		UPDATE opportunities
		SET name = ?, description = ?, address = ?, image_path = ?, event_date = ?, start_time = ?, duration_minutes = ?, total_slots = ?
		WHERE id = ?
	`, req.Name, req.Description, req.Address, req.ImagePath, req.EventDate, req.StartTime, req.DurationMinutes, req.TotalSlots, oppID)
	if err != nil {
		tx.Rollback()
		http.Error(w, "Failed to update opportunity", http.StatusInternalServerError)
		return
	}

	if _, err := tx.Exec("DELETE FROM opportunity_visibility WHERE opportunity_id = ?", oppID); err != nil {
		tx.Rollback()
		http.Error(w, "Failed to update visibility restriction", http.StatusInternalServerError)
		return
	}
	for _, orgID := range req.VisibilityOrgs {
		if _, err := tx.Exec("INSERT INTO opportunity_visibility (opportunity_id, org_id) VALUES (?, ?)", oppID, orgID); err != nil {
			tx.Rollback()
			http.Error(w, "Failed to update visibility restriction", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, "Failed to update opportunity", http.StatusInternalServerError)
		return
	}

	go BroadcastToRoster(oppID, "opportunity_updated", map[string]interface{}{"opportunity_id": oppID})
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
}

// PATCH /opportunities/{opportunityID}/approve - admin approval flag
func ApproveOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	viewer, err := loadViewer(userID)
	if err != nil || !viewer.IsAdmin {
		http.Error(w, "Forbidden: admin only", http.StatusForbidden)
		return
	}
	oppID, _ := strconv.ParseInt(r.PathValue("opportunityID"), 10, 64)

	var req struct {
		Approved bool `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec("UPDATE opportunities SET approved = ? WHERE id = ?", req.Approved, oppID)
	if err != nil {
		http.Error(w, "Failed to update approval", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}

	log.Printf("Admin %d set approved=%v on opportunity %d", userID, req.Approved, oppID)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": oppID, "approved": req.Approved})
}

// DELETE /opportunities/{opportunityID} - hard delete (host or admin only)
func DeleteOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	oppID, _ := strconv.ParseInt(r.PathValue("opportunityID"), 10, 64)

	opp, err := loadOpportunity(oppID)
	if err != nil {
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}
	viewer, err := loadViewer(userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if userID != opp.HostID && !viewer.IsAdmin {
		http.Error(w, "Forbidden: only the host or an admin can delete", http.StatusForbidden)
		return
	}

	go BroadcastToRoster(oppID, "opportunity_deleted", map[string]interface{}{"opportunity_id": oppID})

	_, err = database.DB.Exec("DELETE FROM opportunities WHERE id = ?", oppID)
	if err != nil {
		http.Error(w, "Failed to delete opportunity", http.StatusInternalServerError)
		return
	}
	log.Printf("User %d deleted opportunity %d", userID, oppID)
	w.WriteHeader(http.StatusNoContent)
}

// PATCH /opportunities/{opportunityID}/attendance - host/admin marks who
// showed up. Attended hours are what the leaderboard points derive from.
func MarkAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	oppID, _ := strconv.ParseInt(r.PathValue("opportunityID"), 10, 64)

	opp, err := loadOpportunity(oppID)
	if err != nil {
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}
	viewer, err := loadViewer(userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if userID != opp.HostID && !viewer.IsAdmin {
		http.Error(w, "Forbidden: only the host or an admin can mark attendance", http.StatusForbidden)
		return
	}

	var req struct {
		UserID   int64 `json:"user_id"`
		Attended bool  `json:"attended"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		http.Error(w, "Invalid attendance data", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec(
		"UPDATE signups SET attended = ? WHERE opportunity_id = ? AND user_id = ?",
		req.Attended, oppID, req.UserID,
	)
	if err != nil {
		http.Error(w, "Failed to mark attendance", http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "No such participant on this roster", http.StatusNotFound)
		return
	}

	if req.Attended {
		go func() {
			relatedID := int(oppID)
			relatedType := "opportunity"
			actorID := int(userID)
			err := NotificationHelper.CreateNotification(models.CreateNotificationRequest{
				UserID:      int(req.UserID),
				Type:        "attendance_marked",
				Title:       "Attendance confirmed",
				Message:     "Your attendance at " + opp.Name + " was confirmed. Points have been added.",
				RelatedID:   &relatedID,
				RelatedType: &relatedType,
				ActorID:     &actorID,
			})
			if err != nil {
				log.Printf("Error creating attendance notification: %v", err)
			}
			BroadcastUnreadCountToUser(int(req.UserID))
		}()
	}

	log.Printf("User %d set attended=%v for user %d on opportunity %d", userID, req.Attended, req.UserID, oppID)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"opportunity_id": oppID,
		"user_id":        req.UserID,
		"attended":       req.Attended,
	})
}

// buildOpportunityView loads an opportunity and produces the decorated
// viewer-relative projection. The roster is withheld when the verdict says
// the opportunity is not visible.
func buildOpportunityView(oppID int64, viewer eligibility.Viewer, now time.Time) (models.OpportunityView, eligibility.Verdict, error) {
	opp, err := loadOpportunity(oppID)
	if err != nil {
		return models.OpportunityView{}, eligibility.Verdict{}, err
	}
	roster, err := loadRoster(oppID)
	if err != nil {
		return models.OpportunityView{}, eligibility.Verdict{}, err
	}

	verdict, err := eligibility.Describe(snapshot(opp, roster), viewer, now)
	if err != nil {
		return models.OpportunityView{}, eligibility.Verdict{}, err
	}
	metrics.EligibilityEvaluations.Inc()

	view := models.OpportunityView{Opportunity: opp, Verdict: verdict}
	if !verdict.Visible {
		return view, verdict, nil
	}

	view.Participants = roster
	view.TopOrganizations = eligibility.TopOrganizations(roster)
	database.DB.QueryRow("SELECT username FROM users WHERE id = ?", opp.HostID).Scan(&view.HostName)
	return view, verdict, nil
}
