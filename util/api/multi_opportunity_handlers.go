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
	"volunteerhub/models"
)

// POST /multi-opportunities - create a recurring series: one template plus a
// concrete opportunity per occurrence. Occurrences share name, description,
// address, and visibility with the template.
func CreateMultiOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name           string  `json:"name"`
		Description    string  `json:"description"`
		Address        string  `json:"address"`
		ImagePath      string  `json:"image_path"`
		VisibilityOrgs []int64 `json:"visibility_orgs"`
		Occurrences    []struct {
			EventDate       string `json:"event_date"`
			StartTime       string `json:"start_time"`
			DurationMinutes int    `json:"duration_minutes"`
			TotalSlots      int    `json:"total_slots"`
		} `json:"occurrences"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || len(req.Occurrences) == 0 {
		http.Error(w, "Invalid series data", http.StatusBadRequest)
		return
	}
	for _, occ := range req.Occurrences {
		if occ.DurationMinutes <= 0 || occ.TotalSlots <= 0 {
			http.Error(w, "duration_minutes and total_slots must be positive", http.StatusBadRequest)
			return
		}
		if _, err := eligibility.EvaluateWindow(occ.EventDate, occ.StartTime, occ.DurationMinutes, time.Now()); err != nil {
			http.Error(w, "Invalid event_date/start_time format", http.StatusBadRequest)
			return
		}
	}

	now := time.Now()
	res, err := database.DB.Exec(`
		INSERT INTO multi_opportunities (host_id, name, description, address, image_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, req.Name, req.Description, req.Address, req.ImagePath, now)
	if err != nil {
		http.Error(w, "Failed to create series", http.StatusInternalServerError)
		log.Printf("Error inserting multi-opportunity for host %d: %v", userID, err)
		return
	}
	multiID, _ := res.LastInsertId()

	occurrenceIDs := make([]int64, 0, len(req.Occurrences))
	for _, occ := range req.Occurrences {
		res, err := database.DB.Exec(`
			INSERT INTO opportunities (multi_id, host_id, name, description, address, image_path, event_date, start_time, duration_minutes, total_slots, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, multiID, userID, req.Name, req.Description, req.Address, req.ImagePath, occ.EventDate, occ.StartTime, occ.DurationMinutes, occ.TotalSlots, now)
		if err != nil {
			http.Error(w, "Failed to create occurrence", http.StatusInternalServerError)
			return
		}
		oppID, _ := res.LastInsertId()
		occurrenceIDs = append(occurrenceIDs, oppID)

		for _, orgID := range req.VisibilityOrgs {
			if _, err := database.DB.Exec("INSERT INTO opportunity_visibility (opportunity_id, org_id) VALUES (?, ?)", oppID, orgID); err != nil {
				http.Error(w, "Failed to store visibility restriction", http.StatusInternalServerError)
				return
			}
		}
		// Host on every occurrence roster, registered flag unset.
		if _, err := database.DB.Exec("INSERT INTO signups (opportunity_id, user_id, registered, created_at) VALUES (?, ?, FALSE, ?)", oppID, userID, now); err != nil {
			http.Error(w, "Failed to add host to roster", http.StatusInternalServerError)
			return
		}
	}

	log.Printf("User %d created multi-opportunity %d with %d occurrences", userID, multiID, len(occurrenceIDs))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": multiID, "occurrence_ids": occurrenceIDs})
}

// GET /multi-opportunities - list series visible to the viewer
func ListMultiOpportunitiesHandler(w http.ResponseWriter, r *http.Request) {
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

	rows, err := database.DB.Query(`
		SELECT id, host_id, name, description, address, COALESCE(image_path, ''), created_at
		FROM multi_opportunities ORDER BY created_at DESC
	`)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	type seriesSummary struct {
		models.MultiOpportunity
		OccurrenceCount int    `json:"occurrence_count"`
		NextDate        string `json:"next_date,omitempty"`
	}

	summaries := []seriesSummary{}
	for rows.Next() {
		var m models.MultiOpportunity
		if err := rows.Scan(&m.ID, &m.HostID, &m.Name, &m.Description, &m.Address, &m.ImagePath, &m.CreatedAt); err != nil {
			continue
		}

		occs, err := loadSeriesOccurrences(m.ID)
		if err != nil || len(occs) == 0 {
			continue
		}
		// Occurrences share one visibility set; checking the first is enough
		// to decide whether the series shows up at all.
		if !eligibility.IsVisible(occs[0].VisibilityOrgs, viewer.OrgIDs, viewer.IsAdmin) {
			continue
		}

		s := seriesSummary{MultiOpportunity: m, OccurrenceCount: len(occs)}
		today := time.Now().In(eligibility.ReferenceZone()).Format("2006-01-02")
		for _, occ := range occs {
			if occ.EventDate >= today {
				s.NextDate = occ.EventDate
				break
			}
		}
		summaries = append(summaries, s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// GET /multi-opportunities/{multiID} - series detail: per-occurrence
// verdicts, the de-duplicated cross-occurrence participant set, and the top
// co-attending organizations.
func GetMultiOpportunityHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	multiID, err := strconv.ParseInt(r.PathValue("multiID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid series ID", http.StatusBadRequest)
		return
	}

	var m models.MultiOpportunity
	err = database.DB.QueryRow(`
		SELECT id, host_id, name, description, address, COALESCE(image_path, ''), created_at
		FROM multi_opportunities WHERE id = ?
	`, multiID).Scan(&m.ID, &m.HostID, &m.Name, &m.Description, &m.Address, &m.ImagePath, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Series not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	viewer, err := loadViewer(userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	occs, err := loadSeriesOccurrences(multiID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	snapshots := make([]eligibility.Opportunity, 0, len(occs))
	for _, occ := range occs {
		roster, err := loadRoster(occ.ID)
		if err != nil {
			http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		snapshots = append(snapshots, snapshot(occ, roster))
	}

	view, err := eligibility.DescribeSeries(snapshots, viewer, time.Now())
	if err != nil {
		http.Error(w, "Failed to evaluate series: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Hidden series look exactly like missing ones.
	anyVisible := false
	for _, occ := range view.Occurrences {
		if occ.Verdict.Visible {
			anyVisible = true
			break
		}
	}
	if !anyVisible && len(view.Occurrences) > 0 {
		http.Error(w, "Series not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"series": m,
		"view":   view,
	})
}

// loadSeriesOccurrences returns the occurrences of a series in chronological
// order, visibility sets included.
func loadSeriesOccurrences(multiID int64) ([]models.Opportunity, error) {
	rows, err := database.DB.Query(
		"SELECT id FROM opportunities WHERE multi_id = ? ORDER BY event_date ASC, start_time ASC", multiID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	occs := make([]models.Opportunity, 0, len(ids))
	for _, id := range ids {
		opp, err := loadOpportunity(id)
		if err != nil {
			return nil, err
		}
		occs = append(occs, opp)
	}
	return occs, nil
}
