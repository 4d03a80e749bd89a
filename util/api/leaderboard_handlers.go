package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"volunteerhub/database"
	"volunteerhub/models"
)

// GET /leaderboard - users ranked by points, i.e. the summed durations of
// their attended events. Ties share the order SQLite returns them in; the
// rank field is positional.
func LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 25
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	rows, err := database.DB.Query(`
		SELECT u.id, u.username, COALESCE(u.avatar, ''), COALESCE(SUM(o.duration_minutes), 0) AS points
		FROM users u
		JOIN signups s ON s.user_id = u.id AND s.attended = TRUE
		JOIN opportunities o ON o.id = s.opportunity_id
		GROUP BY u.id
		HAVING points > 0
		ORDER BY points DESC, u.id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Avatar, &e.Points); err != nil {
			continue
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
