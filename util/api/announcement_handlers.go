package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"volunteerhub/database"
	"volunteerhub/models"
)

// POST /opportunities/{opportunityID}/announcements - host or admin posts a
// message to everyone on the roster.
func CreateAnnouncementHandler(w http.ResponseWriter, r *http.Request) {
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
	opp, err := loadOpportunity(oppID)
	if err != nil {
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}
	if opp.HostID != userID && !viewer.IsAdmin {
		http.Error(w, "Only the host can post announcements", http.StatusForbidden)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "Announcement content is required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	result, err := database.DB.Exec(`
		INSERT INTO announcements (opportunity_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`, oppID, userID, req.Content, now)
	if err != nil {
		http.Error(w, "Failed to post announcement: "+err.Error(), http.StatusInternalServerError)
		log.Printf("Error inserting announcement for opportunity %d: %v", oppID, err)
		return
	}
	announcementID, _ := result.LastInsertId()

	var authorName string
	database.DB.QueryRow("SELECT username FROM users WHERE id = ?", userID).Scan(&authorName)

	announcement := models.Announcement{
		ID:            announcementID,
		OpportunityID: oppID,
		AuthorID:      userID,
		AuthorName:    authorName,
		Content:       req.Content,
		CreatedAt:     now,
	}

	log.Printf("User %d posted announcement %d on opportunity %d", userID, announcementID, oppID)

	// Notify the registered participants; the author already knows.
	go func() {
		rows, err := database.DB.Query(
			"SELECT user_id FROM signups WHERE opportunity_id = ? AND user_id != ?", oppID, userID)
		if err != nil {
			log.Printf("Error fetching roster for announcement %d: %v", announcementID, err)
			return
		}
		defer rows.Close()

		relatedID := int(oppID)
		relatedType := "opportunity"
		actor := int(userID)
		for rows.Next() {
			var memberID int64
			if err := rows.Scan(&memberID); err != nil {
				continue
			}
			if err := NotificationHelper.CreateNotification(models.CreateNotificationRequest{
				UserID:      int(memberID),
				Type:        "announcement",
				Title:       "Announcement: " + opp.Name,
				Message:     req.Content,
				RelatedID:   &relatedID,
				RelatedType: &relatedType,
				ActorID:     &actor,
			}); err != nil {
				log.Printf("Error creating announcement notification for user %d: %v", memberID, err)
			}
		}
		BroadcastToRoster(oppID, "announcement", announcement)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(announcement)
}

// GET /opportunities/{opportunityID}/announcements
func ListAnnouncementsHandler(w http.ResponseWriter, r *http.Request) {
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
	_, verdict, err := buildOpportunityView(oppID, viewer, time.Now())
	if err != nil || !verdict.Visible {
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}

	rows, err := database.DB.Query(`
		SELECT a.id, a.opportunity_id, a.author_id, u.username, a.content, a.created_at
		FROM announcements a
		JOIN users u ON u.id = a.author_id
		WHERE a.opportunity_id = ?
		ORDER BY a.created_at DESC
	`, oppID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	announcements := []models.Announcement{}
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.ID, &a.OpportunityID, &a.AuthorID, &a.AuthorName, &a.Content, &a.CreatedAt); err != nil {
			continue
		}
		announcements = append(announcements, a)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(announcements)
}
