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

// POST /users/{targetUserID}/friend-request
func SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	targetID, err := strconv.ParseInt(r.PathValue("targetUserID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	if targetID == userID {
		http.Error(w, "Cannot send a friend request to yourself", http.StatusBadRequest)
		return
	}

	var exists bool
	err = database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", targetID).Scan(&exists)
	if err != nil || !exists {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	// Reject if any edge already exists in either direction.
	var status string
	err = database.DB.QueryRow(`
		SELECT status FROM friendships
		WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)
	`, userID, targetID, targetID, userID).Scan(&status)
	if err == nil {
		msg := "Friend request already pending"
		if status == "accepted" {
			msg = "Already friends"
		}
		http.Error(w, msg, http.StatusConflict)
		return
	}
	if err != sql.ErrNoRows {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	_, err = database.DB.Exec(`
		INSERT INTO friendships (requester_id, addressee_id, status, created_at, updated_at)
		VALUES (?, ?, 'pending', ?, ?)
	`, userID, targetID, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			http.Error(w, "Friend request already pending", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to send friend request: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("User %d sent a friend request to user %d", userID, targetID)
	go NotificationHelper.CreateFriendRequestNotification(int(userID), int(targetID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.FriendStatusResponse{
		TargetUserID: targetID,
		Status:       "pending",
	})
}

// PATCH /friend-requests/{requesterID} - accept or decline a pending request
// addressed to the current user
func RespondFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	requesterID, err := strconv.ParseInt(r.PathValue("requesterID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var action models.FriendRequestAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		http.Error(w, "Error reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if action.Action != "accept" && action.Action != "decline" {
		http.Error(w, "Action must be 'accept' or 'decline'", http.StatusBadRequest)
		return
	}

	if action.Action == "accept" {
		res, err := database.DB.Exec(`
			UPDATE friendships SET status = 'accepted', updated_at = ?
			WHERE requester_id = ? AND addressee_id = ? AND status = 'pending'
		`, time.Now(), requesterID, userID)
		if err != nil {
			http.Error(w, "Failed to accept friend request: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "No pending friend request from that user", http.StatusNotFound)
			return
		}

		log.Printf("User %d accepted the friend request from user %d", userID, requesterID)
		go NotificationHelper.CreateFriendAcceptedNotification(int(requesterID), int(userID))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.FriendStatusResponse{
			TargetUserID: requesterID,
			Status:       "accepted",
		})
		return
	}

	res, err := database.DB.Exec(`
		DELETE FROM friendships
		WHERE requester_id = ? AND addressee_id = ? AND status = 'pending'
	`, requesterID, userID)
	if err != nil {
		http.Error(w, "Failed to decline friend request: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "No pending friend request from that user", http.StatusNotFound)
		return
	}

	log.Printf("User %d declined the friend request from user %d", userID, requesterID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.FriendStatusResponse{
		TargetUserID: requesterID,
		Status:       "declined",
	})
}

// DELETE /friends/{friendID} - remove an accepted friendship
func UnfriendHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	friendID, err := strconv.ParseInt(r.PathValue("friendID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec(`
		DELETE FROM friendships
		WHERE status = 'accepted'
		  AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))
	`, userID, friendID, friendID, userID)
	if err != nil {
		http.Error(w, "Failed to remove friend: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		http.Error(w, "Not friends with that user", http.StatusNotFound)
		return
	}

	log.Printf("User %d unfriended user %d", userID, friendID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.FriendStatusResponse{
		TargetUserID: friendID,
		Status:       "removed",
	})
}

// GET /friends - the viewer's own friendship edges grouped by state. Nobody
// sees anyone else's pending requests.
func ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	resp := models.FriendshipsResponse{
		PendingSent:     []models.UserSummary{},
		PendingReceived: []models.UserSummary{},
		Accepted:        []models.UserSummary{},
	}

	rows, err := database.DB.Query(`
		SELECT f.requester_id, f.addressee_id, f.status,
		       u.id, u.username, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), COALESCE(u.avatar, '')
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.requester_id = ? THEN f.addressee_id ELSE f.requester_id END
		WHERE f.requester_id = ? OR f.addressee_id = ?
		ORDER BY u.username ASC
	`, userID, userID, userID)
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var requesterID, addresseeID int64
		var status string
		var u models.UserSummary
		if err := rows.Scan(&requesterID, &addresseeID, &status, &u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Avatar); err != nil {
			continue
		}
		switch {
		case status == "accepted":
			resp.Accepted = append(resp.Accepted, u)
		case requesterID == userID:
			resp.PendingSent = append(resp.PendingSent, u)
		default:
			resp.PendingReceived = append(resp.PendingReceived, u)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
