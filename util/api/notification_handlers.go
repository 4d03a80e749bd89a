package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"volunteerhub/database"
	"volunteerhub/middleware"
	"volunteerhub/models"
)

// GetNotificationsHandler retrieves notifications for the authenticated user
func GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Create notification service instance
	notificationService := models.NewNotificationService(database.DB)

	// Get limit from query params (default 20)
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	notifications, err := notificationService.GetNotifications(int(userID), limit)
	if err != nil {
		http.Error(w, "Failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

// GetUnreadCountHandler returns the count of unread notifications
func GetUnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Create notification service instance
	notificationService := models.NewNotificationService(database.DB)

	count, err := notificationService.GetUnreadCount(int(userID))
	if err != nil {
		http.Error(w, "Failed to fetch unread count", http.StatusInternalServerError)
		return
	}

	response := models.NotificationCount{UnreadCount: count}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// MarkNotificationAsReadHandler marks a specific notification as read
func MarkNotificationAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Create notification service instance
	notificationService := models.NewNotificationService(database.DB)

	notificationIDStr := r.PathValue("notificationID")
	notificationID, err := strconv.Atoi(notificationIDStr)
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	err = notificationService.MarkAsRead(notificationID, int(userID))
	if err != nil {
		http.Error(w, "Failed to mark notification as read", http.StatusInternalServerError)
		return
	}

	// Send updated unread count via WebSocket
	BroadcastUnreadCountToUser(int(userID))

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// MarkAllNotificationsAsReadHandler marks all notifications as read for the user
func MarkAllNotificationsAsReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok || userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Create notification service instance
	notificationService := models.NewNotificationService(database.DB)

	err := notificationService.MarkAllAsRead(int(userID))
	if err != nil {
		http.Error(w, "Failed to mark all notifications as read", http.StatusInternalServerError)
		return
	}

	// Send updated unread count via WebSocket
	BroadcastUnreadCountToUser(int(userID))

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// NotificationHelpers contains utility functions for creating notifications
type NotificationHelpers struct{}

// CreateNotification persists a notification and pushes it over WebSocket if
// the recipient is connected.
func (nh *NotificationHelpers) CreateNotification(req models.CreateNotificationRequest) error {
	notificationService := models.NewNotificationService(database.DB)

	if err := notificationService.CreateNotification(req); err != nil {
		return err
	}

	// Send real-time notification via WebSocket
	BroadcastNotificationToUser(req.UserID, req.Type, req)
	return nil
}

// CreateFriendRequestNotification creates a notification when someone sends a friend request
func (nh *NotificationHelpers) CreateFriendRequestNotification(requesterID, targetUserID int) {
	log.Printf("Creating friend request notification from user %d to user %d", requesterID, targetUserID)

	// Get requester's username for the message
	var requesterUsername string
	err := database.DB.QueryRow("SELECT username FROM users WHERE id = ?", requesterID).Scan(&requesterUsername)
	if err != nil {
		log.Printf("Error getting requester username for notification (ID: %d): %v", requesterID, err)
		return // Silently fail notification creation
	}

	req := models.CreateNotificationRequest{
		UserID:      targetUserID,
		Type:        "friend_request",
		Title:       "New Friend Request",
		Message:     requesterUsername + " wants to be your friend",
		RelatedID:   &requesterID,
		RelatedType: stringPtr("user"),
		ActorID:     &requesterID,
	}

	if err := nh.CreateNotification(req); err != nil {
		log.Printf("Error creating friend request notification: %v", err)
	}
}

// CreateFriendAcceptedNotification creates a notification when a friend request is accepted
func (nh *NotificationHelpers) CreateFriendAcceptedNotification(requesterID, accepterID int) {
	log.Printf("Creating friend accepted notification from user %d to user %d", accepterID, requesterID)

	// Get accepter's username for the message
	var accepterUsername string
	err := database.DB.QueryRow("SELECT username FROM users WHERE id = ?", accepterID).Scan(&accepterUsername)
	if err != nil {
		log.Printf("Error getting accepter username for notification (ID: %d): %v", accepterID, err)
		return // Silently fail notification creation
	}

	req := models.CreateNotificationRequest{
		UserID:      requesterID,
		Type:        "friend_accepted",
		Title:       "Friend Request Accepted",
		Message:     accepterUsername + " accepted your friend request",
		RelatedID:   &accepterID,
		RelatedType: stringPtr("user"),
		ActorID:     &accepterID,
	}

	if err := nh.CreateNotification(req); err != nil {
		log.Printf("Error creating friend accepted notification: %v", err)
	}
}

// Helper function to create string pointers
func stringPtr(s string) *string {
	return &s
}

// BroadcastNotificationToUser sends a real-time notification via WebSocket
func BroadcastNotificationToUser(userID int, notificationType string, notification models.CreateNotificationRequest) {
	data := map[string]interface{}{
		"type":         notification.Type,
		"title":        notification.Title,
		"message":      notification.Message,
		"related_id":   notification.RelatedID,
		"related_type": notification.RelatedType,
		"actor_id":     notification.ActorID,
	}

	BroadcastToUser(int64(userID), notificationType, data)

	// Also send updated unread count
	BroadcastUnreadCountToUser(userID)
}

// BroadcastUnreadCountToUser sends updated unread notification count via WebSocket
func BroadcastUnreadCountToUser(userID int) {
	if !IsUserOnline(int64(userID)) {
		return
	}

	// Get current unread count
	notificationService := models.NewNotificationService(database.DB)
	count, err := notificationService.GetUnreadCount(userID)
	if err != nil {
		log.Printf("Error getting unread count for user %d: %v", userID, err)
		return
	}

	data := map[string]interface{}{
		"unread_count": count,
	}

	BroadcastToUser(int64(userID), "notification_count_update", data)
}

// Global notification helpers instance
var NotificationHelper = &NotificationHelpers{}
