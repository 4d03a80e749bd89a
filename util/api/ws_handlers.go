package api

import (
	"log"
	"net/http"
	"sync"

	"volunteerhub/database"
	"volunteerhub/metrics"
	"volunteerhub/middleware"
	"volunteerhub/util"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev (restrict in production)
	},
}

// Store active WebSocket connections per user
var (
	activeConnections = make(map[int64]*websocket.Conn)
	connectionsMutex  sync.RWMutex
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	// Try to get session token from query string for local dev
	userID := int64(0)
	token := r.URL.Query().Get("token")
	if token != "" {
		userID = util.GetUserIDFromSession(token)
	}
	if userID == 0 {
		// Fallback to context (cookie/session)
		ctxUserID, ok := r.Context().Value(middleware.UserIDKey).(int64)
		if ok {
			userID = ctxUserID
		}
	}
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Store connection
	connectionsMutex.Lock()
	activeConnections[userID] = conn
	connectionsMutex.Unlock()
	metrics.WebSocketConnections.Inc()

	log.Printf("User %d connected via WebSocket (%d online)", userID, GetOnlineUsersCount())

	// Clean up on disconnect
	defer func() {
		connectionsMutex.Lock()
		delete(activeConnections, userID)
		connectionsMutex.Unlock()
		metrics.WebSocketConnections.Dec()
		log.Printf("User %d disconnected from WebSocket", userID)
	}()

	// Send welcome message
	welcomeMsg := WSMessage{
		Type: "connected",
		Data: map[string]string{"status": "connected"},
	}
	conn.WriteJSON(welcomeMsg)

	// Push the unread notification count so the client badge is right
	// immediately after connecting.
	BroadcastUnreadCountToUser(int(userID))

	// Listen for messages from client
	for {
		var msg WSMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			log.Printf("WebSocket read error for user %d: %v", userID, err)
			break
		}

		switch msg.Type {
		case "heartbeat":
			conn.WriteJSON(WSMessage{Type: "heartbeat_ack", Data: "ok"})

		case "ping":
			conn.WriteJSON(WSMessage{Type: "pong", Data: "pong"})

		default:
			log.Printf("Unknown message type from user %d: %s", userID, msg.Type)
		}
	}
}

// Broadcast message to a specific user
func BroadcastToUser(receiverID int64, msgType string, data interface{}) {
	connectionsMutex.RLock()
	conn, exists := activeConnections[receiverID]
	connectionsMutex.RUnlock()

	if exists {
		msg := WSMessage{
			Type: msgType,
			Data: data,
		}
		err := conn.WriteJSON(msg)
		if err != nil {
			log.Printf("Error broadcasting to user %d: %v", receiverID, err)
			// Remove dead connection
			connectionsMutex.Lock()
			delete(activeConnections, receiverID)
			connectionsMutex.Unlock()
		}
	}
}

// BroadcastToRoster sends a message to everyone on an opportunity's roster,
// host included. Used for live roster updates and event changes.
func BroadcastToRoster(opportunityID int64, msgType string, data interface{}) {
	rows, err := database.DB.Query(`
        SELECT user_id FROM signups WHERE opportunity_id = ?
    `, opportunityID)
	if err != nil {
		log.Printf("Error getting roster for broadcast: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var memberID int64
		if err := rows.Scan(&memberID); err != nil {
			continue
		}
		BroadcastToUser(memberID, msgType, data)
	}
}

// BroadcastToOrgMembers sends a message to every member of an organization.
func BroadcastToOrgMembers(orgID int64, msgType string, data interface{}, excludeUserID *int64) {
	rows, err := database.DB.Query(`
        SELECT user_id FROM organization_members WHERE org_id = ?
    `, orgID)
	if err != nil {
		log.Printf("Error getting organization members: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var memberID int64
		if err := rows.Scan(&memberID); err != nil {
			continue
		}

		// Skip sender if specified
		if excludeUserID != nil && memberID == *excludeUserID {
			continue
		}

		BroadcastToUser(memberID, msgType, data)
	}
}

// Get online users count (optional utility)
func GetOnlineUsersCount() int {
	connectionsMutex.RLock()
	defer connectionsMutex.RUnlock()
	return len(activeConnections)
}

// Check if user is online
func IsUserOnline(userID int64) bool {
	connectionsMutex.RLock()
	defer connectionsMutex.RUnlock()
	_, exists := activeConnections[userID]
	return exists
}
