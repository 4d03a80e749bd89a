package models

import "time"

// Friendship represents a row in the friendships table. Direction matters
// only while the status is pending.
type Friendship struct {
	ID          int64
	RequesterID int64
	AddresseeID int64
	Status      string // 'pending', 'accepted'
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FriendRequestAction is used when accepting or declining a friend request.
type FriendRequestAction struct {
	Action string `json:"action"` // "accept" or "decline"
}

// FriendshipsResponse is the viewer's projection of the friendship graph:
// just their own edges, grouped by state.
type FriendshipsResponse struct {
	PendingSent     []UserSummary `json:"pending_sent"`
	PendingReceived []UserSummary `json:"pending_received"`
	Accepted        []UserSummary `json:"accepted"`
}

// FriendStatusResponse indicates the result of a friendship action.
type FriendStatusResponse struct {
	TargetUserID int64  `json:"target_user_id"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}
