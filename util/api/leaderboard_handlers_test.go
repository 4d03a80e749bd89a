package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"volunteerhub/database"
	"volunteerhub/middleware"
	"volunteerhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaderboardMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /leaderboard", middleware.AuthMiddleware(http.HandlerFunc(LeaderboardHandler)))
	mux.Handle("GET /users/{userID}/profile", middleware.AuthMiddleware(http.HandlerFunc(GetProfileHandler)))
	return mux
}

func markAttended(t *testing.T, oppID, userID int64) {
	t.Helper()
	_, err := database.DB.Exec(`
		INSERT INTO signups (opportunity_id, user_id, registered, attended, created_at)
		VALUES (?, ?, TRUE, TRUE, ?)
	`, oppID, userID, time.Now())
	require.NoError(t, err)
}

func TestLeaderboardHandler(t *testing.T) {
	setupTestDB(t)
	mux := newLeaderboardMux()
	host := createTestUser(t, "host", false)
	alice := createTestUser(t, "alice", false)
	bob := createTestUser(t, "bob", false)
	carol := createTestUser(t, "carol", false)

	// 120 minutes each (createTestOpportunity fixes the duration).
	first := createTestOpportunity(t, host, 10, -48)
	second := createTestOpportunity(t, host, 10, -24)

	markAttended(t, first, alice)
	markAttended(t, second, alice)
	markAttended(t, first, bob)
	// carol registered but never attended, so she earns nothing
	_, err := database.DB.Exec(`
		INSERT INTO signups (opportunity_id, user_id, registered, created_at) VALUES (?, ?, TRUE, ?)
	`, second, carol, time.Now())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(t, alice, "GET", "/leaderboard"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entries []models.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 240, entries[0].Points)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, 120, entries[1].Points)
}

func TestGetProfileHandler(t *testing.T) {
	setupTestDB(t)
	mux := newLeaderboardMux()
	host := createTestUser(t, "host", false)
	alice := createTestUser(t, "alice", false)

	oppID := createTestOpportunity(t, host, 10, -24)
	markAttended(t, oppID, alice)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(t, alice, "GET", fmt.Sprintf("/users/%d/profile", alice)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile models.ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "alice", profile.User.Username)
	assert.Equal(t, 120, profile.Points)
	assert.Equal(t, 1, profile.EventsAttended)
	assert.Equal(t, 0, profile.EventsHosted)

	// The host's profile counts the hosted event but no points: the host's
	// roster row is not an attendance.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(t, alice, "GET", fmt.Sprintf("/users/%d/profile", host)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, 0, profile.Points)
	assert.Equal(t, 1, profile.EventsHosted)
}
