package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"volunteerhub/database"
	"volunteerhub/eligibility"
	"volunteerhub/middleware"
	"volunteerhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpportunityMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /opportunities/{opportunityID}", middleware.AuthMiddleware(http.HandlerFunc(GetOpportunityHandler)))
	mux.Handle("PUT /opportunities/{opportunityID}", middleware.AuthMiddleware(http.HandlerFunc(UpdateOpportunityHandler)))
	return mux
}

func createTestOrg(t *testing.T, hostID int64, name string) int64 {
	t.Helper()
	res, err := database.DB.Exec(`
		INSERT INTO organizations (name, org_type, approved, host_id) VALUES (?, 'community', TRUE, ?)
	`, name, hostID)
	require.NoError(t, err)
	orgID, err := res.LastInsertId()
	require.NoError(t, err)
	return orgID
}

func updateBody(visibilityOrgs []int64) string {
	start := time.Now().In(eligibility.ReferenceZone()).Add(48 * time.Hour)
	req := models.CreateOpportunityRequest{
		Name:            "Beach Cleanup",
		EventDate:       start.Format("2006-01-02"),
		StartTime:       start.Format("15:04"),
		DurationMinutes: 120,
		TotalSlots:      5,
		VisibilityOrgs:  visibilityOrgs,
	}
	b, _ := json.Marshal(req)
	return string(b)
}

func TestUpdateOpportunityVisibility(t *testing.T) {
	t.Run("restricting hides the event from non-members", func(t *testing.T) {
		setupTestDB(t)
		mux := newOpportunityMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		orgID := createTestOrg(t, host, "Greenpeace")
		oppID := createTestOpportunity(t, host, 5, 48)

		// Public at first.
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "GET", fmt.Sprintf("/opportunities/%d", oppID)))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedJSONRequest(t, host, "PUT",
			fmt.Sprintf("/opportunities/%d", oppID), updateBody([]int64{orgID})))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "GET", fmt.Sprintf("/opportunities/%d", oppID)))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// Clearing the set makes it public again.
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedJSONRequest(t, host, "PUT",
			fmt.Sprintf("/opportunities/%d", oppID), updateBody(nil)))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "GET", fmt.Sprintf("/opportunities/%d", oppID)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failed visibility replacement keeps the old restriction", func(t *testing.T) {
		setupTestDB(t)
		mux := newOpportunityMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		orgID := createTestOrg(t, host, "Greenpeace")
		oppID := createTestOpportunity(t, host, 5, 48)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedJSONRequest(t, host, "PUT",
			fmt.Sprintf("/opportunities/%d", oppID), updateBody([]int64{orgID})))
		require.Equal(t, http.StatusOK, rec.Code)

		// A nonexistent org id violates the foreign key, so the whole
		// replacement rolls back instead of leaving the event public.
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedJSONRequest(t, host, "PUT",
			fmt.Sprintf("/opportunities/%d", oppID), updateBody([]int64{99999})))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "GET", fmt.Sprintf("/opportunities/%d", oppID)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("only the host or an admin may edit", func(t *testing.T) {
		setupTestDB(t)
		mux := newOpportunityMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 5, 48)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedJSONRequest(t, alice, "PUT",
			fmt.Sprintf("/opportunities/%d", oppID), updateBody(nil)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
