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
	"volunteerhub/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, database.InitDB(":memory:"))
	t.Cleanup(func() { database.DB.Close() })
}

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /opportunities", middleware.AuthMiddleware(http.HandlerFunc(ListOpportunitiesHandler)))
	mux.Handle("GET /opportunities/{opportunityID}", middleware.AuthMiddleware(http.HandlerFunc(GetOpportunityHandler)))
	mux.Handle("POST /opportunities/{opportunityID}/signup", middleware.AuthMiddleware(http.HandlerFunc(SignUpHandler)))
	mux.Handle("DELETE /opportunities/{opportunityID}/signup", middleware.AuthMiddleware(http.HandlerFunc(UnregisterHandler)))
	return mux
}

func createTestUser(t *testing.T, username string, isAdmin bool) int64 {
	t.Helper()
	res, err := database.DB.Exec(`
		INSERT INTO users (username, password_hash, email, is_admin, created_at)
		VALUES (?, 'x', ?, ?, ?)
	`, username, username+"@example.com", isAdmin, time.Now())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// createTestOpportunity inserts an opportunity starting hoursFromNow from the
// current moment, plus the host's roster row with the registered flag unset.
func createTestOpportunity(t *testing.T, hostID int64, totalSlots int, hoursFromNow float64) int64 {
	t.Helper()
	start := time.Now().In(eligibility.ReferenceZone()).Add(time.Duration(hoursFromNow * float64(time.Hour)))
	res, err := database.DB.Exec(`
		INSERT INTO opportunities (host_id, name, description, address, event_date, start_time, duration_minutes, total_slots, approved, created_at)
		VALUES (?, 'Beach Cleanup', '', '', ?, ?, 120, ?, TRUE, ?)
	`, hostID, start.Format("2006-01-02"), start.Format("15:04"), totalSlots, time.Now())
	require.NoError(t, err)
	oppID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = database.DB.Exec(
		"INSERT INTO signups (opportunity_id, user_id, registered, created_at) VALUES (?, ?, FALSE, ?)",
		oppID, hostID, time.Now())
	require.NoError(t, err)
	return oppID
}

func authedRequest(t *testing.T, userID int64, method, target string) *http.Request {
	t.Helper()
	token, err := util.CreateSession(userID)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, nil)
	req.AddCookie(&http.Cookie{Name: util.SessionCookieName, Value: token})
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestSignUpHandler(t *testing.T) {
	t.Run("signs up for an open opportunity", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 5, 48)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var view models.OpportunityView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.False(t, view.Verdict.CanSignUp)
		assert.Equal(t, eligibility.ReasonAlreadyRegistered, view.Verdict.SignUpBlock)
		assert.True(t, view.Verdict.CanUnregister)
		// host + alice
		assert.Equal(t, 2, view.Verdict.Facts.Occupied)
	})

	t.Run("rejects a second signup", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 5, 48)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(eligibility.ReasonAlreadyRegistered), decodeError(t, rec))
	})

	t.Run("rejects signup when the host fills the only slot", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 1, 48)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(eligibility.ReasonEventFull), decodeError(t, rec))
	})

	t.Run("rejects signup for a started opportunity", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 5, -1)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(eligibility.ReasonEventStarted), decodeError(t, rec))
	})

	t.Run("answers 404 when the opportunity is restricted to another org", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 5, 48)

		res, err := database.DB.Exec(`
			INSERT INTO organizations (name, org_type, approved, host_id) VALUES ('Greenpeace', 'environment', TRUE, ?)
		`, host)
		require.NoError(t, err)
		orgID, _ := res.LastInsertId()
		_, err = database.DB.Exec(
			"INSERT INTO opportunity_visibility (opportunity_id, org_id) VALUES (?, ?)", oppID, orgID)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// Detail is hidden the same way; the body must not reveal the org gate.
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "GET", fmt.Sprintf("/opportunities/%d", oppID)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Greenpeace")
	})
}

func TestUnregisterHandler(t *testing.T) {
	t.Run("unregisters outside the lockout window", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 5, 48)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "DELETE", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var view models.OpportunityView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.True(t, view.Verdict.CanSignUp)
		assert.Equal(t, 1, view.Verdict.Facts.Occupied) // host remains
	})

	t.Run("blocks unregister inside the lockout window", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 5, 3) // 3h out, inside the 7h window

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "DELETE", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, string(eligibility.ReasonLockoutWindow), decodeError(t, rec))
	})

	t.Run("admin may pull a participant inside the lockout", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		admin := createTestUser(t, "admin", true)
		oppID := createTestOpportunity(t, host, 5, 3)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, admin, "POST", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, admin, "DELETE", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("conflict when not registered", func(t *testing.T) {
		setupTestDB(t)
		mux := newTestMux()
		host := createTestUser(t, "host", false)
		alice := createTestUser(t, "alice", false)
		oppID := createTestOpportunity(t, host, 5, 48)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest(t, alice, "DELETE", fmt.Sprintf("/opportunities/%d/signup", oppID)))
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(eligibility.ReasonNotRegistered), decodeError(t, rec))
	})
}
