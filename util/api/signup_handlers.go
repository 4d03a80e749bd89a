package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"volunteerhub/database"
	"volunteerhub/eligibility"
	"volunteerhub/metrics"
	"volunteerhub/models"
)

// signupConflict answers a blocked or lost-race roster action with the
// machine-readable reason the front end keys its messaging on.
func signupConflict(w http.ResponseWriter, status int, reason eligibility.Reason) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": string(reason)})
}

// POST /opportunities/{opportunityID}/signup
//
// The verdict computed here is advisory: two viewers can both see
// can_sign_up=true at once. The transaction below is what actually decides;
// the loser of the race gets a 409 and should refetch.
func SignUpHandler(w http.ResponseWriter, r *http.Request) {
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

	view, verdict, err := buildOpportunityView(oppID, viewer, time.Now())
	if err != nil {
		metrics.SignupAttempts.WithLabelValues("signup", "error").Inc()
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}
	if !verdict.Visible {
		metrics.SignupAttempts.WithLabelValues("signup", "blocked").Inc()
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}
	if !verdict.CanSignUp {
		metrics.SignupAttempts.WithLabelValues("signup", "blocked").Inc()
		signupConflict(w, http.StatusConflict, verdict.SignUpBlock)
		return
	}

	opp := view.Opportunity
	tx, err := database.DB.Begin()
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Authoritative capacity check, inside the transaction this time.
	var occupied int
	err = tx.QueryRow(
		"SELECT COUNT(*) FROM signups WHERE opportunity_id = ? AND (registered = TRUE OR user_id = ?)",
		oppID, opp.HostID,
	).Scan(&occupied)
	if err != nil {
		tx.Rollback()
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if occupied >= opp.TotalSlots {
		tx.Rollback()
		metrics.SignupAttempts.WithLabelValues("signup", "conflict").Inc()
		log.Printf("User %d lost the signup race for opportunity %d", userID, oppID)
		signupConflict(w, http.StatusConflict, eligibility.ReasonEventFull)
		return
	}

	_, err = tx.Exec(
		"INSERT INTO signups (opportunity_id, user_id, registered, created_at) VALUES (?, ?, TRUE, ?)",
		oppID, userID, time.Now(),
	)
	if err != nil {
		tx.Rollback()
		if strings.Contains(err.Error(), "UNIQUE") {
			metrics.SignupAttempts.WithLabelValues("signup", "conflict").Inc()
			signupConflict(w, http.StatusConflict, eligibility.ReasonAlreadyRegistered)
			return
		}
		metrics.SignupAttempts.WithLabelValues("signup", "error").Inc()
		http.Error(w, "Failed to sign up: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		http.Error(w, "Failed to sign up: "+err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.SignupAttempts.WithLabelValues("signup", "ok").Inc()
	log.Printf("User %d signed up for opportunity %d", userID, oppID)

	go notifyRosterChange(opp, userID, "signed_up")

	// Respond with a verdict recomputed from the fresh roster.
	freshView, _, err := buildOpportunityView(oppID, viewer, time.Now())
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(freshView)
}

// DELETE /opportunities/{opportunityID}/signup
func UnregisterHandler(w http.ResponseWriter, r *http.Request) {
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

	view, verdict, err := buildOpportunityView(oppID, viewer, time.Now())
	if err != nil {
		metrics.SignupAttempts.WithLabelValues("unregister", "error").Inc()
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}
	if !verdict.Visible {
		metrics.SignupAttempts.WithLabelValues("unregister", "blocked").Inc()
		http.Error(w, "Opportunity not found", http.StatusNotFound)
		return
	}
	if !verdict.CanUnregister {
		metrics.SignupAttempts.WithLabelValues("unregister", "blocked").Inc()
		status := http.StatusConflict
		if verdict.UnregisterBlock == eligibility.ReasonLockoutWindow {
			// Inside the 7-hour lockout the registration exists but may not
			// be withdrawn by an ordinary participant.
			status = http.StatusForbidden
		}
		signupConflict(w, status, verdict.UnregisterBlock)
		return
	}

	res, err := database.DB.Exec(
		"DELETE FROM signups WHERE opportunity_id = ? AND user_id = ? AND registered = TRUE",
		oppID, userID,
	)
	if err != nil {
		metrics.SignupAttempts.WithLabelValues("unregister", "error").Inc()
		http.Error(w, "Failed to unregister: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Advisory verdict was stale; the registration is already gone.
		metrics.SignupAttempts.WithLabelValues("unregister", "conflict").Inc()
		signupConflict(w, http.StatusConflict, eligibility.ReasonNotRegistered)
		return
	}
	metrics.SignupAttempts.WithLabelValues("unregister", "ok").Inc()
	log.Printf("User %d unregistered from opportunity %d", userID, oppID)

	go notifyRosterChange(view.Opportunity, userID, "unregistered")

	freshView, _, err := buildOpportunityView(oppID, viewer, time.Now())
	if err != nil {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(freshView)
}

// notifyRosterChange tells the host and the live roster about a signup or
// unregistration.
func notifyRosterChange(opp models.Opportunity, actorID int64, action string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Error broadcasting roster change: %v", rec)
		}
	}()

	var actorName string
	database.DB.QueryRow("SELECT username FROM users WHERE id = ?", actorID).Scan(&actorName)

	relatedID := int(opp.ID)
	relatedType := "opportunity"
	actor := int(actorID)
	message := actorName + " signed up for " + opp.Name
	if action == "unregistered" {
		message = actorName + " unregistered from " + opp.Name
	}
	if err := NotificationHelper.CreateNotification(models.CreateNotificationRequest{
		UserID:      int(opp.HostID),
		Type:        "roster_change",
		Title:       "Roster update",
		Message:     message,
		RelatedID:   &relatedID,
		RelatedType: &relatedType,
		ActorID:     &actor,
	}); err != nil {
		log.Printf("Error creating roster notification: %v", err)
	}
	BroadcastUnreadCountToUser(int(opp.HostID))

	BroadcastToRoster(opp.ID, "roster_changed", map[string]interface{}{
		"opportunity_id": opp.ID,
		"user_id":        actorID,
		"action":         action,
	})
}
