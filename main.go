package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"volunteerhub/database"
	"volunteerhub/metrics"
	"volunteerhub/middleware"
	"volunteerhub/models"
	"volunteerhub/pkg/db/sqlite"
	"volunteerhub/util"
	"volunteerhub/util/api"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// localCheckAuth demonstrates fixing the cookie name and session check.
func localCheckAuth(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(util.SessionCookieName) // Use correct cookie name
	if err != nil {
		if err == http.ErrNoCookie {
			http.Error(w, "Unauthorized: No session cookie", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Error reading session cookie", http.StatusInternalServerError)
		return
	}
	if cookie.Value == "" {
		http.Error(w, "Unauthorized: Empty session token", http.StatusUnauthorized)
		return
	}

	userID := util.GetUserIDFromSession(cookie.Value) // Use correct session check
	if userID == 0 {
		http.Error(w, "Unauthorized: Invalid session token", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Authenticated request"))
}

func main() {
	log.Println("Initializing application...")
	cfg := util.LoadConfig()
	log.Printf("Using database at: %s", cfg.DBPath)

	// Apply migrations before initializing the database
	_, err := sqlite.ConnectAndMigrate(cfg.DBPath, cfg.MigrationsPath)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Initialize Database
	if err := database.InitDB(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	// defer database.DB.Close() // DB is a global var, typically closed on app shutdown if needed explicitly.

	metrics.Register()
	api.SetUploadDir(cfg.UploadDir)

	// Daily cleanup of stale notifications
	go func() {
		notificationService := models.NewNotificationService(database.DB)
		for {
			if err := notificationService.DeleteOldNotifications(30); err != nil {
				log.Printf("Error deleting old notifications: %v", err)
			}
			time.Sleep(24 * time.Hour)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.AuthMiddleware(http.HandlerFunc(api.WebSocketHandler)))
	// Auth handlers
	mux.HandleFunc("POST /register", api.RegisterHandler)
	mux.HandleFunc("POST /login", api.LoginHandler)
	mux.HandleFunc("POST /logout", api.LogoutHandler)
	mux.Handle("GET /checkAuth", middleware.AuthMiddleware(http.HandlerFunc(localCheckAuth)))
	mux.Handle("GET /whoami", middleware.AuthMiddleware(http.HandlerFunc(api.WhoAmIHandler)))

	// Opportunity handlers
	mux.Handle("POST /opportunities", middleware.AuthMiddleware(http.HandlerFunc(api.CreateOpportunityHandler)))
	mux.Handle("GET /opportunities", middleware.AuthMiddleware(http.HandlerFunc(api.ListOpportunitiesHandler)))
	mux.Handle("GET /opportunities/{opportunityID}", middleware.AuthMiddleware(http.HandlerFunc(api.GetOpportunityHandler)))
	mux.Handle("PUT /opportunities/{opportunityID}", middleware.AuthMiddleware(http.HandlerFunc(api.UpdateOpportunityHandler)))
	mux.Handle("DELETE /opportunities/{opportunityID}", middleware.AuthMiddleware(http.HandlerFunc(api.DeleteOpportunityHandler)))
	mux.Handle("PATCH /opportunities/{opportunityID}/approve", middleware.AuthMiddleware(http.HandlerFunc(api.ApproveOpportunityHandler)))

	// Roster handlers
	mux.Handle("POST /opportunities/{opportunityID}/signup", middleware.AuthMiddleware(http.HandlerFunc(api.SignUpHandler)))
	mux.Handle("DELETE /opportunities/{opportunityID}/signup", middleware.AuthMiddleware(http.HandlerFunc(api.UnregisterHandler)))
	mux.Handle("PATCH /opportunities/{opportunityID}/attendance", middleware.AuthMiddleware(http.HandlerFunc(api.MarkAttendanceHandler)))

	// Announcement handlers
	mux.Handle("POST /opportunities/{opportunityID}/announcements", middleware.AuthMiddleware(http.HandlerFunc(api.CreateAnnouncementHandler)))
	mux.Handle("GET /opportunities/{opportunityID}/announcements", middleware.AuthMiddleware(http.HandlerFunc(api.ListAnnouncementsHandler)))

	// Recurring series handlers
	mux.Handle("POST /multi-opportunities", middleware.AuthMiddleware(http.HandlerFunc(api.CreateMultiOpportunityHandler)))
	mux.Handle("GET /multi-opportunities", middleware.AuthMiddleware(http.HandlerFunc(api.ListMultiOpportunitiesHandler)))
	mux.Handle("GET /multi-opportunities/{multiID}", middleware.AuthMiddleware(http.HandlerFunc(api.GetMultiOpportunityHandler)))

	// Organization handlers
	mux.Handle("POST /organizations", middleware.AuthMiddleware(http.HandlerFunc(api.CreateOrganizationHandler)))
	mux.Handle("GET /organizations", middleware.AuthMiddleware(http.HandlerFunc(api.ListOrganizationsHandler)))
	mux.Handle("GET /organizations/{orgID}/members", middleware.AuthMiddleware(http.HandlerFunc(api.ListOrganizationMembersHandler)))
	mux.Handle("POST /organizations/{orgID}/join", middleware.AuthMiddleware(http.HandlerFunc(api.JoinOrganizationHandler)))
	mux.Handle("DELETE /organizations/{orgID}/membership", middleware.AuthMiddleware(http.HandlerFunc(api.LeaveOrganizationHandler)))
	mux.Handle("PATCH /organizations/{orgID}/approve", middleware.AuthMiddleware(http.HandlerFunc(api.ApproveOrganizationHandler)))

	// Friendship handlers
	mux.Handle("POST /users/{targetUserID}/friend-request", middleware.AuthMiddleware(http.HandlerFunc(api.SendFriendRequestHandler)))
	mux.Handle("PATCH /friend-requests/{requesterID}", middleware.AuthMiddleware(http.HandlerFunc(api.RespondFriendRequestHandler)))
	mux.Handle("DELETE /friends/{friendID}", middleware.AuthMiddleware(http.HandlerFunc(api.UnfriendHandler)))
	mux.Handle("GET /friends", middleware.AuthMiddleware(http.HandlerFunc(api.ListFriendsHandler)))

	// Profile & leaderboard
	mux.Handle("GET /users/{userID}/profile", middleware.AuthMiddleware(http.HandlerFunc(api.GetProfileHandler)))
	mux.Handle("GET /leaderboard", middleware.AuthMiddleware(http.HandlerFunc(api.LeaderboardHandler)))

	// Image upload handler
	mux.Handle("POST /upload-image", middleware.AuthMiddleware(http.HandlerFunc(api.ImageUploadHandler)))

	// Notification routes
	mux.Handle("GET /notifications", middleware.AuthMiddleware(http.HandlerFunc(api.GetNotificationsHandler)))
	mux.Handle("GET /notifications/unread-count", middleware.AuthMiddleware(http.HandlerFunc(api.GetUnreadCountHandler)))
	mux.Handle("PATCH /notifications/{notificationID}/read", middleware.AuthMiddleware(http.HandlerFunc(api.MarkNotificationAsReadHandler)))
	mux.Handle("POST /notifications/mark-all-read", middleware.AuthMiddleware(http.HandlerFunc(api.MarkAllNotificationsAsReadHandler)))

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Static file server for uploaded images
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// --- CORS Middleware ---
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true, // Required for cookies!
	})

	handler := c.Handler(mux)

	fmt.Printf("Server running on localhost:%s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
