package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/xelth-com/sisifo/internal/buildinfo"
	"github.com/xelth-com/sisifo/internal/config"
	"github.com/xelth-com/sisifo/internal/middleware"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/services/reports"
	"github.com/xelth-com/sisifo/internal/storage"
	"github.com/xelth-com/sisifo/internal/store"
	"github.com/xelth-com/sisifo/internal/utils"
	"github.com/xelth-com/sisifo/internal/websocket"
)

// retryWindow is how long an Idempotency-Key maps to the parte it created
const retryWindow = 30 * time.Minute

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	cfg     *config.Config
	store   store.Store
	files   storage.FileStore
	reports *reports.Service
	recent  *utils.Deduplicator
	hub     *websocket.Hub
}

// NewRouter creates a new HTTP router with all routes. hub may be nil, in
// which case the live event feed is not mounted.
func NewRouter(cfg *config.Config, st store.Store, files storage.FileStore, svc *reports.Service, hub *websocket.Hub) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		cfg:     cfg,
		store:   st,
		files:   files,
		reports: svc,
		recent:  utils.NewDeduplicator(retryWindow),
		hub:     hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.HandleFunc("/api/status", r.getStatus).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/refresh", r.refresh).Methods("POST")

	// Everything below requires a valid access token
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret, st))

	api.HandleFunc("/me", r.me).Methods("GET")

	api.HandleFunc("/reports", r.createReport).Methods("POST")
	api.HandleFunc("/reports", r.listReports).Methods("GET")
	api.HandleFunc("/reports/export", r.exportReports).Methods("GET")
	api.HandleFunc("/reports/{id:[0-9]+}", r.getReport).Methods("GET")
	api.HandleFunc("/reports/{id:[0-9]+}", r.updateReport).Methods("PUT", "PATCH")
	api.HandleFunc("/reports/{id:[0-9]+}/close", r.closeReport).Methods("PUT", "POST")
	api.HandleFunc("/reports/{id:[0-9]+}/pdf", r.reportPDF).Methods("GET")
	api.HandleFunc("/reports/{id:[0-9]+}/bundle", r.reportBundle).Methods("GET")

	api.HandleFunc("/aggregations/zones", r.zoneAggregation).Methods("GET")
	api.HandleFunc("/aggregations/zones/export", r.exportZoneAggregation).Methods("GET")

	consoleOnly := middleware.RequireRole(models.RoleCallCenter, models.RoleAdmin)
	api.Handle("/aggregations/users", consoleOnly(http.HandlerFunc(r.userAggregation))).Methods("GET")
	if hub != nil {
		api.Handle("/events/ws", consoleOnly(http.HandlerFunc(r.eventsFeed))).Methods("GET")
	}

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/users", r.listUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/status", r.updateUserStatus).Methods("PUT")

	// Local evidence files; S3 evidence is fetched from the bucket directly
	if local, ok := files.(*storage.LocalStore); ok {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Root()))))
	}

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// getStatus returns build and runtime details
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":       "running",
		"env":          r.cfg.NodeEnv,
		"store":        r.cfg.StoreDriver,
		"storage":      r.cfg.Storage.Driver,
		"build_time":   buildinfo.BuildTime,
		"commit_hash":  buildinfo.CommitHash,
		"commit_time":  buildinfo.CommitTime,
		"started_at":   buildinfo.StartTime,
		"uptime":       buildinfo.Uptime().String(),
		"events_topic": r.cfg.Events.Topic,
	})
}

// eventsFeed streams lifecycle events to a console over a websocket
func (r *Router) eventsFeed(w http.ResponseWriter, req *http.Request) {
	websocket.ServeWs(r.hub, w, req, currentUser(req).ID)
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// respondJSON sends a successful JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// respondMessage sends a successful response carrying a message
func respondMessage(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondServiceError maps service errors onto HTTP statuses. Storage and
// unexpected errors are logged and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, reports.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reports.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reports.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, reports.ErrAuth):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, reports.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("❌ %s %s: %v", req.Method, req.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func reportID(req *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// currentUser is set by AuthMiddleware on every /api route
func currentUser(req *http.Request) *models.User {
	user, _ := middleware.GetUserFromContext(req.Context())
	return user
}
