package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/sisifo/internal/store"
)

// listUsers returns every account ordered by username
func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.store.ListUsers(req.Context())
	if err != nil {
		log.Printf("❌ Failed to fetch users: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// updateUserStatus enables or disables an account
func (r *Router) updateUserStatus(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.IsActive == nil {
		respondError(w, http.StatusBadRequest, "is_active is required")
		return
	}

	actor := currentUser(req)
	if actor.ID == id && !*body.IsActive {
		respondError(w, http.StatusBadRequest, "Administrators cannot disable themselves")
		return
	}

	user, err := r.store.SetUserActive(req.Context(), id, *body.IsActive)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("❌ Failed to update user %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to update status")
		return
	}

	log.Printf("👮 %s set %s active=%t", actor.Username, user.Username, user.IsActive)
	respondJSON(w, http.StatusOK, user)
}
