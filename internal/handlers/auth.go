package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/store"
	"github.com/xelth-com/sisifo/internal/utils"
)

const minPasswordLength = 6

// LoginRequest represents a login request; login may be a username or email
type LoginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	login := firstNonEmpty(loginReq.Login, loginReq.Username, loginReq.Email)
	if login == "" || loginReq.Password == "" {
		respondError(w, http.StatusBadRequest, "Login and password are required")
		return
	}

	// 1. Find User
	user, err := r.store.GetUserByLogin(req.Context(), login)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 2. Check Password
	if !utils.CheckPasswordHash(loginReq.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusUnauthorized, "User is disabled")
		return
	}

	// 3. Update Last Login
	now := time.Now().UTC()
	if err := r.store.TouchLogin(req.Context(), user.ID, now); err != nil {
		log.Printf("⚠️ Failed to record login for %s: %v", user.Username, err)
	}
	user.LastLogin = &now

	r.respondWithTokens(w, http.StatusOK, "", user)
}

// register creates an officer account and logs it in
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var regReq RegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&regReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	regReq.Username = strings.TrimSpace(regReq.Username)
	regReq.Email = strings.TrimSpace(regReq.Email)
	if regReq.Username == "" || regReq.Email == "" {
		respondError(w, http.StatusBadRequest, "Username and email are required")
		return
	}
	if len(regReq.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "Password must have at least 6 characters")
		return
	}

	// 1. Hash Password
	hashedPassword, err := utils.HashPassword(regReq.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	// 2. Create User
	user := &models.User{
		Username: regReq.Username,
		Email:    regReq.Email,
		Password: hashedPassword,
		Name:     strings.TrimSpace(regReq.Name),
		Role:     models.RoleOfficer,
		IsActive: true,
	}
	if err := r.store.CreateUser(req.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusConflict, "Email or username already exists")
			return
		}
		log.Printf("❌ Failed to register %s: %v", user.Username, err)
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	log.Printf("👤 Registered officer %s", user.Username)

	// 3. Generate Tokens for immediate login
	r.respondWithTokens(w, http.StatusCreated, "User registered successfully", user)
}

// refresh exchanges a refresh token for a new token pair
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	userID, err := utils.UserIDFromToken(body.RefreshToken, r.cfg.JWTSecret, utils.TokenTypeRefresh)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	user, err := r.store.GetUser(req.Context(), userID)
	if err != nil || !user.IsActive {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	r.respondWithTokens(w, http.StatusOK, "", user)
}

// me returns the authenticated user
func (r *Router) me(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, currentUser(req))
}

func (r *Router) respondWithTokens(w http.ResponseWriter, status int, message string, user *models.User) {
	accessToken, refreshToken, err := utils.GenerateTokens(user, r.cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}
	respondMessage(w, status, message, map[string]interface{}{
		"tokens": tokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		"user":   user,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
