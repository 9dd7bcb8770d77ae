package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/sisifo/internal/config"
	"github.com/xelth-com/sisifo/internal/models"
	"github.com/xelth-com/sisifo/internal/store"
	"github.com/xelth-com/sisifo/internal/utils"
)

const secret = "middleware-test-secret"

func setup(t *testing.T) (*store.MemoryStore, *models.User, *models.User) {
	t.Helper()
	st := store.NewMemoryStore()
	ctx := context.Background()

	officer := &models.User{Username: "jperez", Email: "jperez@mdpp.example", Role: models.RoleOfficer, IsActive: true}
	require.NoError(t, st.CreateUser(ctx, officer))
	disabled := &models.User{Username: "baja", Email: "baja@mdpp.example", Role: models.RoleAdmin, IsActive: false}
	require.NoError(t, st.CreateUser(ctx, disabled))
	return st, officer, disabled
}

func tokensFor(t *testing.T, u *models.User) (string, string) {
	t.Helper()
	access, refresh, err := utils.GenerateTokens(u, &config.Config{JWTSecret: secret})
	require.NoError(t, err)
	return access, refresh
}

func whoami(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUserFromContext(r.Context())
	w.Write([]byte(user.Username))
}

func TestAuthMiddleware(t *testing.T) {
	st, officer, disabled := setup(t)
	handler := AuthMiddleware(secret, st)(http.HandlerFunc(whoami))

	access, refresh := tokensFor(t, officer)
	disabledAccess, _ := tokensFor(t, disabled)
	ghostAccess, _ := tokensFor(t, &models.User{ID: "ghost", Role: models.RoleAdmin})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + access, http.StatusOK},
		{"lowercase scheme", "bearer " + access, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"bad format", "Token " + access, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"disabled user", "Bearer " + disabledAccess, http.StatusUnauthorized},
		{"unknown user", "Bearer " + ghostAccess, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "jperez", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	st, officer, _ := setup(t)
	admin := &models.User{Username: "admin", Email: "admin@mdpp.example", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, st.CreateUser(context.Background(), admin))

	handler := AuthMiddleware(secret, st)(RequireRole(models.RoleAdmin, models.RoleCallCenter)(http.HandlerFunc(whoami)))

	officerToken, _ := tokensFor(t, officer)
	adminToken, _ := tokensFor(t, admin)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+officerToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	RequireRole(models.RoleAdmin)(http.HandlerFunc(whoami)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_WebsocketQueryToken(t *testing.T) {
	st, officer, _ := setup(t)
	handler := AuthMiddleware(secret, st)(http.HandlerFunc(whoami))
	access, _ := tokensFor(t, officer)

	req := httptest.NewRequest(http.MethodGet, "/api/events/ws?access_token="+access, nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// plain requests must use the header
	req = httptest.NewRequest(http.MethodGet, "/api/reports?access_token="+access, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
