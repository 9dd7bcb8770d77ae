package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xelth-com/sisifo/internal/config"
	"github.com/xelth-com/sisifo/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	accessTTL  = 12 * time.Hour // one duty shift
	refreshTTL = 90 * 24 * time.Hour
	bcryptCost = 10
)

var (
	errWrongTokenType = errors.New("wrong token type")
	errNoSubject      = errors.New("token has no subject")
)

// Claims carried by access and refresh tokens. Refresh tokens only carry
// UserID and Type.
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hash), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateTokens issues an access token for one shift and a long-lived
// refresh token
func GenerateTokens(user *models.User, cfg *config.Config) (string, string, error) {
	now := time.Now()

	access, err := sign(Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		Type:     TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
	}, cfg.JWTSecret)
	if err != nil {
		return "", "", err
	}

	refresh, err := sign(Claims{
		UserID: user.ID,
		Type:   TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTTL)),
		},
	}, cfg.JWTSecret)
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

func sign(claims Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken parses an HS256 token and checks its signature and expiry
func ValidateToken(tokenString string, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// UserIDFromToken validates a token of the given type and returns its user id
func UserIDFromToken(tokenString, secret, tokenType string) (string, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return "", err
	}
	if claims.Type != tokenType {
		return "", errWrongTokenType
	}
	if claims.UserID == "" {
		return "", errNoSubject
	}
	return claims.UserID, nil
}
