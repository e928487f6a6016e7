package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by JWTMiddleware
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
)

// Token types carried in the claims
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

const (
	accessTTL  = 24 * time.Hour
	refreshTTL = 7 * 24 * time.Hour
)

// ToolKeyHeader carries the shared key of voice agent tool calls
const ToolKeyHeader = "X-Tool-Key"

// Claims represents JWT claims
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenType string    `json:"typ"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

func (j *JWTService) sign(claims Claims, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims.TokenType = tokenType
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// GenerateToken generates an access token for a user
func (j *JWTService) GenerateToken(claims Claims) (string, time.Time, error) {
	return j.sign(claims, TokenAccess, accessTTL)
}

// GenerateRefreshToken generates a refresh token with longer expiration
func (j *JWTService) GenerateRefreshToken(claims Claims) (string, time.Time, error) {
	return j.sign(claims, TokenRefresh, refreshTTL)
}

func (j *JWTService) parse(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("expected %s token, got %q", tokenType, claims.TokenType)
	}
	return claims, nil
}

// ValidateToken validates an access token and returns its claims
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, TokenAccess)
}

// ValidateRefreshToken validates a refresh token and returns its claims
func (j *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, TokenRefresh)
}

// GenerateJWT is a convenience function that creates a JWT service and generates a token
func GenerateJWT(userID uuid.UUID, role, secret string) (string, time.Time, error) {
	return NewJWTService(secret).GenerateToken(Claims{UserID: userID, Role: role})
}

// abort ends the request with the API error envelope
func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
		"timestamp": time.Now().UTC(),
	})
}

// JWTMiddleware validates the bearer access token, falling back to the
// auth_token cookie
func JWTMiddleware(secret string) gin.HandlerFunc {
	service := NewJWTService(secret)
	return func(c *gin.Context) {
		tokenString := ""
		if header := c.GetHeader("Authorization"); header != "" {
			tokenString = strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
				return
			}
		} else if cookie, err := c.Cookie("auth_token"); err == nil {
			tokenString = cookie
		}
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		claims, err := service.ValidateToken(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole allows the request only when JWTMiddleware stored one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(UserRoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
	}
}

// ToolKeyMiddleware authenticates voice agent tool calls by shared key.
// An empty configured key rejects every call.
func ToolKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(ToolKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tool key")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
