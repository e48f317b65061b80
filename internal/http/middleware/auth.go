package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

const sessionClaimsKey = "sessionClaims"

// SessionClaims is the platform session token payload minted by the login
// service. This service only verifies; it never mints.
type SessionClaims struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Email  string `json:"email"`
}

// Auth validates the Authorization header against the shared session secret
// and attaches claims for handlers.
type Auth struct {
	Secret []byte
}

// ValidateSession ensures the request carries a valid bearer token.
func (m *Auth) ValidateSession(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization header required."})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Bearer token required."})
		return
	}

	parsed, err := gojwt.ParseSigned(parts[1], []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid session token."})
		return
	}
	var std gojwt.Claims
	var custom SessionClaims
	if err := parsed.Claims(m.Secret, &std, &custom); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid session token."})
		return
	}
	if err := std.ValidateWithLeeway(gojwt.Expected{Time: time.Now()}, time.Minute); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Session expired."})
		return
	}
	if custom.UserID == "" {
		custom.UserID = std.Subject
	}

	c.Set(sessionClaimsKey, &custom)
	c.Next()
}

// GetSessionClaims exposes the verified session claims to handlers.
func GetSessionClaims(c *gin.Context) (*SessionClaims, bool) {
	value, ok := c.Get(sessionClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*SessionClaims)
	return claims, ok
}
