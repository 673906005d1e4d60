package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// Context keys set by the auth middleware
const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
	ClientIDKey = "clientID"
)

// TokenChecker reports whether an access token is still active (issued and not revoked)
type TokenChecker interface {
	IsActive(ctx context.Context, access string) (bool, error)
}

// OAuth2Auth requires a valid bearer JWT issued by the token endpoint.
// When tokens is non-nil, revoked tokens are rejected as well.
func OAuth2Auth(jwtSecret []byte, tokens TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondWithOAuth2Error(c, http.StatusUnauthorized, "authorization_required",
				"Missing Authorization header. A valid Bearer token is required.")
			return
		}
		authenticate(c, authHeader, jwtSecret, tokens)
	}
}

// OptionalAuth authenticates the caller when an Authorization header is present
// and lets anonymous requests through. A malformed or revoked token is still rejected.
func OptionalAuth(jwtSecret []byte, tokens TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		authenticate(c, authHeader, jwtSecret, tokens)
	}
}

func authenticate(c *gin.Context, authHeader string, jwtSecret []byte, tokens TokenChecker) {
	// RFC 6750 bearer scheme
	if !strings.HasPrefix(authHeader, "Bearer ") {
		respondWithOAuth2Error(c, http.StatusUnauthorized, models.ErrInvalidRequest,
			"Authorization header must use Bearer scheme. Format: 'Bearer <token>'")
		return
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		respondWithOAuth2Error(c, http.StatusUnauthorized, models.ErrInvalidToken, "Bearer token is empty")
		return
	}

	claims, err := parseAndValidateJWT(tokenString, jwtSecret)
	if err != nil {
		respondWithOAuth2Error(c, http.StatusUnauthorized, models.ErrInvalidToken, err.Error())
		return
	}

	if tokens != nil {
		active, err := tokens.IsActive(c.Request.Context(), tokenString)
		if err != nil {
			log.WithError(err).Error("Token lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				models.NewAPIError(models.ErrInternalServer, "token lookup failed"))
			return
		}
		if !active {
			respondWithOAuth2Error(c, http.StatusUnauthorized, models.ErrInvalidToken, "token has been revoked")
			return
		}
	}

	if err := extractAndSetClaims(c, claims); err != nil {
		respondWithOAuth2Error(c, http.StatusUnauthorized, models.ErrInvalidToken, err.Error())
		return
	}

	c.Next()
}

// CurrentUserID returns the authenticated user, if any
func CurrentUserID(c *gin.Context) (uint, bool) {
	id, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := id.(uint)
	return uid, ok && uid != 0
}

// Viewer returns the authenticated user id or nil for anonymous requests
func Viewer(c *gin.Context) *uint {
	if id, ok := CurrentUserID(c); ok {
		return &id
	}
	return nil
}

// respondWithOAuth2Error responds with RFC 6750 compliant error format
func respondWithOAuth2Error(c *gin.Context, status int, errorCode, description string) {
	c.AbortWithStatusJSON(status, models.NewOAuth2Error(errorCode, description))
}

// parseJWTToken verifies the HMAC signature and returns the claims
func parseJWTToken(tokenString string, jwtSecret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// reject alg switching
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v. Expected HMAC", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims format")
	}
	return claims, nil
}

// parseAndValidateJWT parses the JWT and checks its time claims
func parseAndValidateJWT(tokenString string, jwtSecret []byte) (jwt.MapClaims, error) {
	claims, err := parseJWTToken(tokenString, jwtSecret)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp == nil {
		return nil, fmt.Errorf("token missing required 'exp' claim")
	}
	if exp.Before(now) {
		return nil, fmt.Errorf("token has expired")
	}

	nbf, err := claims.GetNotBefore()
	if err != nil {
		return nil, fmt.Errorf("invalid nbf claim: %w", err)
	}
	if nbf != nil && nbf.After(now) {
		return nil, fmt.Errorf("token not yet valid")
	}

	return claims, nil
}

// extractAndSetClaims copies user id, role and client from the claims into the gin context
func extractAndSetClaims(c *gin.Context, claims jwt.MapClaims) error {
	userID, err := extractUserID(claims)
	if err != nil {
		return err
	}
	if userID == 0 {
		return fmt.Errorf("invalid user identifier: cannot be zero")
	}
	c.Set(UserIDKey, userID)

	if aud, ok := claims["aud"].(string); ok && aud != "" {
		c.Set(ClientIDKey, aud)
	} else if audArray, ok := claims["aud"].([]interface{}); ok && len(audArray) > 0 {
		if firstAud, ok := audArray[0].(string); ok && firstAud != "" {
			c.Set(ClientIDKey, firstAud)
		}
	}

	role, err := extractRole(claims)
	if err != nil {
		return err
	}
	c.Set(UserRoleKey, role)

	return nil
}

// extractUserID reads the "uid" claim, which the token endpoint writes as a numeric string
func extractUserID(claims jwt.MapClaims) (uint, error) {
	if uid, ok := claims["uid"].(string); ok && uid != "" {
		parsedID, err := strconv.ParseUint(uid, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid uid claim format: must be a numeric string, got: %s", uid)
		}
		return uint(parsedID), nil
	}

	// JSON numbers decode as float64
	if uid, ok := claims["uid"].(float64); ok {
		if uid <= 0 {
			return 0, fmt.Errorf("invalid uid claim: must be positive, got: %f", uid)
		}
		return uint(uid), nil
	}

	return 0, fmt.Errorf("token missing required 'uid' claim. This token is not valid for this API")
}

// extractRole requires an explicit, known role claim
func extractRole(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", fmt.Errorf("token missing required 'role' claim")
	}

	switch role {
	case models.RoleAdmin, models.RoleUser:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role '%s'. Allowed roles: admin, user", role)
	}
}
