package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("middleware-test-secret")

func signToken(t *testing.T, claims jwt.MapClaims, secret []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"uid":  "7",
		"role": models.RoleUser,
		"aud":  "web",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

type fakeTokens struct {
	revoked map[string]bool
	err     error
}

func (f *fakeTokens) IsActive(_ context.Context, access string) (bool, error) {
	return !f.revoked[access], f.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":   userID,
			"anonymous": Viewer(c) == nil,
			"role":      c.GetString(UserRoleKey),
			"client":    c.GetString(ClientIDKey),
		})
	})
	router.GET("/test", handlers...)
	return router
}

func get(router http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOAuth2Auth(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	noExp := validClaims()
	delete(noExp, "exp")
	badRole := validClaims()
	badRole["role"] = "superuser"
	noUID := validClaims()
	delete(noUID, "uid")
	numericUID := validClaims()
	numericUID["uid"] = 7

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantError string
	}{
		{"missing header", "", http.StatusUnauthorized, "authorization_required"},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, models.ErrInvalidRequest},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, models.ErrInvalidToken},
		{"wrong secret", "Bearer " + signToken(t, validClaims(), []byte("other")), http.StatusUnauthorized, models.ErrInvalidToken},
		{"alg none", "Bearer " + noneToken, http.StatusUnauthorized, models.ErrInvalidToken},
		{"expired", "Bearer " + signToken(t, expired, testSecret), http.StatusUnauthorized, models.ErrInvalidToken},
		{"missing exp", "Bearer " + signToken(t, noExp, testSecret), http.StatusUnauthorized, models.ErrInvalidToken},
		{"unknown role", "Bearer " + signToken(t, badRole, testSecret), http.StatusUnauthorized, models.ErrInvalidToken},
		{"missing uid", "Bearer " + signToken(t, noUID, testSecret), http.StatusUnauthorized, models.ErrInvalidToken},
		{"numeric uid", "Bearer " + signToken(t, numericUID, testSecret), http.StatusOK, ""},
		{"valid", "Bearer " + signToken(t, validClaims(), testSecret), http.StatusOK, ""},
	}

	router := newRouter(OAuth2Auth(testSecret, nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.header)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantError != "" {
				assert.Contains(t, w.Body.String(), `"error":"`+tt.wantError+`"`)
			} else {
				assert.JSONEq(t, `{"user_id":7,"anonymous":false,"role":"user","client":"web"}`, w.Body.String())
			}
		})
	}
}

func TestOAuth2AuthRevocation(t *testing.T) {
	live := signToken(t, validClaims(), testSecret)
	claims := validClaims()
	claims["jti"] = "other"
	revoked := signToken(t, claims, testSecret)

	tokens := &fakeTokens{revoked: map[string]bool{revoked: true}}
	router := newRouter(OAuth2Auth(testSecret, tokens))

	assert.Equal(t, http.StatusOK, get(router, "Bearer "+live).Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer "+revoked).Code)

	tokens.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, get(router, "Bearer "+live).Code)
}

func TestOptionalAuth(t *testing.T) {
	router := newRouter(OptionalAuth(testSecret, &fakeTokens{}))

	w := get(router, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"anonymous":true,"role":"","client":""}`, w.Body.String())

	w = get(router, "Bearer "+signToken(t, validClaims(), testSecret))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anonymous":false`)

	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer broken").Code)
}

func TestRequireRole(t *testing.T) {
	admin := validClaims()
	admin["role"] = models.RoleAdmin

	router := newRouter(OAuth2Auth(testSecret, nil), RequireRole(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, get(router, "Bearer "+signToken(t, admin, testSecret)).Code)

	w := get(router, "Bearer "+signToken(t, validClaims(), testSecret))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrForbidden)

	anonymous := newRouter(RequireRole(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, get(anonymous, "").Code)
}

func TestRequestID(t *testing.T) {
	router := newRouter(RequestID(), RequestLogger())

	w := get(router, "")
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	router := newRouter(Metrics())

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/test", "200"))
	get(router, "")
	get(router, "")
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/test", "200"))
	assert.Equal(t, before+2, after)
	assert.Positive(t, testutil.CollectAndCount(HTTPRequestDuration))
}
