package auth

import (
	"net/http"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// LoginRequest is the JSON body accepted by HandleLogin
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned after a successful sign in
type TokenResponse struct {
	AuthToken   string `json:"auth_token"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleToken is the OAuth2 token endpoint
// @Summary Token endpoint
// @Description Exchange user credentials for a bearer token (password grant)
// @Tags Auth
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Must be password"
// @Param client_id formData string true "Client ID"
// @Param client_secret formData string true "Client secret"
// @Param username formData string true "User email"
// @Param password formData string true "User password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Router /api/auth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	if err := o.server.HandleTokenRequest(c.Writer, c.Request); err != nil {
		log.WithError(err).Warn("Failed to write token response")
	}
}

// HandleLogin signs in with a JSON body through the default client
// @Summary Login
// @Description Exchange email and password for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} models.OAuth2Error
// @Router /api/auth/token/login [post]
func (o *OAuthService) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, "email and password are required"))
		return
	}

	user, err := o.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.WithError(err).Error("Login failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "login failed"))
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidGrant, "unable to log in with the provided credentials"))
		return
	}

	ti, err := o.IssueForUser(c.Request.Context(), user)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Token generation failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "token generation failed"))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AuthToken:   ti.GetAccess(),
		AccessToken: ti.GetAccess(),
		TokenType:   "Bearer",
		ExpiresIn:   int64(ti.GetAccessExpiresIn().Seconds()),
	})
}

// HandleLogout revokes the bearer token of the request
// @Summary Logout
// @Description Revoke the current access token
// @Tags Auth
// @Success 204
// @Failure 401 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /api/auth/token/logout [post]
func (o *OAuthService) HandleLogout(c *gin.Context) {
	access := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := o.Revoke(c.Request.Context(), access); err != nil {
		log.WithError(err).Error("Token revocation failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "logout failed"))
		return
	}
	c.Status(http.StatusNoContent)
}
