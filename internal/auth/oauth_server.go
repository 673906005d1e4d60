package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	oauthErrors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Authenticator checks user credentials. It returns nil, nil for a wrong email or password.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Options configures token issuance
type Options struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	// The default client is used by the JSON login endpoint, which carries no client credentials
	DefaultClientID     string
	DefaultClientSecret string
}

type OAuthService struct {
	server  *server.Server
	manager *manage.Manager
	tokens  *GormTokenStore
	users   Authenticator
	opts    Options
}

// NewOAuthService wires the password grant: users sign in with email and
// password through a registered client and receive a JWT access token
func NewOAuthService(db *gorm.DB, users Authenticator, opts Options) *OAuthService {
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = 24 * time.Hour
	}

	manager := manage.NewDefaultManager()
	manager.SetPasswordTokenCfg(&manage.Config{
		AccessTokenExp:    opts.AccessTokenTTL,
		IsGenerateRefresh: false,
	})

	// Use JWT for access tokens
	manager.MapAccessGenerate(NewCustomJWTAccessGenerate([]byte(opts.JWTSecret), jwt.SigningMethodHS512, db))

	tokenStore := NewGormTokenStore(db)
	manager.MustTokenStorage(tokenStore, nil)
	manager.MapClientStorage(NewGormClientStore(db))

	srv := server.NewDefaultServer(manager)
	srv.SetAllowedGrantType(oauth2.PasswordCredentials)
	srv.SetClientInfoHandler(server.ClientFormHandler)
	srv.SetPasswordAuthorizationHandler(func(ctx context.Context, clientID, username, password string) (string, error) {
		user, err := users.Authenticate(ctx, username, password)
		if err != nil {
			return "", err
		}
		if user == nil {
			log.WithFields(log.Fields{"client_id": clientID}).Info("Rejected password grant")
			return "", nil
		}
		return strconv.FormatUint(uint64(user.ID), 10), nil
	})
	srv.SetInternalErrorHandler(func(err error) *oauthErrors.Response {
		log.WithError(err).Error("OAuth2 internal error")
		return nil
	})

	return &OAuthService{
		server:  srv,
		manager: manager,
		tokens:  tokenStore,
		users:   users,
		opts:    opts,
	}
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}

// Tokens exposes the token store for revocation checks
func (o *OAuthService) Tokens() *GormTokenStore {
	return o.tokens
}

// IssueForUser creates an access token for an already authenticated user
// through the default client
func (o *OAuthService) IssueForUser(ctx context.Context, user *models.User) (oauth2.TokenInfo, error) {
	return o.manager.GenerateAccessToken(ctx, oauth2.PasswordCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     o.opts.DefaultClientID,
		ClientSecret: o.opts.DefaultClientSecret,
		UserID:       strconv.FormatUint(uint64(user.ID), 10),
	})
}

// Revoke deletes the stored access token so the bearer middleware rejects it
func (o *OAuthService) Revoke(ctx context.Context, access string) error {
	return o.manager.RemoveAccessToken(ctx, access)
}
