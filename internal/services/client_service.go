package services

import (
	"context"
	"errors"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateClientInput registers an OAuth2 client allowed to use the password grant
type CreateClientInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Domain string `json:"domain" validate:"omitempty,url"`
	Scopes string `json:"scopes"`
}

// IssuedClient carries the plain secret, which is only available at creation
type IssuedClient struct {
	Client models.OAuthClient
	Secret string
}

// ClientService manages registered OAuth2 clients
type ClientService interface {
	CreateClient(ctx context.Context, ownerID uint, input CreateClientInput) (*IssuedClient, error)
	ListClients(ctx context.Context) ([]models.OAuthClient, error)
	GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error)
	DeleteClient(ctx context.Context, id string) error
	// EnsureClient creates the client with a fixed id and secret unless it already exists
	EnsureClient(ctx context.Context, id, secret, name string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(ctx context.Context, ownerID uint, input CreateClientInput) (*IssuedClient, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	secret := uuid.NewString()
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	client := models.OAuthClient{
		ID:     uuid.NewString(),
		Secret: string(hashed),
		Name:   input.Name,
		Domain: input.Domain,
		Scopes: input.Scopes,
		UserID: ownerID,
	}
	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, storeError("create client", err, nil)
	}

	log.WithFields(log.Fields{"client_id": client.ID, "owner_id": ownerID}).Info("OAuth client registered")
	return &IssuedClient{Client: client, Secret: secret}, nil
}

func (s *clientService) ListClients(ctx context.Context) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.WithContext(ctx).Order("created_at").Find(&clients).Error; err != nil {
		return nil, storeError("list clients", err, nil)
	}
	return clients, nil
}

func (s *clientService) GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("id", "client not found")
		}
		return nil, storeError("get client", err, nil)
	}
	return &client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OAuthClient{})
	if result.Error != nil {
		return storeError("delete client", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return notFoundError("id", "client not found")
	}
	return nil
}

func (s *clientService) EnsureClient(ctx context.Context, id, secret, name string) error {
	_, err := s.GetClientByID(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	client := models.OAuthClient{ID: id, Secret: string(hashed), Name: name}
	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		return storeError("seed client", err, nil)
	}
	log.WithField("client_id", id).Info("Seeded OAuth client")
	return nil
}
