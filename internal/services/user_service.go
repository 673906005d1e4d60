package services

import (
	"context"
	"errors"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegisterUserInput is the sign-up payload
type RegisterUserInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// SetPasswordInput changes the caller's password
type SetPasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// UserProfile is a user as seen by a viewer
type UserProfile struct {
	User         models.User
	IsSubscribed bool
}

// AuthorSummary is a followed author together with a preview of their recipes
type AuthorSummary struct {
	UserProfile
	Recipes      []models.Recipe
	RecipesCount int64
}

// UserService manages accounts and the follow graph read side
type UserService interface {
	// Register creates a user with a hashed password
	Register(ctx context.Context, input RegisterUserInput) (*models.User, error)
	// Authenticate returns the user for valid credentials, nil otherwise
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetProfile annotates the user with whether viewer follows them
	GetProfile(ctx context.Context, id uint, viewer *uint) (UserProfile, error)
	ListProfiles(ctx context.Context, page Page, viewer *uint) ([]UserProfile, int64, error)
	SetPassword(ctx context.Context, userID uint, input SetPasswordInput) error
	// ListSubscriptions pages through the authors userID follows. recipesLimit < 0 means all recipes.
	ListSubscriptions(ctx context.Context, userID uint, page Page, recipesLimit int) ([]AuthorSummary, int64, error)
	// GetAuthorSummary describes a single author for viewer
	GetAuthorSummary(ctx context.Context, authorID, viewer uint, recipesLimit int) (AuthorSummary, error)
	// PromoteToAdmin grants the admin role
	PromoteToAdmin(ctx context.Context, id uint) error
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	user := models.User{
		Email:     input.Email,
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
		Role:      models.RoleUser,
	}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, &models.User{}, "email", user.Email, "a user with this email already exists"); err != nil {
			return err
		}
		if err := ensureUnique(tx, &models.User{}, "username", user.Username, "a user with this username already exists"); err != nil {
			return err
		}
		return storeError("create user", tx.Create(&user).Error, conflictError("email", "a user with this email or username already exists"))
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, nil
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("id", "user not found")
		}
		return nil, storeError("get user", err, nil)
	}
	return &user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("email", "user not found")
		}
		return nil, storeError("get user by email", err, nil)
	}
	return &user, nil
}

func (s *userService) GetProfile(ctx context.Context, id uint, viewer *uint) (UserProfile, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return UserProfile{}, err
	}
	profiles, err := s.annotate(s.db.WithContext(ctx), []models.User{*user}, viewer)
	if err != nil {
		return UserProfile{}, err
	}
	return profiles[0], nil
}

func (s *userService) ListProfiles(ctx context.Context, page Page, viewer *uint) ([]UserProfile, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, storeError("count users", err, nil)
	}

	var users []models.User
	if err := db.Order("id").Offset(page.Offset()).Limit(page.Size).Find(&users).Error; err != nil {
		return nil, 0, storeError("list users", err, nil)
	}

	profiles, err := s.annotate(db, users, viewer)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (s *userService) SetPassword(ctx context.Context, userID uint, input SetPasswordInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(input.CurrentPassword) {
		return validationError("current_password", "current password is incorrect")
	}

	user.Password = input.NewPassword
	if err := user.HashPassword(); err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&models.User{ID: user.ID}).Update("password", user.Password).Error
	return storeError("set password", err, nil)
}

func (s *userService) ListSubscriptions(ctx context.Context, userID uint, page Page, recipesLimit int) ([]AuthorSummary, int64, error) {
	db := s.db.WithContext(ctx)
	followed := func() *gorm.DB {
		return db.Model(&models.User{}).
			Joins("JOIN follows ON follows.author_id = users.id").
			Where("follows.user_id = ?", userID)
	}

	var total int64
	if err := followed().Count(&total).Error; err != nil {
		return nil, 0, storeError("count subscriptions", err, nil)
	}

	var authors []models.User
	if err := followed().
		Order("follows.created_at DESC").Order("follows.id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&authors).Error; err != nil {
		return nil, 0, storeError("list subscriptions", err, nil)
	}

	summaries := make([]AuthorSummary, 0, len(authors))
	for _, author := range authors {
		summary, err := s.summarize(db, author, true, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func (s *userService) GetAuthorSummary(ctx context.Context, authorID, viewer uint, recipesLimit int) (AuthorSummary, error) {
	profile, err := s.GetProfile(ctx, authorID, &viewer)
	if err != nil {
		return AuthorSummary{}, err
	}
	return s.summarize(s.db.WithContext(ctx), profile.User, profile.IsSubscribed, recipesLimit)
}

func (s *userService) PromoteToAdmin(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", models.RoleAdmin)
	if result.Error != nil {
		return storeError("promote user", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return notFoundError("id", "user not found")
	}
	return nil
}

func (s *userService) summarize(db *gorm.DB, author models.User, subscribed bool, recipesLimit int) (AuthorSummary, error) {
	summary := AuthorSummary{UserProfile: UserProfile{User: author, IsSubscribed: subscribed}}

	if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&summary.RecipesCount).Error; err != nil {
		return AuthorSummary{}, storeError("count author recipes", err, nil)
	}

	limit := recipesLimit
	if limit < 0 {
		limit = -1
	}
	if err := db.Omit(clause.Associations).
		Where("author_id = ?", author.ID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&summary.Recipes).Error; err != nil {
		return AuthorSummary{}, storeError("list author recipes", err, nil)
	}
	return summary, nil
}

func (s *userService) annotate(db *gorm.DB, users []models.User, viewer *uint) ([]UserProfile, error) {
	profiles := make([]UserProfile, len(users))
	for i := range users {
		profiles[i].User = users[i]
	}
	if viewer == nil {
		return profiles, nil
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := idSet(db, &models.Follow{}, "author_id", *viewer, ids)
	if err != nil {
		return nil, storeError("load subscriptions", err, nil)
	}
	for i := range profiles {
		profiles[i].IsSubscribed = followed[profiles[i].User.ID]
	}
	return profiles, nil
}

// ensureUnique reports a conflict on field when a row of model already holds value
func ensureUnique(db *gorm.DB, model interface{}, field string, value interface{}, message string) error {
	var count int64
	if err := db.Model(model).Where(clause.Eq{Column: clause.Column{Name: field}, Value: value}).Count(&count).Error; err != nil {
		return storeError("check "+field, err, nil)
	}
	if count > 0 {
		return conflictError(field, message)
	}
	return nil
}
