package services

import (
	"context"
	"errors"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TagCache keeps the full tag list, which is read on nearly every page
type TagCache interface {
	GetTags(ctx context.Context) ([]models.Tag, bool)
	SetTags(ctx context.Context, tags []models.Tag)
	Invalidate(ctx context.Context)
}

// CreateTagInput is the admin payload for a new tag
type CreateTagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// TagService reads and manages tags
type TagService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTagByID(ctx context.Context, id uint) (*models.Tag, error)
	CreateTag(ctx context.Context, input CreateTagInput) (*models.Tag, error)
}

type tagService struct {
	db    *gorm.DB
	cache TagCache
}

// NewTagService creates a TagService. cache may be nil.
func NewTagService(db *gorm.DB, cache TagCache) TagService {
	return &tagService{db: db, cache: cache}
}

func (s *tagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	if s.cache != nil {
		if tags, ok := s.cache.GetTags(ctx); ok {
			return tags, nil
		}
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, storeError("list tags", err, nil)
	}
	if s.cache != nil {
		s.cache.SetTags(ctx, tags)
	}
	return tags, nil
}

func (s *tagService) GetTagByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("id", "tag not found")
		}
		return nil, storeError("get tag", err, nil)
	}
	return &tag, nil
}

func (s *tagService) CreateTag(ctx context.Context, input CreateTagInput) (*models.Tag, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Slug = strings.TrimSpace(input.Slug)
	input.Color = strings.ToUpper(strings.TrimSpace(input.Color))
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	tag := models.Tag{Name: input.Name, Slug: input.Slug, Color: input.Color}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, field := range []struct{ column, value string }{
			{"name", tag.Name}, {"slug", tag.Slug}, {"color", tag.Color},
		} {
			if err := ensureUnique(tx, &models.Tag{}, field.column, field.value, "a tag with this "+field.column+" already exists"); err != nil {
				return err
			}
		}
		return storeError("create tag", tx.Create(&tag).Error, nil)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	log.WithFields(log.Fields{"tag_id": tag.ID, "slug": tag.Slug}).Info("Tag created")
	return &tag, nil
}
