package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateIngredientInput names an ingredient and the unit it is measured in
type CreateIngredientInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

// ImportResult counts the outcome of a bulk ingredient load
type ImportResult struct {
	Created int
	Skipped int
}

// IngredientService reads and manages the ingredient catalogue
type IngredientService interface {
	// SearchIngredients returns ingredients whose name starts with prefix, case-sensitively.
	// An empty prefix returns every ingredient.
	SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error)
	CreateIngredient(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error)
	// ImportIngredients creates the missing (name, unit) pairs and skips existing ones
	ImportIngredients(ctx context.Context, rows []CreateIngredientInput) (ImportResult, error)
}

type ingredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) IngredientService {
	return &ingredientService{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *ingredientService) SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix != "" {
		// LIKE narrows the scan, substr keeps the match case-sensitive on sqlite
		query = query.
			Where(`name LIKE ? ESCAPE '\'`, likeEscaper.Replace(prefix)+"%").
			Where("substr(name, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, storeError("search ingredients", err, nil)
	}
	return ingredients, nil
}

func (s *ingredientService) GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("id", "ingredient not found")
		}
		return nil, storeError("get ingredient", err, nil)
	}
	return &ingredient, nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error) {
	input = normalizeIngredient(input)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	ingredient := models.Ingredient{Name: input.Name, MeasurementUnit: input.MeasurementUnit}
	err := s.db.WithContext(ctx).Create(&ingredient).Error
	if err != nil {
		return nil, storeError("create ingredient", err,
			conflictError("name", "an ingredient with this name and measurement unit already exists"))
	}
	return &ingredient, nil
}

func (s *ingredientService) ImportIngredients(ctx context.Context, rows []CreateIngredientInput) (ImportResult, error) {
	var result ImportResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			row = normalizeIngredient(row)
			if err := validateStruct(row); err != nil {
				var serviceErr *ServiceError
				if errors.As(err, &serviceErr) {
					serviceErr.Message = "row " + strconv.Itoa(i+1) + ": " + serviceErr.Message
				}
				return err
			}

			var existing int64
			if err := tx.Model(&models.Ingredient{}).
				Where("name = ? AND measurement_unit = ?", row.Name, row.MeasurementUnit).
				Count(&existing).Error; err != nil {
				return storeError("import ingredient", err, nil)
			}
			if existing > 0 {
				result.Skipped++
				continue
			}

			ingredient := models.Ingredient{Name: row.Name, MeasurementUnit: row.MeasurementUnit}
			if err := tx.Create(&ingredient).Error; err != nil {
				return storeError("import ingredient", err, nil)
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	log.WithFields(log.Fields{"created": result.Created, "skipped": result.Skipped}).Info("Ingredients imported")
	return result, nil
}

func normalizeIngredient(in CreateIngredientInput) CreateIngredientInput {
	return CreateIngredientInput{
		Name:            strings.TrimSpace(in.Name),
		MeasurementUnit: strings.TrimSpace(in.MeasurementUnit),
	}
}
