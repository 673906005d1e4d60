package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Action selects whether a toggle adds or removes the association
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// RelationService toggles the per-user associations: favorites, the shopping
// list and author subscriptions. Adding an existing pair is a conflict,
// removing a missing pair is not found.
type RelationService interface {
	ToggleFavorite(ctx context.Context, userID, recipeID uint, action Action) (*models.Recipe, error)
	ToggleShoppingList(ctx context.Context, userID, recipeID uint, action Action) (*models.Recipe, error)
	// ToggleFollow fails validation when userID and authorID are the same user
	ToggleFollow(ctx context.Context, userID, authorID uint, action Action) (*models.User, error)
}

type relationService struct {
	db *gorm.DB
}

func NewRelationService(db *gorm.DB) RelationService {
	return &relationService{db: db}
}

// pairSpec describes one association table keyed by (user_id, targetColumn)
type pairSpec struct {
	name         string
	targetColumn string
	model        func() interface{}
	row          func(userID, targetID uint) interface{}
}

var (
	favoritePairs = pairSpec{
		name:         "favorites",
		targetColumn: "recipe_id",
		model:        func() interface{} { return &models.Favorite{} },
		row: func(userID, targetID uint) interface{} {
			return &models.Favorite{UserID: userID, RecipeID: targetID}
		},
	}
	shoppingListPairs = pairSpec{
		name:         "shopping list",
		targetColumn: "recipe_id",
		model:        func() interface{} { return &models.ShoppingListEntry{} },
		row: func(userID, targetID uint) interface{} {
			return &models.ShoppingListEntry{UserID: userID, RecipeID: targetID}
		},
	}
	followPairs = pairSpec{
		name:         "subscriptions",
		targetColumn: "author_id",
		model:        func() interface{} { return &models.Follow{} },
		row: func(userID, targetID uint) interface{} {
			return &models.Follow{UserID: userID, AuthorID: targetID}
		},
	}
)

func (s *relationService) ToggleFavorite(ctx context.Context, userID, recipeID uint, action Action) (*models.Recipe, error) {
	return s.toggleRecipe(ctx, favoritePairs, userID, recipeID, action)
}

func (s *relationService) ToggleShoppingList(ctx context.Context, userID, recipeID uint, action Action) (*models.Recipe, error) {
	return s.toggleRecipe(ctx, shoppingListPairs, userID, recipeID, action)
}

func (s *relationService) ToggleFollow(ctx context.Context, userID, authorID uint, action Action) (*models.User, error) {
	if userID == authorID {
		return nil, validationError("author", "you cannot subscribe to yourself")
	}

	var author models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&author, authorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("id", "user not found")
			}
			return storeError("get author", err, nil)
		}
		return togglePair(tx, followPairs, userID, authorID, action)
	})
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (s *relationService) toggleRecipe(ctx context.Context, spec pairSpec, userID, recipeID uint, action Action) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("id", "recipe not found")
			}
			return storeError("get recipe", err, nil)
		}
		return togglePair(tx, spec, userID, recipeID, action)
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func togglePair(tx *gorm.DB, spec pairSpec, userID, targetID uint, action Action) error {
	logger := log.WithFields(log.Fields{"relation": spec.name, "user_id": userID, "target_id": targetID})

	switch action {
	case ActionAdd:
		err := tx.Omit(clause.Associations).Create(spec.row(userID, targetID)).Error
		if err != nil {
			return storeError("add to "+spec.name, err,
				conflictError(spec.targetColumn, fmt.Sprintf("already in %s", spec.name)))
		}
		logger.Debug("Relation added")
		return nil
	case ActionRemove:
		result := tx.Where("user_id = ?", userID).
			Where(spec.targetColumn+" = ?", targetID).
			Delete(spec.model())
		if result.Error != nil {
			return storeError("remove from "+spec.name, result.Error, nil)
		}
		if result.RowsAffected == 0 {
			return notFoundError(spec.targetColumn, fmt.Sprintf("not in %s", spec.name))
		}
		logger.Debug("Relation removed")
		return nil
	default:
		return validationError("action", fmt.Sprintf("unknown action %q", action))
	}
}
