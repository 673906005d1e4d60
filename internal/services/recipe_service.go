package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxRecipeNameLength = 200

// RecipeRules bounds user supplied recipe values
type RecipeRules struct {
	CookingTimeMin int
	CookingTimeMax int
}

// DefaultRecipeRules allows one minute to ten hours
var DefaultRecipeRules = RecipeRules{CookingTimeMin: 1, CookingTimeMax: 600}

// RecipeFilter narrows a recipe listing. Tags match by slug and combine as a union.
type RecipeFilter struct {
	Tags             []string
	AuthorID         *uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// IngredientAmount references an existing ingredient with the quantity used
type IngredientAmount struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"gte=1"`
}

// CreateRecipeInput is the full recipe payload
type CreateRecipeInput struct {
	Name        string             `json:"name" validate:"required"`
	Text        string             `json:"text" validate:"required"`
	CookingTime int                `json:"cooking_time"`
	Image       string             `json:"image"`
	Tags        []uint             `json:"tags" validate:"required,min=1"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1,dive"`
}

// UpdateRecipeInput changes the fields that are present. A nil slice leaves the
// association untouched, a present one replaces it. An empty image removes it.
type UpdateRecipeInput struct {
	Name        *string            `json:"name"`
	Text        *string            `json:"text"`
	CookingTime *int               `json:"cooking_time"`
	Image       *string            `json:"image"`
	Tags        []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"omitempty,dive"`
}

// RecipeView is a recipe annotated for the viewer
type RecipeView struct {
	Recipe           models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeService manages recipes and their tag and ingredient rows
type RecipeService interface {
	ListRecipes(ctx context.Context, filter RecipeFilter, page Page, viewer *uint) ([]RecipeView, int64, error)
	GetRecipe(ctx context.Context, id uint, viewer *uint) (RecipeView, error)
	CreateRecipe(ctx context.Context, authorID uint, input CreateRecipeInput) (RecipeView, error)
	// UpdateRecipe is allowed for the author only
	UpdateRecipe(ctx context.Context, id, callerID uint, input UpdateRecipeInput) (RecipeView, error)
	// DeleteRecipe is allowed for the author only
	DeleteRecipe(ctx context.Context, id, callerID uint) error
}

type recipeService struct {
	db     *gorm.DB
	images storage.ImageStore
	rules  RecipeRules
}

func NewRecipeService(db *gorm.DB, images storage.ImageStore, rules RecipeRules) RecipeService {
	return &recipeService{db: db, images: images, rules: rules}
}

// preloadRecipe loads everything a recipe representation needs
func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("RecipeTags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.id") }).
		Preload("RecipeTags.Tag").
		Preload("RecipeIngredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("RecipeIngredients.Ingredient")
}

func (s *recipeService) ListRecipes(ctx context.Context, filter RecipeFilter, page Page, viewer *uint) ([]RecipeView, int64, error) {
	// Membership filters need someone to be a member
	if viewer == nil && (filter.IsFavorited || filter.IsInShoppingCart) {
		return []RecipeView{}, 0, nil
	}

	db := s.db.WithContext(ctx)
	filtered := func() *gorm.DB {
		query := db.Model(&models.Recipe{})
		if len(filter.Tags) > 0 {
			query = query.Where("recipes.id IN (?)", db.Model(&models.RecipeTag{}).
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.Tags))
		}
		if filter.AuthorID != nil {
			query = query.Where("recipes.author_id = ?", *filter.AuthorID)
		}
		if filter.IsFavorited {
			query = query.Where("recipes.id IN (?)", db.Model(&models.Favorite{}).
				Select("recipe_id").Where("user_id = ?", *viewer))
		}
		if filter.IsInShoppingCart {
			query = query.Where("recipes.id IN (?)", db.Model(&models.ShoppingListEntry{}).
				Select("recipe_id").Where("user_id = ?", *viewer))
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, storeError("count recipes", err, nil)
	}

	var recipes []models.Recipe
	if err := preloadRecipe(filtered()).
		Order("recipes.created_at DESC").Order("recipes.id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&recipes).Error; err != nil {
		return nil, 0, storeError("list recipes", err, nil)
	}

	views, err := annotateRecipes(db, recipes, viewer)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, id uint, viewer *uint) (RecipeView, error) {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := preloadRecipe(db).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecipeView{}, notFoundError("id", "recipe not found")
		}
		return RecipeView{}, storeError("get recipe", err, nil)
	}

	views, err := annotateRecipes(db, []models.Recipe{recipe}, viewer)
	if err != nil {
		return RecipeView{}, err
	}
	return views[0], nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, authorID uint, input CreateRecipeInput) (RecipeView, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return RecipeView{}, err
	}
	if err := s.checkFields(&input.Name, &input.CookingTime, input.Ingredients); err != nil {
		return RecipeView{}, err
	}
	var imageKey string
	if input.Image != "" {
		img, err := decodeImage(input.Image)
		if err != nil {
			return RecipeView{}, err
		}
		if imageKey, err = s.images.Save(ctx, img); err != nil {
			return RecipeView{}, err
		}
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        input.Name,
		Text:        input.Text,
		Image:       imageKey,
		CookingTime: input.CookingTime,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, input.Tags, input.Ingredients); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return storeError("create recipe", err, nil)
		}
		return replaceAssociations(tx, recipe.ID, input.Tags, input.Ingredients)
	})
	if err != nil {
		s.discardImage(ctx, imageKey)
		return RecipeView{}, err
	}

	log.WithFields(log.Fields{"recipe_id": recipe.ID, "author_id": authorID}).Info("Recipe created")
	return s.GetRecipe(ctx, recipe.ID, &authorID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, id, callerID uint, input UpdateRecipeInput) (RecipeView, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}

	var (
		newImage *storage.Image
		oldKey   string
		newKey   string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := loadOwnedRecipe(tx, id, callerID)
		if err != nil {
			return err
		}

		if err := validateStruct(input); err != nil {
			return err
		}
		if err := s.checkFields(input.Name, input.CookingTime, input.Ingredients); err != nil {
			return err
		}
		if input.Text != nil && strings.TrimSpace(*input.Text) == "" {
			return validationError("text", "this field may not be blank")
		}
		if input.Tags != nil && len(input.Tags) == 0 {
			return validationError("tags", "must contain at least 1 items")
		}
		if input.Ingredients != nil && len(input.Ingredients) == 0 {
			return validationError("ingredients", "must contain at least 1 items")
		}
		if input.Image != nil && *input.Image != "" {
			if newImage, err = decodeImage(*input.Image); err != nil {
				return err
			}
		}
		if err := checkReferences(tx, input.Tags, input.Ingredients); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Text != nil {
			updates["text"] = *input.Text
		}
		if input.CookingTime != nil {
			updates["cooking_time"] = *input.CookingTime
		}
		if newImage != nil {
			if newKey, err = s.images.Save(ctx, newImage); err != nil {
				return err
			}
		}
		if input.Image != nil {
			oldKey = recipe.Image
			updates["image"] = newKey
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(updates).Error; err != nil {
				return storeError("update recipe", err, nil)
			}
		}
		return replaceAssociations(tx, recipe.ID, input.Tags, input.Ingredients)
	})
	if err != nil {
		s.discardImage(ctx, newKey)
		return RecipeView{}, err
	}
	s.discardImage(ctx, oldKey)

	return s.GetRecipe(ctx, id, &callerID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, id, callerID uint) error {
	var imageKey string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := loadOwnedRecipe(tx, id, callerID)
		if err != nil {
			return err
		}
		imageKey = recipe.Image
		return storeError("delete recipe", tx.Delete(&models.Recipe{}, recipe.ID).Error, nil)
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, imageKey)
	log.WithFields(log.Fields{"recipe_id": id, "author_id": callerID}).Info("Recipe deleted")
	return nil
}

// checkFields validates the scalar fields shared by create and update. Nil pointers are skipped.
func (s *recipeService) checkFields(name *string, cookingTime *int, ingredients []IngredientAmount) error {
	if name != nil {
		if *name == "" {
			return validationError("name", "this field may not be blank")
		}
		if utf8.RuneCountInString(*name) > maxRecipeNameLength {
			return validationError("name", fmt.Sprintf("must be at most %d characters long", maxRecipeNameLength))
		}
	}
	if cookingTime != nil && (*cookingTime < s.rules.CookingTimeMin || *cookingTime > s.rules.CookingTimeMax) {
		return validationError("cooking_time",
			fmt.Sprintf("must be between %d and %d minutes", s.rules.CookingTimeMin, s.rules.CookingTimeMax))
	}

	seen := make(map[uint]bool, len(ingredients))
	for _, item := range ingredients {
		if seen[item.ID] {
			return validationError("ingredients", fmt.Sprintf("ingredient %d is listed more than once", item.ID))
		}
		seen[item.ID] = true
	}
	return nil
}

func (s *recipeService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		log.WithError(err).WithField("image", key).Warn("Failed to remove recipe image")
	}
}

func decodeImage(uri string) (*storage.Image, error) {
	img, err := storage.DecodeDataURI(uri)
	if err != nil {
		return nil, validationError("image", err.Error())
	}
	return img, nil
}

// loadOwnedRecipe fetches the recipe and checks that callerID wrote it
func loadOwnedRecipe(tx *gorm.DB, id, callerID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := tx.First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("id", "recipe not found")
		}
		return nil, storeError("get recipe", err, nil)
	}
	if recipe.AuthorID != callerID {
		return nil, forbiddenError("only the author may change this recipe")
	}
	return &recipe, nil
}

// checkReferences rejects tag or ingredient ids that do not exist
func checkReferences(tx *gorm.DB, tagIDs []uint, ingredients []IngredientAmount) error {
	if len(tagIDs) > 0 {
		missing, err := missingIDs(tx, &models.Tag{}, uniqueIDs(tagIDs))
		if err != nil {
			return storeError("check tags", err, nil)
		}
		if len(missing) > 0 {
			return validationError("tags", fmt.Sprintf("tag %d does not exist", missing[0]))
		}
	}
	if len(ingredients) > 0 {
		ids := make([]uint, len(ingredients))
		for i, item := range ingredients {
			ids[i] = item.ID
		}
		missing, err := missingIDs(tx, &models.Ingredient{}, ids)
		if err != nil {
			return storeError("check ingredients", err, nil)
		}
		if len(missing) > 0 {
			return validationError("ingredients", fmt.Sprintf("ingredient %d does not exist", missing[0]))
		}
	}
	return nil
}

// replaceAssociations rewrites the tag and ingredient rows of a recipe. A nil
// slice keeps the current rows.
func replaceAssociations(tx *gorm.DB, recipeID uint, tagIDs []uint, ingredients []IngredientAmount) error {
	if tagIDs != nil {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
			return storeError("clear recipe tags", err, nil)
		}
		rows := make([]models.RecipeTag, 0, len(tagIDs))
		for _, id := range uniqueIDs(tagIDs) {
			rows = append(rows, models.RecipeTag{RecipeID: recipeID, TagID: id})
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return storeError("add recipe tags", err, nil)
		}
	}

	if ingredients != nil {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return storeError("clear recipe ingredients", err, nil)
		}
		rows := make([]models.RecipeIngredient, 0, len(ingredients))
		for _, item := range ingredients {
			rows = append(rows, models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount})
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return storeError("add recipe ingredients", err,
				validationError("ingredients", "an ingredient is listed more than once"))
		}
	}
	return nil
}

// annotateRecipes sets the viewer dependent flags. Anonymous viewers get all false.
func annotateRecipes(db *gorm.DB, recipes []models.Recipe, viewer *uint) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	for i := range recipes {
		views[i].Recipe = recipes[i]
	}
	if viewer == nil || len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := idSet(db, &models.Favorite{}, "recipe_id", *viewer, recipeIDs)
	if err != nil {
		return nil, storeError("load favorites", err, nil)
	}
	carted, err := idSet(db, &models.ShoppingListEntry{}, "recipe_id", *viewer, recipeIDs)
	if err != nil {
		return nil, storeError("load shopping list", err, nil)
	}
	followed, err := idSet(db, &models.Follow{}, "author_id", *viewer, uniqueIDs(authorIDs))
	if err != nil {
		return nil, storeError("load subscriptions", err, nil)
	}

	for i := range views {
		views[i].IsFavorited = favorited[views[i].Recipe.ID]
		views[i].IsInShoppingCart = carted[views[i].Recipe.ID]
		views[i].AuthorSubscribed = followed[views[i].Recipe.AuthorID]
	}
	return views, nil
}
