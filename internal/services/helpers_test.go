package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// memoryImages is an in-memory storage.ImageStore
type memoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	next    int
}

func newMemoryImages() *memoryImages {
	return &memoryImages{objects: map[string][]byte{}}
}

func (m *memoryImages) Save(_ context.Context, img *storage.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	key := fmt.Sprintf("recipes/images/%d.%s", m.next, img.Extension)
	m.objects[key] = img.Data
	return key, nil
}

func (m *memoryImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryImages) URL(key string) string {
	return "/media/" + key
}

func (m *memoryImages) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

var pngImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake"))

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: username,
		LastName:  "Tester",
		Password:  "password123",
	}
	require.NoError(t, user.HashPassword())
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTag(t *testing.T, db *gorm.DB, slug, color string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: slug, Slug: slug, Color: color}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

func createIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return ingredient
}

// fixture is a small catalogue shared by the recipe tests
type fixture struct {
	db        *gorm.DB
	images    *memoryImages
	recipes   RecipeService
	relations RelationService
	shopping  ShoppingListService
	alice     models.User
	bob       models.User
	breakfast models.Tag
	lunch     models.Tag
	dinner    models.Tag
	flour     models.Ingredient
	sugar     models.Ingredient
	milk      models.Ingredient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	images := newMemoryImages()
	return &fixture{
		db:        db,
		images:    images,
		recipes:   NewRecipeService(db, images, DefaultRecipeRules),
		relations: NewRelationService(db),
		shopping:  NewShoppingListService(db),
		alice:     createUser(t, db, "alice"),
		bob:       createUser(t, db, "bob"),
		breakfast: createTag(t, db, "breakfast", "#E26C2D"),
		lunch:     createTag(t, db, "lunch", "#49B64E"),
		dinner:    createTag(t, db, "dinner", "#8775D2"),
		flour:     createIngredient(t, db, "flour", "g"),
		sugar:     createIngredient(t, db, "sugar", "g"),
		milk:      createIngredient(t, db, "milk", "ml"),
	}
}

func (f *fixture) recipeInput(name string, tags []uint, ingredients ...IngredientAmount) CreateRecipeInput {
	return CreateRecipeInput{
		Name:        name,
		Text:        "Mix and bake.",
		CookingTime: 30,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

func (f *fixture) mustCreate(t *testing.T, author models.User, input CreateRecipeInput) models.Recipe {
	t.Helper()
	view, err := f.recipes.CreateRecipe(context.Background(), author.ID, input)
	require.NoError(t, err)
	return view.Recipe
}
