package database

import (
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDSN(t *testing.T) {
	testCases := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name:     "postgres",
			config:   DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "recipes", SSLMode: "disable"},
			expected: "host=db user=u password=p dbname=recipes port=5432 sslmode=disable",
		},
		{
			name:     "sqlite file",
			config:   DatabaseConfig{Driver: "sqlite", Path: "recipes.sqlite"},
			expected: "recipes.sqlite?_foreign_keys=on",
		},
		{
			name:     "sqlite with existing query",
			config:   DatabaseConfig{Driver: "sqlite", Path: "file:recipes.db?cache=shared"},
			expected: "file:recipes.db?cache=shared&_foreign_keys=on",
		},
		{
			name:     "sqlite with explicit pragma",
			config:   DatabaseConfig{Driver: "", Path: "recipes.sqlite?_fk=1"},
			expected: "recipes.sqlite?_fk=1",
		},
		{
			name:     "unknown driver",
			config:   DatabaseConfig{Driver: "mysql"},
			expected: "",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestDatabaseConfigStringMasksPassword(t *testing.T) {
	cfg := DatabaseConfig{Driver: "postgres", Password: "hunter2"}
	assert.NotContains(t, cfg.String(), "hunter2")
}

func TestInitDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := InitDatabase(DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestMigrateEnforcesConstraints(t *testing.T) {
	db := setupTestDB(t)

	alice := models.User{Email: "alice@example.com", Username: "alice", FirstName: "Alice", LastName: "A", Password: "x"}
	require.NoError(t, db.Create(&alice).Error)

	t.Run("unique email", func(t *testing.T) {
		dup := models.User{Email: "alice@example.com", Username: "alice2", FirstName: "A", LastName: "A", Password: "x"}
		err := db.Create(&dup).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("ingredient unique on name and unit", func(t *testing.T) {
		require.NoError(t, db.Create(&models.Ingredient{Name: "salt", MeasurementUnit: "g"}).Error)
		require.NoError(t, db.Create(&models.Ingredient{Name: "salt", MeasurementUnit: "pinch"}).Error)
		err := db.Create(&models.Ingredient{Name: "salt", MeasurementUnit: "g"}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("cooking time must be positive", func(t *testing.T) {
		err := db.Create(&models.Recipe{AuthorID: alice.ID, Name: "Toast", Text: "t", CookingTime: 0}).Error
		assert.Error(t, err)
	})

	t.Run("self follow rejected by the store", func(t *testing.T) {
		err := db.Omit("User", "Author").Create(&models.Follow{UserID: alice.ID, AuthorID: alice.ID}).Error
		assert.Error(t, err)
	})
}

func TestUserDeletionCascades(t *testing.T) {
	db := setupTestDB(t)

	alice := models.User{Email: "alice@example.com", Username: "alice", FirstName: "Alice", LastName: "A", Password: "x"}
	bob := models.User{Email: "bob@example.com", Username: "bob", FirstName: "Bob", LastName: "B", Password: "x"}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	onion := models.Ingredient{Name: "onion", MeasurementUnit: "g"}
	require.NoError(t, db.Create(&onion).Error)

	recipe := models.Recipe{AuthorID: alice.ID, Name: "Soup", Text: "Boil", CookingTime: 10}
	require.NoError(t, db.Omit("Author").Create(&recipe).Error)
	require.NoError(t, db.Omit("Ingredient").Create(&models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: onion.ID, Amount: 2}).Error)
	require.NoError(t, db.Omit("User", "Recipe").Create(&models.Favorite{UserID: bob.ID, RecipeID: recipe.ID}).Error)
	require.NoError(t, db.Omit("User", "Author").Create(&models.Follow{UserID: bob.ID, AuthorID: alice.ID}).Error)

	require.NoError(t, db.Delete(&models.User{}, alice.ID).Error)

	var count int64
	db.Model(&models.Recipe{}).Count(&count)
	assert.Zero(t, count, "authored recipes should be removed")
	db.Model(&models.RecipeIngredient{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Favorite{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Follow{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Ingredient{}).Count(&count)
	assert.Equal(t, int64(1), count, "reference data survives")
}
