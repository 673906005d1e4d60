package services

import (
	"context"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTagCache struct {
	tags        []models.Tag
	cached      bool
	hits        int
	invalidated int
}

func (c *countingTagCache) GetTags(context.Context) ([]models.Tag, bool) {
	if c.cached {
		c.hits++
	}
	return c.tags, c.cached
}

func (c *countingTagCache) SetTags(_ context.Context, tags []models.Tag) {
	c.tags, c.cached = tags, true
}

func (c *countingTagCache) Invalidate(context.Context) {
	c.tags, c.cached = nil, false
	c.invalidated++
}

func TestTagService(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	cache := &countingTagCache{}
	svc := NewTagService(db, cache)

	t.Run("create normalizes color", func(t *testing.T) {
		tag, err := svc.CreateTag(ctx, CreateTagInput{Name: "Breakfast", Slug: "breakfast", Color: "#e26c2d"})
		require.NoError(t, err)
		assert.Equal(t, "#E26C2D", tag.Color)
	})

	t.Run("list fills the cache", func(t *testing.T) {
		tags, err := svc.ListTags(ctx)
		require.NoError(t, err)
		require.Len(t, tags, 1)

		_, err = svc.ListTags(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, cache.hits)
	})

	t.Run("create invalidates the cache", func(t *testing.T) {
		_, err := svc.CreateTag(ctx, CreateTagInput{Name: "Lunch", Slug: "lunch", Color: "#49B64E"})
		require.NoError(t, err)
		assert.Equal(t, 2, cache.invalidated)

		tags, err := svc.ListTags(ctx)
		require.NoError(t, err)
		assert.Len(t, tags, 2)
	})

	conflicts := []struct {
		name  string
		input CreateTagInput
		field string
	}{
		{"name", CreateTagInput{Name: "Breakfast", Slug: "other", Color: "#000000"}, "name"},
		{"slug", CreateTagInput{Name: "Other", Slug: "breakfast", Color: "#000000"}, "slug"},
		{"color", CreateTagInput{Name: "Other", Slug: "other", Color: "#E26C2D"}, "color"},
	}
	for _, tt := range conflicts {
		t.Run("duplicate "+tt.name, func(t *testing.T) {
			_, err := svc.CreateTag(ctx, tt.input)
			require.ErrorIs(t, err, ErrConflict)
			var serviceErr *ServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, tt.field, serviceErr.Field)
		})
	}

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.CreateTag(ctx, CreateTagInput{Name: "Bad", Slug: "has space", Color: "#111111"})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = svc.CreateTag(ctx, CreateTagInput{Name: "Bad", Slug: "bad", Color: "red"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("get", func(t *testing.T) {
		_, err := svc.GetTagByID(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("works without a cache", func(t *testing.T) {
		tags, err := NewTagService(db, nil).ListTags(ctx)
		require.NoError(t, err)
		assert.Len(t, tags, 2)
	})
}

func TestSearchIngredients(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewIngredientService(db)
	for _, pair := range [][2]string{
		{"milk", "ml"}, {"milk", "cup"}, {"milk chocolate", "g"}, {"skim milk", "ml"},
		{"Milkweed", "g"}, {"100% juice", "ml"}, {"100 grain flour", "g"},
	} {
		createIngredient(t, db, pair[0], pair[1])
	}

	names := func(items []models.Ingredient) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Name + "/" + item.MeasurementUnit
		}
		return out
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"mil", []string{"milk/cup", "milk/ml", "milk chocolate/g"}},
		{"Mil", []string{"Milkweed/g"}},
		{"skim", []string{"skim milk/ml"}},
		{"100%", []string{"100% juice/ml"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			items, err := svc.SearchIngredients(ctx, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(items))
		})
	}

	t.Run("empty prefix lists everything", func(t *testing.T) {
		items, err := svc.SearchIngredients(ctx, "")
		require.NoError(t, err)
		assert.Len(t, items, 7)
	})
}

func TestIngredientCatalogue(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewIngredientService(db)

	created, err := svc.CreateIngredient(ctx, CreateIngredientInput{Name: " salt ", MeasurementUnit: "g"})
	require.NoError(t, err)
	assert.Equal(t, "salt", created.Name)

	_, err = svc.CreateIngredient(ctx, CreateIngredientInput{Name: "salt", MeasurementUnit: "g"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateIngredient(ctx, CreateIngredientInput{Name: "salt", MeasurementUnit: "pinch"})
	assert.NoError(t, err, "same name under another unit")

	got, err := svc.GetIngredientByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "salt", got.Name)

	_, err = svc.GetIngredientByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	t.Run("import skips existing pairs", func(t *testing.T) {
		result, err := svc.ImportIngredients(ctx, []CreateIngredientInput{
			{Name: "salt", MeasurementUnit: "g"},
			{Name: "pepper", MeasurementUnit: "g"},
			{Name: "pepper", MeasurementUnit: "g"},
		})
		require.NoError(t, err)
		assert.Equal(t, ImportResult{Created: 1, Skipped: 2}, result)
	})

	t.Run("import is all or nothing", func(t *testing.T) {
		_, err := svc.ImportIngredients(ctx, []CreateIngredientInput{
			{Name: "basil", MeasurementUnit: "g"},
			{Name: "", MeasurementUnit: "g"},
		})
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "row 2")

		items, err := svc.SearchIngredients(ctx, "basil")
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
