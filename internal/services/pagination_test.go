package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name             string
		number, size     int
		wantNumber       int
		wantSize         int
		wantOffsetAtMost int
	}{
		{"defaults", 0, 0, 1, 6, 0},
		{"negative values", -3, -1, 1, 6, 0},
		{"size capped", 2, 1000, 2, MaxPageSize, MaxPageSize},
		{"huge page number", 1 << 62, 100, MaxPageNumber, 100, math.MaxInt32},
		{"max int page number", math.MaxInt, 6, MaxPageNumber, 6, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewPage(tt.number, tt.size, 6)
			assert.Equal(t, tt.wantNumber, page.Number)
			assert.Equal(t, tt.wantSize, page.Size)
			assert.GreaterOrEqual(t, page.Offset(), 0)
			assert.LessOrEqual(t, page.Offset(), tt.wantOffsetAtMost)
		})
	}
}

func TestListRecipesPastLastPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustCreate(t, f.alice, f.recipeInput("Cake", []uint{f.breakfast.ID},
		IngredientAmount{ID: f.flour.ID, Amount: 100}))

	page := NewPage(math.MaxInt, MaxPageSize, 6)
	views, total, err := f.recipes.ListRecipes(ctx, RecipeFilter{}, page, nil)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Equal(t, int64(1), total)
	assert.False(t, page.HasNext(total))
}
