package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeToggles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	recipe := f.mustCreate(t, f.alice, f.recipeInput("Cake", []uint{f.breakfast.ID},
		IngredientAmount{ID: f.flour.ID, Amount: 100}))

	toggles := map[string]func(context.Context, uint, uint, Action) (*models.Recipe, error){
		"favorite":      f.relations.ToggleFavorite,
		"shopping list": f.relations.ToggleShoppingList,
	}

	for name, toggle := range toggles {
		t.Run(name, func(t *testing.T) {
			got, err := toggle(ctx, f.bob.ID, recipe.ID, ActionAdd)
			require.NoError(t, err)
			assert.Equal(t, recipe.ID, got.ID)
			assert.Equal(t, "Cake", got.Name)

			_, err = toggle(ctx, f.bob.ID, recipe.ID, ActionAdd)
			assert.ErrorIs(t, err, ErrConflict, "adding twice")

			_, err = toggle(ctx, f.bob.ID, recipe.ID, ActionRemove)
			require.NoError(t, err)

			_, err = toggle(ctx, f.bob.ID, recipe.ID, ActionRemove)
			assert.ErrorIs(t, err, ErrNotFound, "removing twice")

			_, err = toggle(ctx, f.bob.ID, 999, ActionAdd)
			assert.ErrorIs(t, err, ErrNotFound, "missing recipe")

			_, err = toggle(ctx, f.bob.ID, recipe.ID, Action("flip"))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	t.Run("own recipe can be favorited", func(t *testing.T) {
		_, err := f.relations.ToggleFavorite(ctx, f.alice.ID, recipe.ID, ActionAdd)
		assert.NoError(t, err)
	})
}

func TestToggleFollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("follow and unfollow", func(t *testing.T) {
		author, err := f.relations.ToggleFollow(ctx, f.alice.ID, f.bob.ID, ActionAdd)
		require.NoError(t, err)
		assert.Equal(t, "bob", author.Username)

		_, err = f.relations.ToggleFollow(ctx, f.alice.ID, f.bob.ID, ActionAdd)
		assert.ErrorIs(t, err, ErrConflict)

		_, err = f.relations.ToggleFollow(ctx, f.alice.ID, f.bob.ID, ActionRemove)
		require.NoError(t, err)

		_, err = f.relations.ToggleFollow(ctx, f.alice.ID, f.bob.ID, ActionRemove)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("following is directed", func(t *testing.T) {
		_, err := f.relations.ToggleFollow(ctx, f.bob.ID, f.alice.ID, ActionAdd)
		require.NoError(t, err)
		_, err = f.relations.ToggleFollow(ctx, f.alice.ID, f.bob.ID, ActionRemove)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("self follow is always a validation error", func(t *testing.T) {
		for _, action := range []Action{ActionAdd, ActionRemove} {
			_, err := f.relations.ToggleFollow(ctx, f.alice.ID, f.alice.ID, action)
			assert.ErrorIs(t, err, ErrValidation)
		}
		_, err := f.relations.ToggleFollow(ctx, 999, 999, ActionAdd)
		assert.ErrorIs(t, err, ErrValidation, "even for unknown users")
	})

	t.Run("missing author", func(t *testing.T) {
		_, err := f.relations.ToggleFollow(ctx, f.alice.ID, 999, ActionAdd)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// racer runs add n times concurrently and counts successes and conflicts.
func racer(t *testing.T, n int, add func() error) (added, conflicts int) {
	t.Helper()
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := add()
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				added++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()
	return added, conflicts
}

func TestConcurrentAddsCreateOneRelation(t *testing.T) {
	const workers = 16
	ctx := context.Background()
	f := newFixture(t)
	recipe := f.mustCreate(t, f.alice, f.recipeInput("Cake", []uint{f.breakfast.ID},
		IngredientAmount{ID: f.flour.ID, Amount: 100}))

	t.Run("favorite", func(t *testing.T) {
		added, conflicts := racer(t, workers, func() error {
			_, err := f.relations.ToggleFavorite(ctx, f.bob.ID, recipe.ID, ActionAdd)
			return err
		})
		assert.Equal(t, 1, added)
		assert.Equal(t, workers-1, conflicts)

		var rows int64
		require.NoError(t, f.db.Model(&models.Favorite{}).
			Where("user_id = ? AND recipe_id = ?", f.bob.ID, recipe.ID).Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("follow", func(t *testing.T) {
		added, conflicts := racer(t, workers, func() error {
			_, err := f.relations.ToggleFollow(ctx, f.alice.ID, f.bob.ID, ActionAdd)
			return err
		})
		assert.Equal(t, 1, added)
		assert.Equal(t, workers-1, conflicts)

		var rows int64
		require.NoError(t, f.db.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", f.alice.ID, f.bob.ID).Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})
}
