package services

import (
	"cmp"
	"context"
	"slices"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"gorm.io/gorm"
)

// ShoppingListRow is one recipe ingredient line before merging
type ShoppingListRow struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// AggregateShoppingList merges rows sharing a (name, unit) pair by summing the
// amounts. Items come back sorted by name, then unit.
func AggregateShoppingList(rows []ShoppingListRow) []models.ShoppingListItem {
	type key struct{ name, unit string }
	index := make(map[key]int, len(rows))
	items := make([]models.ShoppingListItem, 0, len(rows))

	for _, row := range rows {
		k := key{row.Name, row.MeasurementUnit}
		if i, ok := index[k]; ok {
			items[i].Amount += row.Amount
			continue
		}
		index[k] = len(items)
		items = append(items, models.ShoppingListItem{
			Name:            row.Name,
			MeasurementUnit: row.MeasurementUnit,
			Amount:          row.Amount,
		})
	}

	slices.SortFunc(items, func(a, b models.ShoppingListItem) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.MeasurementUnit, b.MeasurementUnit)
	})
	return items
}

// ShoppingListService builds the merged shopping list of a user
type ShoppingListService interface {
	BuildShoppingList(ctx context.Context, userID uint) ([]models.ShoppingListItem, error)
}

type shoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) ShoppingListService {
	return &shoppingListService{db: db}
}

func (s *shoppingListService) BuildShoppingList(ctx context.Context, userID uint) ([]models.ShoppingListItem, error) {
	var rows []ShoppingListRow
	err := s.db.WithContext(ctx).
		Table("shopping_list_entries").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_list_entries.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_list_entries.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("build shopping list", err, nil)
	}
	return AggregateShoppingList(rows), nil
}
