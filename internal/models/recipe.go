package models

import (
	"time"
)

// Recipe is exclusively owned by its author; removing the author removes the recipe,
// and removing the recipe removes its tag and ingredient rows.
type Recipe struct {
	ID          uint      `gorm:"primaryKey"`
	AuthorID    uint      `gorm:"not null;index"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Name        string    `gorm:"size:200;not null"`
	Text        string    `gorm:"type:text;not null"`
	Image       string    `gorm:"size:500"`
	CookingTime int       `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time

	RecipeTags        []RecipeTag        `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	RecipeIngredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// Tags returns the tags attached through the preloaded association rows
func (r *Recipe) Tags() []Tag {
	tags := make([]Tag, 0, len(r.RecipeTags))
	for _, rt := range r.RecipeTags {
		tags = append(tags, rt.Tag)
	}
	return tags
}

// RecipeIngredient links a recipe to an ingredient with a positive amount.
// A recipe lists each ingredient at most once.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1"`
}

// RecipeTag links a recipe to a tag
type RecipeTag struct {
	ID       uint `gorm:"primaryKey"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tag"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tag;index"`
	Tag      Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}
