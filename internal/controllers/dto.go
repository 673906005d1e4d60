package controllers

import (
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
)

// UserResponse is the public representation of a user
type UserResponse struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// SubscriptionResponse is a followed author with a preview of their recipes
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredientResponse is an ingredient with the amount a recipe uses
type RecipeIngredientResponse struct {
	IngredientResponse
	Amount int `json:"amount"`
}

// RecipeShortResponse is returned by the toggle endpoints and author previews
type RecipeShortResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	CreatedAt        time.Time                  `json:"created_at"`
}

func newUserResponse(user models.User, subscribed bool) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

func newTagResponse(tag models.Tag) TagResponse {
	return TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
}

func newIngredientResponse(ing models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}
}

func imageURL(images storage.ImageStore, key string) string {
	if key == "" || images == nil {
		return ""
	}
	return images.URL(key)
}

func newRecipeShortResponse(recipe models.Recipe, images storage.ImageStore) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       imageURL(images, recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

func newRecipeResponse(view services.RecipeView, images storage.ImageStore) RecipeResponse {
	recipe := view.Recipe
	tags := make([]TagResponse, 0, len(recipe.RecipeTags))
	for _, tag := range recipe.Tags() {
		tags = append(tags, newTagResponse(tag))
	}
	ingredients := make([]RecipeIngredientResponse, 0, len(recipe.RecipeIngredients))
	for _, ri := range recipe.RecipeIngredients {
		ingredients = append(ingredients, RecipeIngredientResponse{
			IngredientResponse: newIngredientResponse(ri.Ingredient),
			Amount:             ri.Amount,
		})
	}
	return RecipeResponse{
		ID:               recipe.ID,
		Tags:             tags,
		Author:           newUserResponse(recipe.Author, view.AuthorSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      view.IsFavorited,
		IsInShoppingCart: view.IsInShoppingCart,
		Name:             recipe.Name,
		Image:            imageURL(images, recipe.Image),
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		CreatedAt:        recipe.CreatedAt,
	}
}

func newSubscriptionResponse(summary services.AuthorSummary, images storage.ImageStore) SubscriptionResponse {
	recipes := make([]RecipeShortResponse, 0, len(summary.Recipes))
	for _, recipe := range summary.Recipes {
		recipes = append(recipes, newRecipeShortResponse(recipe, images))
	}
	return SubscriptionResponse{
		UserResponse: newUserResponse(summary.User, summary.IsSubscribed),
		Recipes:      recipes,
		RecipesCount: summary.RecipesCount,
	}
}
