package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/export"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/gin-gonic/gin"
)

// RecipeController handles recipes, favorites and the shopping cart
type RecipeController struct {
	recipes   services.RecipeService
	relations services.RelationService
	shopping  services.ShoppingListService
	images    storage.ImageStore
	pageSize  int
}

func NewRecipeController(recipes services.RecipeService, relations services.RelationService,
	shopping services.ShoppingListService, images storage.ImageStore, pageSize int) *RecipeController {
	return &RecipeController{
		recipes:   recipes,
		relations: relations,
		shopping:  shopping,
		images:    images,
		pageSize:  pageSize,
	}
}

// ListRecipes godoc
// @Summary List recipes
// @Description Newest first. Tags combine as a union; the membership filters need a signed in user.
// @Tags recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param tags query []string false "Tag slugs" collectionFormat(multi)
// @Param author query int false "Author ID"
// @Param is_favorited query int false "1 to only show favorites"
// @Param is_in_shopping_cart query int false "1 to only show the shopping cart"
// @Success 200 {object} Paginated[RecipeResponse]
// @Router /api/recipes [get]
func (rc *RecipeController) ListRecipes(c *gin.Context) {
	filter := services.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if author := c.Query("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 32)
		if err != nil {
			badRequest(c, "author must be a user id")
			return
		}
		authorID := uint(id)
		filter.AuthorID = &authorID
	}

	page := pageFromQuery(c, rc.pageSize)
	views, total, err := rc.recipes.ListRecipes(c.Request.Context(), filter, page, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]RecipeResponse, 0, len(views))
	for _, view := range views {
		results = append(results, newRecipeResponse(view, rc.images))
	}
	c.JSON(http.StatusOK, paginate(c, page, total, results))
}

// GetRecipe godoc
// @Summary Get recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} RecipeResponse
// @Failure 404 {object} models.APIError
// @Router /api/recipes/{id} [get]
func (rc *RecipeController) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := rc.recipes.GetRecipe(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRecipeResponse(view, rc.images))
}

// CreateRecipe godoc
// @Summary Create recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param recipe body services.CreateRecipeInput true "Recipe"
// @Success 201 {object} RecipeResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /api/recipes [post]
func (rc *RecipeController) CreateRecipe(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var input services.CreateRecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	view, err := rc.recipes.CreateRecipe(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeResponse(view, rc.images))
}

// UpdateRecipe godoc
// @Summary Update recipe
// @Description Only the author may update. Present tags or ingredients replace the current set.
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param recipe body services.UpdateRecipeInput true "Changed fields"
// @Success 200 {object} RecipeResponse
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id} [patch]
func (rc *RecipeController) UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	var input services.UpdateRecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	view, err := rc.recipes.UpdateRecipe(c.Request.Context(), id, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRecipeResponse(view, rc.images))
}

// DeleteRecipe godoc
// @Summary Delete recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 403 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id} [delete]
func (rc *RecipeController) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if err := rc.recipes.DeleteRecipe(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddFavorite godoc
// @Summary Add to favorites
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} RecipeShortResponse
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite [post]
func (rc *RecipeController) AddFavorite(c *gin.Context) {
	rc.toggle(c, rc.relations.ToggleFavorite, services.ActionAdd)
}

// RemoveFavorite godoc
// @Summary Remove from favorites
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite [delete]
func (rc *RecipeController) RemoveFavorite(c *gin.Context) {
	rc.toggle(c, rc.relations.ToggleFavorite, services.ActionRemove)
}

// AddToShoppingCart godoc
// @Summary Add to shopping cart
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} RecipeShortResponse
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/shopping_cart [post]
func (rc *RecipeController) AddToShoppingCart(c *gin.Context) {
	rc.toggle(c, rc.relations.ToggleShoppingList, services.ActionAdd)
}

// RemoveFromShoppingCart godoc
// @Summary Remove from shopping cart
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/{id}/shopping_cart [delete]
func (rc *RecipeController) RemoveFromShoppingCart(c *gin.Context) {
	rc.toggle(c, rc.relations.ToggleShoppingList, services.ActionRemove)
}

type recipeToggle func(ctx context.Context, userID, recipeID uint, action services.Action) (*models.Recipe, error)

func (rc *RecipeController) toggle(c *gin.Context, fn recipeToggle, action services.Action) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	recipe, err := fn(c.Request.Context(), userID, id, action)
	if err != nil {
		respondError(c, err)
		return
	}
	if action == services.ActionRemove {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, newRecipeShortResponse(*recipe, rc.images))
}

// DownloadShoppingCart godoc
// @Summary Download shopping list
// @Description Ingredients of every recipe in the cart, merged by name and unit
// @Tags recipes
// @Produce plain
// @Produce application/pdf
// @Param format query string false "txt (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/recipes/download_shopping_cart [get]
func (rc *RecipeController) DownloadShoppingCart(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	items, err := rc.shopping.BuildShoppingList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, items); err != nil {
		respondError(c, fmt.Errorf("render shopping list: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.FileName()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
