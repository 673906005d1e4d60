package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/gin-gonic/gin"
)

// CatalogueController serves the tag and ingredient reference data
type CatalogueController struct {
	tags        services.TagService
	ingredients services.IngredientService
}

func NewCatalogueController(tags services.TagService, ingredients services.IngredientService) *CatalogueController {
	return &CatalogueController{tags: tags, ingredients: ingredients}
}

// ListTags godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} TagResponse
// @Router /api/tags [get]
func (cc *CatalogueController) ListTags(c *gin.Context) {
	tags, err := cc.tags.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	results := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		results = append(results, newTagResponse(tag))
	}
	c.JSON(http.StatusOK, results)
}

// GetTag godoc
// @Summary Get tag
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} TagResponse
// @Failure 404 {object} models.APIError
// @Router /api/tags/{id} [get]
func (cc *CatalogueController) GetTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tag, err := cc.tags.GetTagByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTagResponse(*tag))
}

// CreateTag godoc
// @Summary Create tag
// @Tags tags
// @Accept json
// @Produce json
// @Param tag body services.CreateTagInput true "Tag"
// @Success 201 {object} TagResponse
// @Failure 400 {object} models.APIError
// @Failure 403 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/tags [post]
func (cc *CatalogueController) CreateTag(c *gin.Context) {
	var input services.CreateTagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	tag, err := cc.tags.CreateTag(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTagResponse(*tag))
}

// ListIngredients godoc
// @Summary Search ingredients
// @Description Case sensitive name prefix match
// @Tags ingredients
// @Produce json
// @Param name query string false "Name prefix"
// @Success 200 {array} IngredientResponse
// @Router /api/ingredients [get]
func (cc *CatalogueController) ListIngredients(c *gin.Context) {
	items, err := cc.ingredients.SearchIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	results := make([]IngredientResponse, 0, len(items))
	for _, item := range items {
		results = append(results, newIngredientResponse(item))
	}
	c.JSON(http.StatusOK, results)
}

// GetIngredient godoc
// @Summary Get ingredient
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} IngredientResponse
// @Failure 404 {object} models.APIError
// @Router /api/ingredients/{id} [get]
func (cc *CatalogueController) GetIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := cc.ingredients.GetIngredientByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newIngredientResponse(*item))
}

// CreateIngredient godoc
// @Summary Create ingredient
// @Tags ingredients
// @Accept json
// @Produce json
// @Param ingredient body services.CreateIngredientInput true "Ingredient"
// @Success 201 {object} IngredientResponse
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/ingredients [post]
func (cc *CatalogueController) CreateIngredient(c *gin.Context) {
	var input services.CreateIngredientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	item, err := cc.ingredients.CreateIngredient(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newIngredientResponse(*item))
}
