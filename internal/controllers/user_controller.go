package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
	"github.com/franciscosanchezn/gin-recipe-api/internal/storage"
	"github.com/gin-gonic/gin"
)

// UserController handles registration, profiles and subscriptions
type UserController struct {
	users     services.UserService
	relations services.RelationService
	images    storage.ImageStore
	pageSize  int
}

func NewUserController(users services.UserService, relations services.RelationService,
	images storage.ImageStore, pageSize int) *UserController {
	return &UserController{users: users, relations: relations, images: images, pageSize: pageSize}
}

// Register godoc
// @Summary Register
// @Tags users
// @Accept json
// @Produce json
// @Param user body services.RegisterUserInput true "New account"
// @Success 201 {object} UserResponse
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /api/users [post]
func (uc *UserController) Register(c *gin.Context) {
	var input services.RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := uc.users.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(*user, false))
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} Paginated[UserResponse]
// @Router /api/users [get]
func (uc *UserController) ListUsers(c *gin.Context) {
	page := pageFromQuery(c, uc.pageSize)
	profiles, total, err := uc.users.ListProfiles(c.Request.Context(), page, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]UserResponse, 0, len(profiles))
	for _, p := range profiles {
		results = append(results, newUserResponse(p.User, p.IsSubscribed))
	}
	c.JSON(http.StatusOK, paginate(c, page, total, results))
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /api/users/me [get]
func (uc *UserController) Me(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	user, err := uc.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user, false))
}

// GetUser godoc
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} models.APIError
// @Router /api/users/{id} [get]
func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	profile, err := uc.users.GetProfile(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(profile.User, profile.IsSubscribed))
}

// SetPassword godoc
// @Summary Change password
// @Tags users
// @Accept json
// @Param passwords body services.SetPasswordInput true "Current and new password"
// @Success 204
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/set_password [post]
func (uc *UserController) SetPassword(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var input services.SetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := uc.users.SetPassword(c.Request.Context(), userID, input); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions godoc
// @Summary Followed authors
// @Description Most recent subscription first, each with up to recipes_limit recipes
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Recipes per author"
// @Success 200 {object} Paginated[SubscriptionResponse]
// @Security BearerAuth
// @Router /api/users/subscriptions [get]
func (uc *UserController) Subscriptions(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	recipesLimit, ok := recipesLimitFromQuery(c)
	if !ok {
		return
	}

	page := pageFromQuery(c, uc.pageSize)
	summaries, total, err := uc.users.ListSubscriptions(c.Request.Context(), userID, page, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]SubscriptionResponse, 0, len(summaries))
	for _, s := range summaries {
		results = append(results, newSubscriptionResponse(s, uc.images))
	}
	c.JSON(http.StatusOK, paginate(c, page, total, results))
}

// Subscribe godoc
// @Summary Follow author
// @Tags users
// @Produce json
// @Param id path int true "Author ID"
// @Param recipes_limit query int false "Recipes in the response"
// @Success 201 {object} SubscriptionResponse
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/{id}/subscribe [post]
func (uc *UserController) Subscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	recipesLimit, ok := recipesLimitFromQuery(c)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	ctx := c.Request.Context()
	if _, err := uc.relations.ToggleFollow(ctx, userID, authorID, services.ActionAdd); err != nil {
		respondError(c, err)
		return
	}
	summary, err := uc.users.GetAuthorSummary(ctx, authorID, userID, recipesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSubscriptionResponse(summary, uc.images))
}

// Unsubscribe godoc
// @Summary Unfollow author
// @Tags users
// @Param id path int true "Author ID"
// @Success 204
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/users/{id}/subscribe [delete]
func (uc *UserController) Unsubscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)

	if _, err := uc.relations.ToggleFollow(c.Request.Context(), userID, authorID, services.ActionRemove); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimitFromQuery reads ?recipes_limit=, where absent means every recipe
func recipesLimitFromQuery(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return -1, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		badRequest(c, "recipes_limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
