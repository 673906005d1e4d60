package controllers

import (
	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/middleware"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
)

// API bundles everything the /api routes need
type API struct {
	OAuth     *auth.OAuthService
	JWTSecret []byte
	Recipes   *RecipeController
	Users     *UserController
	Catalogue *CatalogueController
	Clients   *ClientController
}

// RegisterRoutes mounts the /api tree on router
func (a *API) RegisterRoutes(router gin.IRouter) {
	requireAuth := middleware.OAuth2Auth(a.JWTSecret, a.OAuth.Tokens())
	optionalAuth := middleware.OptionalAuth(a.JWTSecret, a.OAuth.Tokens())
	requireAdmin := middleware.RequireRole(models.RoleAdmin)

	api := router.Group("/api")

	authGroup := api.Group("/auth/token")
	{
		authGroup.POST("", a.OAuth.HandleToken)
		authGroup.POST("/login", a.OAuth.HandleLogin)
		authGroup.POST("/logout", requireAuth, a.OAuth.HandleLogout)
	}

	users := api.Group("/users")
	{
		users.POST("", a.Users.Register)
		users.GET("", optionalAuth, a.Users.ListUsers)
		users.GET("/me", requireAuth, a.Users.Me)
		users.POST("/set_password", requireAuth, a.Users.SetPassword)
		users.GET("/subscriptions", requireAuth, a.Users.Subscriptions)
		users.GET("/:id", optionalAuth, a.Users.GetUser)
		users.POST("/:id/subscribe", requireAuth, a.Users.Subscribe)
		users.DELETE("/:id/subscribe", requireAuth, a.Users.Unsubscribe)
	}

	tags := api.Group("/tags")
	{
		tags.GET("", a.Catalogue.ListTags)
		tags.GET("/:id", a.Catalogue.GetTag)
		tags.POST("", requireAuth, requireAdmin, a.Catalogue.CreateTag)
	}

	ingredients := api.Group("/ingredients")
	{
		ingredients.GET("", a.Catalogue.ListIngredients)
		ingredients.GET("/:id", a.Catalogue.GetIngredient)
		ingredients.POST("", requireAuth, requireAdmin, a.Catalogue.CreateIngredient)
	}

	recipes := api.Group("/recipes")
	{
		recipes.GET("", optionalAuth, a.Recipes.ListRecipes)
		recipes.POST("", requireAuth, a.Recipes.CreateRecipe)
		recipes.GET("/download_shopping_cart", requireAuth, a.Recipes.DownloadShoppingCart)
		recipes.GET("/:id", optionalAuth, a.Recipes.GetRecipe)
		recipes.PATCH("/:id", requireAuth, a.Recipes.UpdateRecipe)
		recipes.DELETE("/:id", requireAuth, a.Recipes.DeleteRecipe)
		recipes.POST("/:id/favorite", requireAuth, a.Recipes.AddFavorite)
		recipes.DELETE("/:id/favorite", requireAuth, a.Recipes.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", requireAuth, a.Recipes.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", requireAuth, a.Recipes.RemoveFromShoppingCart)
	}

	clients := api.Group("/clients", requireAuth, requireAdmin)
	{
		clients.POST("", a.Clients.CreateClient)
		clients.GET("", a.Clients.ListClients)
		clients.DELETE("/:id", a.Clients.DeleteClient)
	}
}
