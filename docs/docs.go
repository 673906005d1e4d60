// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/api/auth/token": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Token endpoint (password grant)",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/api/auth/token/login": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Login",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/api/auth/token/logout": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Logout",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/users": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "List users",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Register",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/api/users/me": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Current user",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/users/set_password": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Change password",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/users/subscriptions": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Followed authors",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/users/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Get user",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/users/{id}/subscribe": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Follow author",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"users"
				],
				"summary": "Unfollow author",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/tags": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "List tags",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "Create tag",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/tags/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "Get tag",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/ingredients": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"ingredients"
				],
				"summary": "Search ingredients",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"ingredients"
				],
				"summary": "Create ingredient",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/ingredients/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"ingredients"
				],
				"summary": "Get ingredient",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/recipes": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "List recipes",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Create recipe",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/recipes/download_shopping_cart": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Download shopping list",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/recipes/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Get recipe",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			},
			"patch": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Update recipe",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Delete recipe",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/recipes/{id}/favorite": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Add to favorites",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Remove from favorites",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/recipes/{id}/shopping_cart": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Add to shopping cart",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"recipes"
				],
				"summary": "Remove from shopping cart",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/clients": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"OAuth2 Clients"
				],
				"summary": "List OAuth2 clients",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"OAuth2 Clients"
				],
				"summary": "Create OAuth2 client",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/clients/{id}": {
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"OAuth2 Clients"
				],
				"summary": "Delete OAuth2 client",
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/health": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"health"
				],
				"summary": "Health check",
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and JWT token.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Recipe API",
	Description:      "Recipe sharing backend: recipes, favorites, subscriptions and shopping lists",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
