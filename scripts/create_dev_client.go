package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/services"
)

func main() {
	// Parse command line flags
	role := flag.String("role", "admin", "User role (admin or user)")
	password := flag.String("password", "dev-password-123", "Password for the development user")
	clientID := flag.String("client-id", "dev-client", "OAuth client ID")
	clientSecret := flag.String("client-secret", "dev-secret-123", "OAuth client secret")
	flag.Parse()

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	db, err := database.InitDatabase(conf.Database())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	ctx := context.Background()
	users := services.NewUserService(db)
	clients := services.NewClientService(db)

	if err := clients.EnsureClient(ctx, *clientID, *clientSecret, "Development client"); err != nil {
		log.Fatal("Failed to create client:", err)
	}

	email := fmt.Sprintf("%s@recipes.local", *role)
	userID := getUserIDForRole(ctx, users, *role, email, *password)

	fmt.Printf("✓ Development OAuth client ready for role '%s'!\n", *role)
	fmt.Printf("Client ID: %s\n", *clientID)
	fmt.Printf("Client Secret: %s\n", *clientSecret)
	fmt.Printf("User: %s (ID: %d)\n", email, userID)
	fmt.Println("\nUse these credentials for testing:")
	fmt.Printf("curl -X POST http://localhost:%d/api/auth/token \\\n", conf.Port)
	fmt.Printf("  -d 'grant_type=password' \\\n")
	fmt.Printf("  -d 'client_id=%s' \\\n", *clientID)
	fmt.Printf("  -d 'client_secret=%s' \\\n", *clientSecret)
	fmt.Printf("  -d 'username=%s' \\\n", email)
	fmt.Printf("  -d 'password=%s'\n", *password)
}

// getUserIDForRole gets or creates a user with the specified role
func getUserIDForRole(ctx context.Context, users services.UserService, role, email, password string) uint {
	user, err := users.GetUserByEmail(ctx, email)
	if err == nil {
		fmt.Printf("Found existing user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
		return user.ID
	}
	if !errors.Is(err, services.ErrNotFound) {
		log.Fatal("Failed to look up user:", err)
	}

	user, err = users.Register(ctx, services.RegisterUserInput{
		Email:     email,
		Username:  role,
		FirstName: "Development",
		LastName:  role,
		Password:  password,
	})
	if err != nil {
		log.Fatal("Failed to create user:", err)
	}
	if role == "admin" {
		if err := users.PromoteToAdmin(ctx, user.ID); err != nil {
			log.Fatal("Failed to promote user:", err)
		}
	}

	fmt.Printf("Created new user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, role)
	return user.ID
}
