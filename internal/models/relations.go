package models

import (
	"time"
)

// Follow is a directed subscription of User to Author's recipes
type Follow struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_follow_pair;check:chk_follows_not_self,user_id <> author_id"`
	User      User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	Author    User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// Favorite marks a recipe as bookmarked by a user
type Favorite struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_pair"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_favorite_pair;index"`
	Recipe    Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// ShoppingListEntry queues a recipe's ingredients for the user's shopping list
type ShoppingListEntry struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_shopping_list_pair"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_shopping_list_pair;index"`
	Recipe    Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// ShoppingListItem is one merged line of a user's shopping list
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}
