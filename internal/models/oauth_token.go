package models

import (
	"time"
)

// OAuthToken records an issued access token; deleting the row revokes it
type OAuthToken struct {
	ID           uint      `gorm:"primaryKey"`
	ClientID     string    `gorm:"not null"`
	UserID       string    `gorm:"index"`
	AccessToken  string    `gorm:"uniqueIndex;not null"`
	RefreshToken *string   `gorm:"index"`
	Scopes       string
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}
