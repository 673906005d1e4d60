package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles a user can hold
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. Email is the login identifier.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"size:254;uniqueIndex;not null"`
	Username  string `gorm:"size:150;uniqueIndex;not null"`
	FirstName string `gorm:"size:150;not null"`
	LastName  string `gorm:"size:150;not null"`
	Password  string `gorm:"size:255;not null"`
	Role      string `gorm:"size:16;not null;default:'user'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HashPassword replaces the plain text password with its bcrypt hash
func (u *User) HashPassword() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether the plain text password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// IsAdmin reports whether the user may manage reference data
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
