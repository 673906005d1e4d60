package models

// Tag is administrator-managed reference data attached to recipes
type Tag struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:200;uniqueIndex;not null"`
	Slug  string `gorm:"size:200;uniqueIndex;not null"`
	Color string `gorm:"size:16;uniqueIndex;not null"`
}
