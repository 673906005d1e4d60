package models

// Ingredient is unique on the (name, measurement unit) pair, so the same name
// may exist under different units.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit;index"`
	MeasurementUnit string `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit"`
}
