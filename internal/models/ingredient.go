package models

// Ingredient is immutable reference data; it serializes as-is.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"not null;index" json:"name"`
	MeasurementUnit string `gorm:"not null" json:"measurement_unit"`
}
