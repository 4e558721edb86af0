package models

// Tag is immutable reference data; it serializes as-is.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Color string `json:"color"`
	Slug  string `gorm:"uniqueIndex;not null" json:"slug"`
}
