package store

import (
	"gorm.io/datatypes"
)

// GORM model used for persistence. Column names are the canonical snake_case
// wire names so nothing re-maps at the SQL boundary.
type BookModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Title         string `gorm:"not null"`
	Author        string `gorm:"not null;index"`
	Publisher     string
	PublishedDate *datatypes.Date `gorm:"column:published_date"`
	Quantity      int             `gorm:"not null;default:0"`
	Description   string          `gorm:"type:text"`
	ImageURL      string          `gorm:"column:image_url"`
}

// TableName keeps the table name stable regardless of model naming.
func (BookModel) TableName() string { return "books" }
