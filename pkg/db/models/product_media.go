package models

import "github.com/google/uuid"

// ProductMedia orders media attached to a product; the highest position is the primary image.
type ProductMedia struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	MediaID   uuid.UUID `gorm:"column:media_id;type:uuid;primaryKey"`
	Position  int       `gorm:"column:position;not null;default:0"`
}

func (ProductMedia) TableName() string { return "product_media" }
