package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Media captures metadata for uploaded images.
type Media struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Src       string    `gorm:"column:src;not null"`
	Name      string    `gorm:"column:name;not null"`
	Alt       string    `gorm:"column:alt;not null;default:''"`
	CreatedAt time.Time `gorm:"column:date_created;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:date_modified;autoUpdateTime"`
}

func (Media) TableName() string { return "media" }

func (m *Media) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
