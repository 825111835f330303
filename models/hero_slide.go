package models

import (
	"cms/ordering"

	"gorm.io/gorm"
)

type HeroSlide struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt   int64
	UpdatedAt   int64
	Title       string  `gorm:"type:varchar(200)"`
	Subtitle    string  `gorm:"type:varchar(160)"`
	Description string  `gorm:"type:varchar(600)"`
	ButtonLabel string  `gorm:"type:varchar(80)"`
	ButtonURL   string  `gorm:"type:varchar(500)"`
	ImageID     *string `gorm:"type:varchar(36)"`
	Image       *Media  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	ImageURL    string  `gorm:"type:varchar(500)"`
	IsActive    bool    `gorm:"not null"`
	Order       int     `gorm:"column:sort_order;not null;uniqueIndex:uniq_hero_slide_order"`
}

func (s *HeroSlide) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

func (s *HeroSlide) GetID() string { return s.ID }
func (s *HeroSlide) GetOrder() int { return s.Order }
func (s *HeroSlide) SetOrder(order int) { s.Order = order }
func (s *HeroSlide) OrderScope() ordering.Scope { return ordering.Scope{} }
