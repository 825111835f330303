package models

import (
	"cms/ordering"

	"gorm.io/gorm"
)

const MaxCaptionLength = 300

type Album struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt   int64  `gorm:"index"`
	UpdatedAt   int64
	CreatedByID *uint64
	CreatedBy   *User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Title       string        `gorm:"type:varchar(200)"`
	Slug        string        `gorm:"type:varchar(200);index:uniq_album_slug,unique"`
	Description string        `gorm:"type:varchar(1000)"`
	Status      PublishStatus `gorm:"type:varchar(10);not null"`
	Images      []AlbumImage  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}

type AlbumImage struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt int64
	AlbumID   string `gorm:"type:varchar(36);not null;index:uniq_album_position,unique,priority:1"`
	MediaID   string `gorm:"type:varchar(36);not null"`
	Media     Media  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Caption   string `gorm:"type:varchar(300)"`
	Position  int    `gorm:"not null;index:uniq_album_position,unique,priority:2"`
}

func (i *AlbumImage) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}

func (i *AlbumImage) GetID() string { return i.ID }
func (i *AlbumImage) GetOrder() int { return i.Position }
func (i *AlbumImage) SetOrder(order int) { i.Position = order }
func (i *AlbumImage) OrderScope() ordering.Scope {
	return ordering.Scope{"album_id": i.AlbumID}
}
