package models

import (
	"cms/storage"
	"path"
	"strings"

	"gorm.io/gorm"
)

type Media struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt   int64  `gorm:"index"`
	UserID      *uint64
	User        *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	BucketID    uint64
	Bucket      storage.Bucket `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	Name        string         `gorm:"type:varchar(300)"`
	MimeType    string         `gorm:"type:varchar(100)"`
	Alt         string         `gorm:"type:varchar(300)"`
	Size        int64
	ThumbSize   int64
	Width       uint16
	Height      uint16
	ThumbWidth  uint16
	ThumbHeight uint16
}

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}

// GetPath returns the storage path of the media file, e.g. media/3f/3f2a...c1.png
func (m *Media) GetPath() string {
	return m.getPath(false)
}

func (m *Media) GetThumbPath() string {
	return m.getPath(true)
}

func (m *Media) getPath(thumb bool) string {
	ext := strings.ToLower(path.Ext(m.Name))
	if thumb {
		ext = ".thumb.jpg"
	}
	prefix := m.ID
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return "media/" + prefix + "/" + m.ID + ext
}

// URL is the public address the media is served from
func (m *Media) URL() string {
	return "/media/" + m.ID
}

func (m *Media) ThumbURL() string {
	return "/media/" + m.ID + "/thumb"
}

func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.MimeType, "image/")
}
