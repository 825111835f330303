package models

import "gorm.io/gorm"

type Article struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt   int64  `gorm:"index:article_published,priority:3"`
	UpdatedAt   int64
	Title       string        `gorm:"type:varchar(200)"`
	Slug        string        `gorm:"type:varchar(200);index:uniq_article_slug,unique"`
	Excerpt     string        `gorm:"type:varchar(500)"`
	Content     string        `gorm:"type:text"` // editor document, stored as JSON
	Status      PublishStatus `gorm:"type:varchar(10);not null;index:article_published,priority:1"`
	PublishedAt *int64        `gorm:"index:article_published,priority:2"`
	AuthorID    uint64        `gorm:"not null"`
	Author      User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FeaturedID  *string       `gorm:"type:varchar(36)"`
	Featured    *Media        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Categories  []Category    `gorm:"many2many:article_categories;"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}

type Category struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt int64
	Name      string `gorm:"type:varchar(100)"`
	Slug      string `gorm:"type:varchar(100);index:uniq_category_slug,unique"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}
