package models

type SiteConfig struct {
	Key       string `gorm:"type:varchar(50);primaryKey"`
	UpdatedAt int64
	Value     string `gorm:"type:text"`
}
