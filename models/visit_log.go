package models

import (
	"unicode/utf8"

	"gorm.io/gorm"
)

// VisitLog is one view of a public page
type VisitLog struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64  `gorm:"index"`
	Path      string `gorm:"type:varchar(255)"`
	URL       string `gorm:"type:varchar(500)"`
	Referrer  string `gorm:"type:varchar(500)"`
	IP        string `gorm:"type:varchar(64);index"`
	UserAgent string `gorm:"type:varchar(255)"`
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// NewVisitLog clips every value to its column size
func NewVisitLog(path, url, referrer, ip, userAgent string) VisitLog {
	return VisitLog{
		Path:      clip(path, 255),
		URL:       clip(url, 500),
		Referrer:  clip(referrer, 500),
		IP:        clip(ip, 64),
		UserAgent: clip(userAgent, 255),
	}
}

// UniqueVisitorsSince counts the distinct addresses seen at or after since (unix seconds)
func UniqueVisitorsSince(tx *gorm.DB, since int64) (count int64, err error) {
	err = tx.Model(&VisitLog{}).
		Where("created_at >= ? AND ip <> ''", since).
		Distinct("ip").
		Count(&count).Error
	return
}
