package models

import (
	"cms/db"
	"cms/logger"
	"cms/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates every table of the application
func Migrate(tx *gorm.DB) error {
	return tx.AutoMigrate(
		&storage.Bucket{},
		&User{},
		&Media{},
		&HeroSlide{},
		&Album{},
		&AlbumImage{},
		&MenuItem{},
		&Category{},
		&Article{},
		&AuditLog{},
		&SiteConfig{},
		&VisitLog{},
	)
}

func Init() {
	if err := Migrate(db.Instance); err != nil {
		logger.L().Fatal("migration failed", zap.Error(err))
	}
}
