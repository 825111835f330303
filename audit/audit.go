// Package audit records who changed which piece of content
package audit

import (
	"cms/logger"
	"cms/models"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionMove    = "MOVE"
	ActionToggle  = "TOGGLE"
	ActionReorder = "REORDER"
	ActionPublish = "PUBLISH"
	ActionLogin   = "LOGIN"
)

type Entry struct {
	User     *models.User
	Action   string
	Entity   string
	EntityID string
	Metadata any
}

// Write stores entry. A failure is logged and returned, callers usually ignore it
// so that auditing never undoes a committed change.
func Write(ctx context.Context, tx *gorm.DB, entry Entry) error {
	row := models.AuditLog{
		Action:   entry.Action,
		Entity:   entry.Entity,
		EntityID: entry.EntityID,
	}
	if entry.User != nil && entry.User.ID != 0 {
		row.UserID = &entry.User.ID
	}
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit metadata: %w", err)
		}
		row.Metadata = string(b)
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		logger.L().Warn("audit log not written",
			zap.String("entity", entry.Entity),
			zap.String("action", entry.Action),
			zap.Error(err))
		return err
	}
	return nil
}

type Filter struct {
	Entity   string
	EntityID string
	UserID   uint64
	Limit    int
}

// List returns the newest entries matching filter (at most 200)
func List(ctx context.Context, tx *gorm.DB, filter Filter) ([]models.AuditLog, error) {
	q := tx.WithContext(ctx).Model(&models.AuditLog{})
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	result := []models.AuditLog{}
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&result).Error
	return result, err
}
