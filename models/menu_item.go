package models

import (
	"cms/ordering"

	"gorm.io/gorm"
)

const (
	MenuMain   = "main"
	MenuFooter = "footer"
)

// DefaultMenus are always offered in the dashboard, even before they hold any item
var DefaultMenus = []string{MenuMain, MenuFooter}

// MenuItem order is unique among the children of one parent in one menu. The
// database index is not unique because root items have a NULL parent.
type MenuItem struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt int64
	UpdatedAt int64
	Menu      string  `gorm:"type:varchar(50);not null;index:menu_parent_order,priority:1"`
	ParentID  *string `gorm:"type:varchar(36);index:menu_parent_order,priority:2"`
	Title     string  `gorm:"type:varchar(120)"`
	URL       string  `gorm:"type:varchar(500)"`
	IsActive  bool    `gorm:"not null"`
	Order     int     `gorm:"column:sort_order;not null;index:menu_parent_order,priority:3"`
}

func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}

func (m *MenuItem) GetID() string { return m.ID }
func (m *MenuItem) GetOrder() int { return m.Order }
func (m *MenuItem) SetOrder(order int) { m.Order = order }
func (m *MenuItem) OrderScope() ordering.Scope {
	return ordering.Scope{"menu": m.Menu, "parent_id": m.ParentID}
}
