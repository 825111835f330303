package models

type AuditLog struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64  `gorm:"index"`
	UserID    *uint64
	Action    string `gorm:"type:varchar(50)"`
	Entity    string `gorm:"type:varchar(50);index:audit_entity,priority:1"`
	EntityID  string `gorm:"type:varchar(64);index:audit_entity,priority:2"`
	Metadata  string `gorm:"type:text"`
}
