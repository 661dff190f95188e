package Models

import "time"

// AuditLog rows are append-only.
type AuditLog struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	Action         string    `json:"action" gorm:"not null"`
	ObjectID       string    `json:"object_id"`
	ObjectType     string    `json:"object_type" gorm:"index"`
	AdditionalInfo string    `json:"additional_info" gorm:"type:text"`
	ParentID       *uint     `json:"parent_id" gorm:"index"`
	Timestamp      time.Time `json:"timestamp" gorm:"index"`
}
