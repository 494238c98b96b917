package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an append-only audit entry for moderation actions.
type ActivityLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CauserID    uint              `gorm:"not null;index" json:"causer_id"`
	SubjectType string            `gorm:"size:50;not null;index:idx_activity_subject,priority:1" json:"subject_type"`
	SubjectID   uint              `gorm:"not null;index:idx_activity_subject,priority:2" json:"subject_id"`
	Event       string            `gorm:"size:100;not null" json:"event"`
	Properties  datatypes.JSONMap `json:"properties,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
