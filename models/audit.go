package models

import (
	"time"
)

type AuditLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     *string   `json:"userId" gorm:"type:varchar(36);index"`
	Action     string    `json:"action" gorm:"not null"`
	Resource   string    `json:"resource" gorm:"not null"`
	ResourceID string    `json:"resourceId"`
	Details    string    `json:"details"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
}
