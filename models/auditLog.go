package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/utils"
	"gorm.io/gorm"
)

// AuditLog records one successful console mutation.
type AuditLog struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Path          string    `gorm:"size:255;not null" json:"path"`
	ReferenceType string    `gorm:"size:50;index" json:"reference_type"`
	ReferenceId   string    `gorm:"size:50" json:"reference_id"`
	Status        int       `gorm:"not null" json:"status"`
	UserId        int       `gorm:"index;not null" json:"user_id"`
	UserName      string    `gorm:"size:100" json:"user_name"`
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func MigrateTable() error {
	db := config.GetDB()
	if db == nil {
		return errors.New("db is nil")
	}
	return db.AutoMigrate(&AuditLog{})
}

// SaveAuditLog fills user and correlation fields from ctx.
func SaveAuditLog(ctx context.Context, db *gorm.DB, entry *AuditLog) error {
	if db == nil {
		return nil
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		entry.UserId = userId
	}
	if userName, ok := utils.GetUserNameFromContext(ctx); ok {
		entry.UserName = userName
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		entry.CorrelationId = cid
	}
	return db.WithContext(ctx).Create(entry).Error
}

type AuditLogFilter struct {
	ReferenceType string
	UserId        int
	Limit         int
}

func ListAuditLogs(ctx context.Context, db *gorm.DB, filter AuditLogFilter) ([]*AuditLog, error) {
	if db == nil {
		return nil, errors.New("audit log is not enabled")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := db.WithContext(ctx).Model(&AuditLog{})
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.UserId > 0 {
		q = q.Where("user_id = ?", filter.UserId)
	}
	var results []*AuditLog
	err := q.Order("id DESC").Limit(limit).Find(&results).Error
	return results, err
}
