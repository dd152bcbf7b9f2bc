package service

import (
	"encoding/json"
	"time"

	"wallmotion-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newUsageID() string {
	return uuid.NewString()
}

// LogOperation 记录一次业务操作，失败只影响审计不影响主流程
func LogOperation(db *gorm.DB, cognitoID, action, target, targetID string, details interface{}) error {
	detailsJSON := ""
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		detailsJSON = string(raw)
	}

	entry := &model.OperationLog{
		CognitoID: cognitoID,
		Action:    action,
		Target:    target,
		TargetID:  targetID,
		Details:   detailsJSON,
		CreatedAt: time.Now(),
	}
	return db.Create(entry).Error
}

// GetUserOperationLogs 获取用户的操作日志
func GetUserOperationLogs(db *gorm.DB, cognitoID string, page, pageSize int) ([]model.OperationLog, int64, error) {
	var logs []model.OperationLog
	var total int64

	q := db.Model(&model.OperationLog{}).Where("cognito_id = ?", cognitoID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := q.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// GetUsageRecords 按指纹查询最近的访问记录
func GetUsageRecords(db *gorm.DB, fingerprint string, limit int) ([]model.UsageRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []model.UsageRecord
	q := db.Model(&model.UsageRecord{})
	if fingerprint != "" {
		q = q.Where("fingerprint = ?", fingerprint)
	}
	err := q.Order("timestamp DESC").Limit(limit).Find(&records).Error
	return records, err
}
