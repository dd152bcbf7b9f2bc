package model

import "time"

// ProcessedEvent 已处理的支付完成事件，按 checkout session 去重
type ProcessedEvent struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SessionID   string    `json:"session_id" gorm:"uniqueIndex;not null"`
	CognitoID   string    `json:"cognito_id"`
	ProcessedAt time.Time `json:"processed_at"`
}
