package model

import "time"

// UsageRecord 设备注册/校验的访问记录
type UsageRecord struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Fingerprint string    `json:"fingerprint" gorm:"index"`
	Action      string    `json:"action"` // "register", "validate", "login", "logout"
	Valid       bool      `json:"valid"`
	Reason      string    `json:"reason"`
	AppVersion  string    `json:"app_version"`
	MacModel    string    `json:"mac_model"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
	Timestamp   time.Time `json:"timestamp"`
}
