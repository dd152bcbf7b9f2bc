package model

import "time"

// Device 一台已注册的 Mac，指纹在全系统范围内唯一
type Device struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Fingerprint  string    `json:"fingerprint" gorm:"uniqueIndex;not null"`
	CognitoID    string    `json:"cognito_id" gorm:"index;not null"`
	Name         string    `json:"name" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"index"`
	IsLoggedIn   bool      `json:"is_logged_in"`
	IsRemoved    bool      `json:"is_removed"`
	MacModel     string    `json:"mac_model"`
	MacosVersion string    `json:"macos_version"`
	AppVersion   string    `json:"app_version"`
	LastSeen     time.Time `json:"last_seen"`
	RegisteredAt time.Time `json:"registered_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
