package model

import (
	"time"
)

// LicenseType 许可证类型，封闭枚举
type LicenseType string

const (
	LicenseNone         LicenseType = "NONE"
	LicenseLifetime     LicenseType = "LIFETIME"
	LicenseSubscription LicenseType = "SUBSCRIPTION"
)

// Known 检查是否为已知的许可证类型
func (t LicenseType) Known() bool {
	switch t {
	case LicenseNone, LicenseLifetime, LicenseSubscription:
		return true
	}
	return false
}

// Licensed 是否持有有效许可证
func (t LicenseType) Licensed() bool {
	return t == LicenseLifetime || t == LicenseSubscription
}

type User struct {
	ID               uint        `json:"id" gorm:"primaryKey"`
	CognitoID        string      `json:"cognito_id" gorm:"uniqueIndex;not null"`
	Email            string      `json:"email" gorm:"uniqueIndex;not null"`
	LicenseType      LicenseType `json:"license_type" gorm:"default:'NONE'"`
	LicensesCount    int         `json:"licenses_count" gorm:"default:0"`
	PurchaseDate     *time.Time  `json:"purchase_date"`
	StripeCustomerID string      `json:"stripe_customer_id"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
