// Package entitlement 实现纯粹的授权决策逻辑：设备配额、许可证状态
// 与支付完成后的用户变更，不做任何 I/O。
package entitlement

import (
	"time"

	"wallmotion-backend/internal/model"
)

// MaxActiveDevices 同时激活设备的硬上限。购买的 licenses_count 仅作为
// 已购槽位计数对外展示，注册闸门始终按此上限放行。
const MaxActiveDevices = 1

// 设备不可用原因，桌面客户端按字符串匹配展示
const (
	ReasonNotRegistered = "Device not registered"
	ReasonRemoved       = "Device has been removed. Purchase a new license to reactivate it"
	ReasonInactive      = "Device is inactive"
	ReasonLoggedOut     = "Device is logged out. Please sign in from the app again"
	ReasonNoLicense     = "No valid license"
	ReasonUnknownApp    = "Unknown application"
)

// PaymentEvent 一次已完成的支付事件
type PaymentEvent struct {
	SessionID  string
	CustomerID string
	Email      string
}

// UserPatch 支付完成后对用户记录的变更，nil 字段表示不变
type UserPatch struct {
	LicenseType       *model.LicenseType
	PurchaseDate      *time.Time
	StripeCustomerID  *string
	IncrementLicenses int
}

// CanRegisterDevice 判断是否允许再注册一台设备，许可证有效性由调用方先行检查
func CanRegisterDevice(user *model.User, activeDeviceCount int) bool {
	return activeDeviceCount < MaxActiveDevices
}

// IsLicenseValid 判断用户是否持有有效许可证
func IsLicenseValid(user *model.User) bool {
	return user != nil && user.LicenseType.Licensed()
}

// ApplyPaymentCompletion 计算一次支付完成事件对用户的变更。
// licenses_count 恒加一；首次离开 NONE 时设置许可证类型并打上
// purchase_date，此后不再改写。按 SessionID 的去重由调用方持久化保证。
func ApplyPaymentCompletion(user *model.User, event PaymentEvent, now time.Time) UserPatch {
	patch := UserPatch{IncrementLicenses: 1}

	if user.LicenseType == model.LicenseNone {
		lifetime := model.LicenseLifetime
		patch.LicenseType = &lifetime
		purchased := now
		patch.PurchaseDate = &purchased
	}

	if event.CustomerID != "" {
		customerID := event.CustomerID
		patch.StripeCustomerID = &customerID
	}
	return patch
}

// CheckDeviceUsable 按固定顺序判断设备可用性：未注册 > 已移除 > 未激活 >
// 已登出 > 可用，命中第一个失败项即返回。
func CheckDeviceUsable(device *model.Device) (bool, string) {
	if device == nil {
		return false, ReasonNotRegistered
	}
	if device.IsRemoved {
		return false, ReasonRemoved
	}
	if !device.IsActive {
		return false, ReasonInactive
	}
	if !device.IsLoggedIn {
		return false, ReasonLoggedOut
	}
	return true, ""
}
