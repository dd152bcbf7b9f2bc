package service

import (
	"time"

	"wallmotion-backend/internal/entitlement"
	"wallmotion-backend/internal/model"
)

// licenseFeatures 桌面客户端解锁的功能列表，随许可证描述符返回
var licenseFeatures = []string{"video_wallpapers", "youtube_import", "auto_updates"}

type ValidateLicenseInput struct {
	Fingerprint      string `json:"fingerprint"`
	BundleIdentifier string `json:"bundle_identifier"`
	AppVersion       string `json:"app_version"`
	IPAddress        string `json:"-"`
	UserAgent        string `json:"-"`
}

type LicenseDetails struct {
	LicenseType  model.LicenseType `json:"license_type"`
	PurchaseDate *time.Time        `json:"purchase_date,omitempty"`
	Features     []string          `json:"features"`
	DeviceName   string            `json:"device_name"`
	RegisteredAt time.Time         `json:"registered_at"`
}

type ValidateLicenseResult struct {
	Valid   bool            `json:"valid"`
	Reason  string          `json:"reason,omitempty"`
	License *LicenseDetails `json:"license,omitempty"`
}

// ValidateLicense 桌面客户端的运行时校验。任何失败都作为正常结果返回，
// 绝不向调用方抛错。
func (s *DeviceService) ValidateLicense(in ValidateLicenseInput) ValidateLicenseResult {
	if in.BundleIdentifier != s.bundleID {
		return s.invalid(in, entitlement.ReasonUnknownApp)
	}

	var device model.Device
	if err := s.db.Where("fingerprint = ?", in.Fingerprint).First(&device).Error; err != nil {
		// 存储故障也降级为普通失败结果
		return s.invalid(in, entitlement.ReasonNotRegistered)
	}

	if ok, reason := entitlement.CheckDeviceUsable(&device); !ok {
		return s.invalid(in, reason)
	}

	var user model.User
	if err := s.db.Where("cognito_id = ?", device.CognitoID).First(&user).Error; err != nil {
		return s.invalid(in, entitlement.ReasonNoLicense)
	}
	if !entitlement.IsLicenseValid(&user) {
		return s.invalid(in, entitlement.ReasonNoLicense)
	}

	// 机会性更新 last_seen 和版本信息
	updates := map[string]interface{}{"last_seen": time.Now()}
	if in.AppVersion != "" {
		updates["app_version"] = in.AppVersion
	}
	s.db.Model(&device).Updates(updates)

	s.recordUsage(in.Fingerprint, "validate", true, "", in.AppVersion, device.MacModel, in.IPAddress, in.UserAgent)

	return ValidateLicenseResult{
		Valid: true,
		License: &LicenseDetails{
			LicenseType:  user.LicenseType,
			PurchaseDate: user.PurchaseDate,
			Features:     licenseFeatures,
			DeviceName:   device.Name,
			RegisteredAt: device.RegisteredAt,
		},
	}
}

func (s *DeviceService) invalid(in ValidateLicenseInput, reason string) ValidateLicenseResult {
	s.recordUsage(in.Fingerprint, "validate", false, reason, in.AppVersion, "", in.IPAddress, in.UserAgent)
	return ValidateLicenseResult{Valid: false, Reason: reason}
}
