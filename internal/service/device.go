package service

import (
	"errors"
	"strings"
	"time"

	"wallmotion-backend/internal/entitlement"
	"wallmotion-backend/internal/model"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// DeviceService 设备注册、管理与运行时许可校验
type DeviceService struct {
	db       *gorm.DB
	bundleID string
}

func NewDeviceService(db *gorm.DB, bundleID string) *DeviceService {
	return &DeviceService{db: db, bundleID: bundleID}
}

type RegisterDeviceInput struct {
	Fingerprint  string `json:"fingerprint" validate:"required"`
	Name         string `json:"name" validate:"required"`
	MacModel     string `json:"mac_model"`
	MacosVersion string `json:"macos_version"`
	AppVersion   string `json:"app_version"`
}

// Register 注册或复活一台设备。容量检查与行写入在同一事务内，
// 避免并发注册同时通过检查。
func (s *DeviceService) Register(cognitoID string, in RegisterDeviceInput) (*model.Device, error) {
	in.Fingerprint = strings.TrimSpace(in.Fingerprint)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, ErrInvalidInput
	}

	var user model.User
	if err := s.db.Where("cognito_id = ?", cognitoID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !entitlement.IsLicenseValid(&user) {
		return nil, ErrNoLicense
	}

	now := time.Now()
	var device *model.Device
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var activeCount int64
		if err := tx.Model(&model.Device{}).
			Where("cognito_id = ? AND is_active = ?", cognitoID, true).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if !entitlement.CanRegisterDevice(&user, int(activeCount)) {
			return ErrDeviceLimit
		}

		// 指纹全局唯一，跨用户查找
		var existing model.Device
		err := tx.Where("fingerprint = ?", in.Fingerprint).First(&existing).Error
		switch {
		case err == nil:
			if existing.IsRemoved {
				return ErrDeviceRemoved
			}
			if existing.IsActive {
				// 不泄露持有者身份
				return ErrFingerprintConflict
			}
			// 复活闲置行，允许设备换绑到当前用户
			existing.CognitoID = cognitoID
			existing.Name = in.Name
			existing.IsActive = true
			existing.IsLoggedIn = true
			existing.MacModel = in.MacModel
			existing.MacosVersion = in.MacosVersion
			existing.AppVersion = in.AppVersion
			existing.LastSeen = now
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			device = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := model.Device{
				Fingerprint:  in.Fingerprint,
				CognitoID:    cognitoID,
				Name:         in.Name,
				IsActive:     true,
				IsLoggedIn:   true,
				MacModel:     in.MacModel,
				MacosVersion: in.MacosVersion,
				AppVersion:   in.AppVersion,
				LastSeen:     now,
				RegisteredAt: now,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			device = &created
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordUsage(in.Fingerprint, "register", true, "", in.AppVersion, in.MacModel, "", "")
	LogOperation(s.db, cognitoID, "register", "device", device.Fingerprint, map[string]string{"name": device.Name})
	return device, nil
}

// List 列出当前用户的设备（不含已移除的历史行）
func (s *DeviceService) List(cognitoID string) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.Where("cognito_id = ? AND is_removed = ?", cognitoID, false).
		Order("registered_at DESC").
		Find(&devices).Error
	return devices, err
}

// Get 按 ID 获取设备，校验归属
func (s *DeviceService) Get(cognitoID string, id uint) (*model.Device, error) {
	var device model.Device
	if err := s.db.First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if device.CognitoID != cognitoID {
		return nil, ErrNotOwner
	}
	return &device, nil
}

// Rename 重命名设备，仅限归属用户
func (s *DeviceService) Rename(cognitoID string, id uint, name string) (*model.Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	device, err := s.Get(cognitoID, id)
	if err != nil {
		return nil, err
	}
	device.Name = name
	if err := s.db.Save(device).Error; err != nil {
		return nil, err
	}
	LogOperation(s.db, cognitoID, "rename", "device", device.Fingerprint, map[string]string{"name": name})
	return device, nil
}

// Remove 软移除设备：行保留，指纹被永久占用，重新激活需要新的购买流程
func (s *DeviceService) Remove(cognitoID string, id uint) error {
	device, err := s.Get(cognitoID, id)
	if err != nil {
		return err
	}
	if err := s.db.Model(device).Updates(map[string]interface{}{
		"is_active":    false,
		"is_logged_in": false,
		"is_removed":   true,
	}).Error; err != nil {
		return err
	}
	LogOperation(s.db, cognitoID, "remove", "device", device.Fingerprint, nil)
	return nil
}

// SetLoggedIn 按指纹更新桌面客户端的会话标记
func (s *DeviceService) SetLoggedIn(fingerprint string, loggedIn bool) error {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return ErrInvalidInput
	}
	var device model.Device
	if err := s.db.Where("fingerprint = ?", fingerprint).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if device.IsRemoved || !device.IsActive {
		return ErrNotFound
	}
	action := "logout"
	if loggedIn {
		action = "login"
	}
	if err := s.db.Model(&device).Updates(map[string]interface{}{
		"is_logged_in": loggedIn,
		"last_seen":    time.Now(),
	}).Error; err != nil {
		return err
	}
	s.recordUsage(fingerprint, action, true, "", device.AppVersion, device.MacModel, "", "")
	return nil
}

func (s *DeviceService) recordUsage(fingerprint, action string, valid bool, reason, appVersion, macModel, ip, userAgent string) {
	record := model.UsageRecord{
		ID:          newUsageID(),
		Fingerprint: fingerprint,
		Action:      action,
		Valid:       valid,
		Reason:      reason,
		AppVersion:  appVersion,
		MacModel:    macModel,
		IPAddress:   ip,
		UserAgent:   userAgent,
		Timestamp:   time.Now(),
	}
	s.db.Create(&record)
}
