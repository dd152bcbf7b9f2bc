package handler

import (
	"strconv"
	"time"

	"wallmotion-backend/internal/model"
	"wallmotion-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db        *gorm.DB
	sheetSync *service.SheetSyncService
}

func NewAdminHandler(db *gorm.DB, sheetSync *service.SheetSyncService) *AdminHandler {
	return &AdminHandler{db: db, sheetSync: sheetSync}
}

// HandleStatistics 用户/设备/校验统计
func (h *AdminHandler) HandleStatistics(c *fiber.Ctx) error {
	// 解析统计区间，默认最近30天
	startDate := c.Query("start_date")
	var start time.Time
	if startDate != "" {
		parsed, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "start_date must be YYYY-MM-DD",
			})
		}
		start = parsed
	} else {
		start = time.Now().AddDate(0, 0, -30)
	}

	stats := &model.UsageStatistics{
		UsageByAppVersion: make(map[string]int),
		UsageByMacModel:   make(map[string]int),
	}

	db := h.db

	db.Model(&model.User{}).Count(&stats.TotalUsers)
	db.Model(&model.User{}).Where("license_type <> ?", model.LicenseNone).Count(&stats.LicensedUsers)
	db.Model(&model.User{}).Select("COALESCE(SUM(licenses_count), 0)").Scan(&stats.TotalLicenses)
	db.Model(&model.Device{}).Count(&stats.TotalDevices)
	db.Model(&model.Device{}).Where("is_active = ?", true).Count(&stats.ActiveDevices)
	db.Model(&model.Device{}).Where("is_removed = ?", true).Count(&stats.RemovedDevices)
	db.Model(&model.UsageRecord{}).Where("action = ? AND timestamp >= ?", "validate", start).Count(&stats.TotalValidations)
	db.Model(&model.UsageRecord{}).Where("action = ? AND valid = ? AND timestamp >= ?", "validate", false, start).Count(&stats.FailedValidations)

	// 按版本和机型统计
	type grouped struct {
		Key   string
		Count int
	}
	var byVersion []grouped
	db.Model(&model.Device{}).
		Select("app_version AS key, COUNT(*) AS count").
		Where("app_version <> ''").
		Group("app_version").
		Scan(&byVersion)
	for _, g := range byVersion {
		stats.UsageByAppVersion[g.Key] = g.Count
	}

	var byModel []grouped
	db.Model(&model.Device{}).
		Select("mac_model AS key, COUNT(*) AS count").
		Where("mac_model <> ''").
		Group("mac_model").
		Scan(&byModel)
	for _, g := range byModel {
		stats.UsageByMacModel[g.Key] = g.Count
	}

	// 每日活动
	type daily struct {
		Day    string
		Action string
		Count  int
	}
	var rows []daily
	db.Model(&model.UsageRecord{}).
		Select("DATE(timestamp) AS day, action, COUNT(*) AS count").
		Where("timestamp >= ? AND action IN ?", start, []string{"validate", "register"}).
		Group("DATE(timestamp), action").
		Order("day").
		Scan(&rows)

	byDay := make(map[string]*model.DailyActivity)
	var order []string
	for _, row := range rows {
		activity, ok := byDay[row.Day]
		if !ok {
			date, err := time.Parse("2006-01-02", row.Day)
			if err != nil {
				continue
			}
			activity = &model.DailyActivity{Date: date}
			byDay[row.Day] = activity
			order = append(order, row.Day)
		}
		switch row.Action {
		case "validate":
			activity.Validations = row.Count
		case "register":
			activity.Registrations = row.Count
		}
	}
	for _, day := range order {
		stats.DailyActivity = append(stats.DailyActivity, *byDay[day])
	}

	return c.JSON(stats)
}

// HandleUsageRecords 按指纹查询访问记录
func (h *AdminHandler) HandleUsageRecords(c *fiber.Ctx) error {
	fingerprint := c.Query("fingerprint")
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	records, err := service.GetUsageRecords(h.db, fingerprint, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load usage records",
		})
	}
	return c.JSON(fiber.Map{
		"usages": records,
	})
}

// HandleSheetSync 全量重推购买记录到 Google Sheet
func (h *AdminHandler) HandleSheetSync(c *fiber.Ctx) error {
	if h.sheetSync == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Sheet sync is not configured",
		})
	}

	var users []model.User
	if err := h.db.Where("license_type <> ?", model.LicenseNone).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load users",
		})
	}

	if err := h.sheetSync.BatchSyncUsers(users); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Sheet sync failed",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Synced",
		"count":   len(users),
	})
}
