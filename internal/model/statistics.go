package model

import "time"

// DailyActivity 每日活动统计
type DailyActivity struct {
	Date          time.Time `json:"date"`
	Validations   int       `json:"validations"`
	Registrations int       `json:"registrations"`
}

// UsageStatistics 用户与设备使用统计信息
type UsageStatistics struct {
	TotalUsers        int64           `json:"total_users"`
	LicensedUsers     int64           `json:"licensed_users"`
	TotalLicenses     int64           `json:"total_licenses"`
	TotalDevices      int64           `json:"total_devices"`
	ActiveDevices     int64           `json:"active_devices"`
	RemovedDevices    int64           `json:"removed_devices"`
	TotalValidations  int64           `json:"total_validations"`
	FailedValidations int64           `json:"failed_validations"`
	UsageByAppVersion map[string]int  `json:"usage_by_app_version"`
	UsageByMacModel   map[string]int  `json:"usage_by_mac_model"`
	DailyActivity     []DailyActivity `json:"daily_activity"`
}

// GetSuccessRate 计算校验成功率
func (s *UsageStatistics) GetSuccessRate() float64 {
	if s.TotalValidations == 0 {
		return 0
	}
	return float64(s.TotalValidations-s.FailedValidations) / float64(s.TotalValidations)
}

// GetUsageByAppVersion 获取指定版本的使用量
func (s *UsageStatistics) GetUsageByAppVersion(version string) int {
	if count, ok := s.UsageByAppVersion[version]; ok {
		return count
	}
	return 0
}

// GetDailyActivityByDate 获取指定日期的活动统计
func (s *UsageStatistics) GetDailyActivityByDate(date time.Time) *DailyActivity {
	for _, activity := range s.DailyActivity {
		if activity.Date.Year() == date.Year() &&
			activity.Date.Month() == date.Month() &&
			activity.Date.Day() == date.Day() {
			return &activity
		}
	}
	return nil
}
