package entitlement

import (
	"testing"
	"time"

	"wallmotion-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCanRegisterDevice(t *testing.T) {
	tests := []struct {
		name        string
		user        model.User
		activeCount int
		want        bool
	}{
		{
			name:        "no_active_devices",
			user:        model.User{LicenseType: model.LicenseLifetime, LicensesCount: 1},
			activeCount: 0,
			want:        true,
		},
		{
			name:        "one_active_device",
			user:        model.User{LicenseType: model.LicenseLifetime, LicensesCount: 1},
			activeCount: 1,
			want:        false,
		},
		{
			// 已购槽位不提升并发上限
			name:        "many_licenses_still_capped_at_one",
			user:        model.User{LicenseType: model.LicenseLifetime, LicensesCount: 5},
			activeCount: 1,
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanRegisterDevice(&tt.user, tt.activeCount))
		})
	}
}

func TestIsLicenseValid(t *testing.T) {
	assert.False(t, IsLicenseValid(nil))
	assert.False(t, IsLicenseValid(&model.User{LicenseType: model.LicenseNone}))
	assert.True(t, IsLicenseValid(&model.User{LicenseType: model.LicenseLifetime}))
	assert.True(t, IsLicenseValid(&model.User{LicenseType: model.LicenseSubscription}))
}

func TestApplyPaymentCompletion(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("first_purchase", func(t *testing.T) {
		user := model.User{LicenseType: model.LicenseNone, LicensesCount: 0}
		event := PaymentEvent{SessionID: "sess_1", CustomerID: "cus_1"}

		patch := ApplyPaymentCompletion(&user, event, now)

		assert.Equal(t, 1, patch.IncrementLicenses)
		if assert.NotNil(t, patch.LicenseType) {
			assert.Equal(t, model.LicenseLifetime, *patch.LicenseType)
		}
		if assert.NotNil(t, patch.PurchaseDate) {
			assert.Equal(t, now, *patch.PurchaseDate)
		}
		if assert.NotNil(t, patch.StripeCustomerID) {
			assert.Equal(t, "cus_1", *patch.StripeCustomerID)
		}
	})

	t.Run("repeat_purchase_keeps_purchase_date", func(t *testing.T) {
		purchased := now.AddDate(0, -1, 0)
		user := model.User{
			LicenseType:   model.LicenseLifetime,
			LicensesCount: 1,
			PurchaseDate:  &purchased,
		}
		patch := ApplyPaymentCompletion(&user, PaymentEvent{SessionID: "sess_2"}, now)

		assert.Equal(t, 1, patch.IncrementLicenses)
		assert.Nil(t, patch.LicenseType)
		assert.Nil(t, patch.PurchaseDate)
		assert.Nil(t, patch.StripeCustomerID)
	})
}

func TestCheckDeviceUsable(t *testing.T) {
	tests := []struct {
		name       string
		device     *model.Device
		wantOK     bool
		wantReason string
	}{
		{
			name:       "not_found",
			device:     nil,
			wantOK:     false,
			wantReason: ReasonNotRegistered,
		},
		{
			name:       "removed",
			device:     &model.Device{IsRemoved: true},
			wantOK:     false,
			wantReason: ReasonRemoved,
		},
		{
			// 移除优先于登出
			name:       "removed_and_logged_out",
			device:     &model.Device{IsRemoved: true, IsActive: true, IsLoggedIn: false},
			wantOK:     false,
			wantReason: ReasonRemoved,
		},
		{
			name:       "inactive",
			device:     &model.Device{IsActive: false, IsLoggedIn: true},
			wantOK:     false,
			wantReason: ReasonInactive,
		},
		{
			name:       "logged_out",
			device:     &model.Device{IsActive: true, IsLoggedIn: false},
			wantOK:     false,
			wantReason: ReasonLoggedOut,
		},
		{
			name:   "usable",
			device: &model.Device{IsActive: true, IsLoggedIn: true},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := CheckDeviceUsable(tt.device)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}
