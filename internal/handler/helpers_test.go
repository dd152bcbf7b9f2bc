package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"wallmotion-backend/internal/database"
	"wallmotion-backend/internal/middleware"
	"wallmotion-backend/internal/model"
	"wallmotion-backend/internal/service"
	"wallmotion-backend/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret     = "test-jwt-secret"
	testWebhookSecret = "whsec_test"
	testBundleID      = "eu.wallmotion.app"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

// newTestEnv 按 cmd/main.go 的布线搭建测试应用
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.ConnectTest()
	require.NoError(t, err)
	t.Cleanup(func() { database.CleanTest(db) })

	devices := service.NewDeviceService(db, testBundleID)
	payments := service.NewPaymentService(db, service.CheckoutConfig{}, nil, nil)

	deviceHandler := NewDeviceHandler(devices)
	licenseHandler := NewLicenseHandler(devices)
	paymentHandler := NewPaymentHandler(payments, testWebhookSecret)
	userHandler := NewUserHandler(db)
	adminHandler := NewAdminHandler(db, nil)

	app := fiber.New()
	auth := middleware.Auth(db, testJWTSecret)

	api := app.Group("/api/v1")
	api.Post("/validate-license", licenseHandler.HandleValidateLicense)
	api.Post("/devices/login", deviceHandler.HandleDeviceLogin)
	api.Post("/devices/logout", deviceHandler.HandleDeviceLogout)
	api.Post("/webhook", paymentHandler.HandleWebhook)

	devicesGroup := api.Group("/devices", auth)
	devicesGroup.Post("/", deviceHandler.HandleRegisterDevice)
	devicesGroup.Get("/", deviceHandler.HandleListDevices)
	devicesGroup.Get("/:id", deviceHandler.HandleGetDevice)
	devicesGroup.Put("/:id", deviceHandler.HandleRenameDevice)
	devicesGroup.Delete("/:id", deviceHandler.HandleRemoveDevice)

	users := api.Group("/users", auth)
	users.Get("/me", userHandler.HandleGetMe)
	users.Put("/me", userHandler.HandleUpdateMe)
	users.Get("/logs", userHandler.HandleGetUserLogs)

	admin := api.Group("/admin", middleware.AdminOnly("test-admin-key"))
	admin.Get("/statistics", adminHandler.HandleStatistics)
	admin.Get("/usage", adminHandler.HandleUsageRecords)

	return &testEnv{app: app, db: db}
}

func (e *testEnv) token(t *testing.T, cognitoID, email string) string {
	t.Helper()
	token, err := util.GenerateToken(cognitoID, email, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) createUser(t *testing.T, cognitoID string, licenseType model.LicenseType, count int) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.User{
		CognitoID:     cognitoID,
		Email:         cognitoID + "@example.com",
		LicenseType:   licenseType,
		LicensesCount: count,
	}).Error)
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
