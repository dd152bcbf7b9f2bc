package handler

import (
	"testing"

	"wallmotion-backend/internal/entitlement"
	"wallmotion-backend/internal/model"
	"wallmotion-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleValidateLicenseUnknownFingerprint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, "POST", "/api/v1/validate-license", "", fiber.Map{
		"fingerprint":       "F-unknown",
		"bundle_identifier": testBundleID,
	})
	// 失败也是 200
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result service.ValidateLicenseResult
	decodeBody(t, resp, &result)
	assert.False(t, result.Valid)
	assert.Equal(t, entitlement.ReasonNotRegistered, result.Reason)
}

func TestHandleValidateLicenseBundleMismatch(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, "POST", "/api/v1/validate-license", "", fiber.Map{
		"fingerprint":       "F1",
		"bundle_identifier": "com.evil.clone",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result service.ValidateLicenseResult
	decodeBody(t, resp, &result)
	assert.False(t, result.Valid)
	assert.Equal(t, entitlement.ReasonUnknownApp, result.Reason)
}

func TestHandleValidateLicenseFullFlow(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1", model.LicenseLifetime, 1)
	token := env.token(t, "u1", "u1@example.com")

	resp := env.request(t, "POST", "/api/v1/devices/", token,
		fiber.Map{"fingerprint": "F1", "name": "MacBook"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.request(t, "POST", "/api/v1/validate-license", "", fiber.Map{
		"fingerprint":       "F1",
		"bundle_identifier": testBundleID,
		"app_version":       "1.4.0",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result service.ValidateLicenseResult
	decodeBody(t, resp, &result)
	assert.True(t, result.Valid)
	require.NotNil(t, result.License)
	assert.Equal(t, model.LicenseLifetime, result.License.LicenseType)
	assert.Equal(t, "MacBook", result.License.DeviceName)
	assert.Contains(t, result.License.Features, "video_wallpapers")
}

func TestHandleValidateLicenseRemovedDevice(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1", model.LicenseLifetime, 1)
	token := env.token(t, "u1", "u1@example.com")

	resp := env.request(t, "POST", "/api/v1/devices/", token,
		fiber.Map{"fingerprint": "F1", "name": "MacBook"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var registered struct {
		Device model.Device `json:"device"`
	}
	decodeBody(t, resp, &registered)

	resp = env.request(t, "DELETE",
		"/api/v1/devices/"+itoa(registered.Device.ID), token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// 移除后校验报告 removed，而非 logged out
	resp = env.request(t, "POST", "/api/v1/validate-license", "", fiber.Map{
		"fingerprint":       "F1",
		"bundle_identifier": testBundleID,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result service.ValidateLicenseResult
	decodeBody(t, resp, &result)
	assert.False(t, result.Valid)
	assert.Equal(t, entitlement.ReasonRemoved, result.Reason)
}
