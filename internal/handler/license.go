package handler

import (
	"wallmotion-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LicenseHandler struct {
	devices *service.DeviceService
}

func NewLicenseHandler(devices *service.DeviceService) *LicenseHandler {
	return &LicenseHandler{devices: devices}
}

// HandleValidateLicense 桌面客户端运行时校验。任何失败都返回 200 和
// {valid:false, reason}，绝不抛错。
func (h *LicenseHandler) HandleValidateLicense(c *fiber.Ctx) error {
	input := new(service.ValidateLicenseInput)
	if err := c.BodyParser(input); err != nil {
		return c.JSON(service.ValidateLicenseResult{
			Valid:  false,
			Reason: "Malformed request",
		})
	}
	input.IPAddress = c.IP()
	input.UserAgent = c.Get("User-Agent")

	return c.JSON(h.devices.ValidateLicense(*input))
}
