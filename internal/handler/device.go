package handler

import (
	"errors"
	"strconv"

	"wallmotion-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DeviceHandler struct {
	devices *service.DeviceService
}

func NewDeviceHandler(devices *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// HandleRegisterDevice 注册设备
func (h *DeviceHandler) HandleRegisterDevice(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)

	input := new(service.RegisterDeviceInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	device, err := h.devices.Register(cognitoID, *input)
	if err != nil {
		return deviceErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"device": device,
	})
}

// HandleListDevices 列出当前用户的设备
func (h *DeviceHandler) HandleListDevices(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)

	devices, err := h.devices.List(cognitoID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list devices",
		})
	}
	return c.JSON(fiber.Map{
		"devices": devices,
	})
}

// HandleGetDevice 获取设备详情
func (h *DeviceHandler) HandleGetDevice(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid device id",
		})
	}

	device, err := h.devices.Get(cognitoID, uint(id))
	if err != nil {
		return deviceErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"device": device,
	})
}

// HandleRenameDevice 重命名设备
func (h *DeviceHandler) HandleRenameDevice(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid device id",
		})
	}

	type renameInput struct {
		Name string `json:"name"`
	}
	input := new(renameInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	device, err := h.devices.Rename(cognitoID, uint(id), input.Name)
	if err != nil {
		return deviceErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"device": device,
	})
}

// HandleRemoveDevice 移除设备（软删除，指纹不再可用）
func (h *DeviceHandler) HandleRemoveDevice(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid device id",
		})
	}

	if err := h.devices.Remove(cognitoID, uint(id)); err != nil {
		return deviceErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Device removed",
	})
}

type sessionInput struct {
	Fingerprint string `json:"fingerprint"`
}

// HandleDeviceLogin 桌面客户端上报登录状态
func (h *DeviceHandler) HandleDeviceLogin(c *fiber.Ctx) error {
	return h.setSession(c, true)
}

// HandleDeviceLogout 桌面客户端上报登出状态
func (h *DeviceHandler) HandleDeviceLogout(c *fiber.Ctx) error {
	return h.setSession(c, false)
}

func (h *DeviceHandler) setSession(c *fiber.Ctx, loggedIn bool) error {
	input := new(sessionInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.devices.SetLoggedIn(input.Fingerprint, loggedIn); err != nil {
		return deviceErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "OK",
	})
}

// deviceErrorResponse 服务层错误到 HTTP 状态码的统一映射
func deviceErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing or invalid fields",
		})
	case errors.Is(err, service.ErrNoLicense):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "A valid license is required to register devices",
		})
	case errors.Is(err, service.ErrDeviceLimit):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Active device limit reached. Remove another device first",
		})
	case errors.Is(err, service.ErrFingerprintConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "This device is already registered to another user",
		})
	case errors.Is(err, service.ErrDeviceRemoved):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "This device was removed. Purchase a new license to reactivate it",
		})
	case errors.Is(err, service.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not own this device",
		})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Device not found",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal error",
		})
	}
}
