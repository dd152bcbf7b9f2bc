package handler

import (
	"strconv"
	"strings"

	"wallmotion-backend/internal/model"
	"wallmotion-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// HandleGetMe 当前用户信息，含授权字段
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)

	var user model.User
	if err := h.db.Where("cognito_id = ?", cognitoID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return c.JSON(user)
}

// HandleUpdateMe 用户自助更新邮箱
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)

	type updateInput struct {
		Email string `json:"email" validate:"required,email"`
	}
	input := new(updateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A valid email address is required",
		})
	}

	var user model.User
	if err := h.db.Where("cognito_id = ?", cognitoID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	user.Email = input.Email
	if err := h.db.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update email",
		})
	}

	service.LogOperation(h.db, cognitoID, "update_email", "user", cognitoID, nil)
	return c.JSON(user)
}

// HandleGetUserLogs 当前用户的操作日志
func (h *UserHandler) HandleGetUserLogs(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)

	// 获取分页参数
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	logs, total, err := service.GetUserOperationLogs(h.db, cognitoID, page, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load logs",
		})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}
