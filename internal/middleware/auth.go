package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"

	"wallmotion-backend/internal/model"
	"wallmotion-backend/internal/util"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type credentialKind int

const (
	credBearer credentialKind = iota
	credLegacyBlob
)

// credential 边界处归一化后的凭证，旧版客户端把令牌塞在请求体里
type credential struct {
	kind  credentialKind
	token string
}

func credentialFrom(c *fiber.Ctx) (credential, error) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return credential{}, errors.New("invalid authorization format")
		}
		return credential{kind: credBearer, token: parts[1]}, nil
	}

	// 旧版客户端：JSON 请求体内嵌 accessToken
	if strings.HasPrefix(c.Get("Content-Type"), "application/json") {
		var blob struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal(c.Body(), &blob); err == nil && blob.AccessToken != "" {
			return credential{kind: credLegacyBlob, token: blob.AccessToken}, nil
		}
	}
	return credential{}, errors.New("missing credential")
}

// Auth 验证身份令牌，首次见到的身份会即时建档
func Auth(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cred, err := credentialFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or malformed credential",
			})
		}

		cognitoID, email, err := util.ValidateToken(cred.token, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// 首次验证成功时建档
		var user model.User
		result := db.Where("cognito_id = ?", cognitoID).First(&user)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "User lookup failed",
				})
			}
			user = model.User{
				CognitoID:   cognitoID,
				Email:       strings.ToLower(email),
				LicenseType: model.LicenseNone,
			}
			if err := db.Create(&user).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "User provisioning failed",
				})
			}
		}

		c.Locals("cognitoID", cognitoID)
		c.Locals("email", user.Email)
		return c.Next()
	}
}

// AdminOnly 运营后台接口的 API key 校验
func AdminOnly(adminKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-Admin-Key")
		if adminKey == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}
