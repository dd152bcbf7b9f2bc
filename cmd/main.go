package main

import (
	"log"

	"wallmotion-backend/internal/config"
	"wallmotion-backend/internal/database"
	"wallmotion-backend/internal/handler"
	"wallmotion-backend/internal/middleware"
	"wallmotion-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/stripe/stripe-go/v78"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// 初始化数据库，句柄显式注入各服务
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}

	stripe.Key = cfg.StripeSecretKey

	mailer := service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)

	sheetSync, err := service.NewSheetSyncService(cfg.SheetSyncEnabled, cfg.GoogleCredentialsPath, cfg.SpreadsheetID, cfg.SheetName)
	if err != nil {
		log.Printf("表格同步初始化失败，已禁用: %v", err)
		sheetSync = nil
	}

	devices := service.NewDeviceService(db, cfg.BundleID)
	payments := service.NewPaymentService(db, service.CheckoutConfig{
		PriceID:    cfg.StripePriceID,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	}, mailer, sheetSync)

	deviceHandler := handler.NewDeviceHandler(devices)
	licenseHandler := handler.NewLicenseHandler(devices)
	paymentHandler := handler.NewPaymentHandler(payments, cfg.StripeWebhookSecret)
	userHandler := handler.NewUserHandler(db)
	adminHandler := handler.NewAdminHandler(db, sheetSync)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// 中间件
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
	}))

	auth := middleware.Auth(db, cfg.JWTSecret)

	// 路由组
	api := app.Group("/api/v1")

	// 桌面客户端：指纹认证，无令牌
	api.Post("/validate-license", licenseHandler.HandleValidateLicense)
	api.Post("/devices/login", deviceHandler.HandleDeviceLogin)
	api.Post("/devices/logout", deviceHandler.HandleDeviceLogout)

	// Stripe webhook：签名认证
	api.Post("/webhook", paymentHandler.HandleWebhook)

	// 设备管理
	devicesGroup := api.Group("/devices", auth)
	devicesGroup.Post("/", deviceHandler.HandleRegisterDevice)
	devicesGroup.Get("/", deviceHandler.HandleListDevices)
	devicesGroup.Get("/:id", deviceHandler.HandleGetDevice)
	devicesGroup.Put("/:id", deviceHandler.HandleRenameDevice)
	devicesGroup.Delete("/:id", deviceHandler.HandleRemoveDevice)

	// 用户
	users := api.Group("/users", auth)
	users.Get("/me", userHandler.HandleGetMe)
	users.Put("/me", userHandler.HandleUpdateMe)
	users.Get("/logs", userHandler.HandleGetUserLogs)

	// 支付
	api.Post("/checkout", auth, paymentHandler.HandleCreateCheckout)

	// 运营后台
	admin := api.Group("/admin", middleware.AdminOnly(cfg.AdminAPIKey))
	admin.Get("/statistics", adminHandler.HandleStatistics)
	admin.Get("/usage", adminHandler.HandleUsageRecords)
	admin.Post("/sheet-sync", adminHandler.HandleSheetSync)

	log.Fatal(app.Listen(":" + cfg.Port))
}
