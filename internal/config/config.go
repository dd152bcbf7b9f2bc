package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 服务配置，全部来自环境变量（可选 .env 文件）
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"data/wallmotion.db"`
	CORSOrigins  string `envconfig:"CORS_ORIGINS" default:"*"`

	// 身份令牌校验
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// 桌面客户端
	BundleID string `envconfig:"BUNDLE_ID" default:"eu.wallmotion.app"`

	// Stripe
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripePriceID       string `envconfig:"STRIPE_PRICE_ID"`
	CheckoutSuccessURL  string `envconfig:"CHECKOUT_SUCCESS_URL" default:"https://wallmotion.eu/payment/success"`
	CheckoutCancelURL   string `envconfig:"CHECKOUT_CANCEL_URL" default:"https://wallmotion.eu/payment/cancel"`

	// 购买回执邮件，SMTP_HOST 为空时禁用
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"noreply@wallmotion.eu"`

	// 运营后台
	AdminAPIKey string `envconfig:"ADMIN_API_KEY"`

	// Google Sheets 同步
	SheetSyncEnabled      bool   `envconfig:"SHEET_SYNC_ENABLED" default:"false"`
	GoogleCredentialsPath string `envconfig:"GOOGLE_CREDENTIALS_PATH" default:"credentials.json"`
	SpreadsheetID         string `envconfig:"SPREADSHEET_ID"`
	SheetName             string `envconfig:"SHEET_NAME" default:"Purchases"`
}

func Load() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return &cfg, nil
}
