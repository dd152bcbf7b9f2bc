package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"wallmotion-backend/internal/entitlement"
	"wallmotion-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"gorm.io/gorm"
)

var errAlreadyProcessed = errors.New("event already processed")

// CheckoutConfig Stripe 结账参数
type CheckoutConfig struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// PaymentService 创建结账会话并消化支付完成事件
type PaymentService struct {
	db        *gorm.DB
	cfg       CheckoutConfig
	mailer    *Mailer
	sheetSync *SheetSyncService
}

func NewPaymentService(db *gorm.DB, cfg CheckoutConfig, mailer *Mailer, sheetSync *SheetSyncService) *PaymentService {
	return &PaymentService{db: db, cfg: cfg, mailer: mailer, sheetSync: sheetSync}
}

type CheckoutSessionResult struct {
	SessionID  string `json:"session_id"`
	URL        string `json:"url"`
	CustomerID string `json:"customer_id,omitempty"`
}

// CreateCheckoutSession 为当前用户创建一次性支付会话，
// 已有 Stripe 客户时复用账单账户
func (s *PaymentService) CreateCheckoutSession(cognitoID, email string) (*CheckoutSessionResult, error) {
	var user model.User
	if err := s.db.Where("cognito_id = ?", cognitoID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	if user.StripeCustomerID != "" {
		params.Customer = stripe.String(user.StripeCustomerID)
	} else {
		params.CustomerEmail = stripe.String(user.Email)
	}
	params.IdempotencyKey = stripe.String(uuid.NewString())
	params.AddMetadata("cognito_id", cognitoID)
	params.AddMetadata("customer_email", email)

	sess, err := session.New(params)
	if err != nil {
		return nil, err
	}

	result := &CheckoutSessionResult{SessionID: sess.ID, URL: sess.URL}
	if sess.Customer != nil {
		result.CustomerID = sess.Customer.ID
	} else {
		result.CustomerID = user.StripeCustomerID
	}
	return result, nil
}

// HandleCheckoutCompleted 消化一次（签名已验证的）支付完成事件。
// 按 session id 去重，授权变更在单个事务内完成；
// 回执邮件与表格同步失败不回滚授权。
func (s *PaymentService) HandleCheckoutCompleted(sess *stripe.CheckoutSession) error {
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.Printf("跳过未完成支付的会话 %s，状态 %s", sess.ID, sess.PaymentStatus)
		return nil
	}

	cognitoID := sess.Metadata["cognito_id"]
	if cognitoID == "" {
		log.Printf("会话 %s 缺少身份元数据，忽略", sess.ID)
		return nil
	}

	email := sess.Metadata["customer_email"]
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var processed int64
		if err := tx.Model(&model.ProcessedEvent{}).
			Where("session_id = ?", sess.ID).
			Count(&processed).Error; err != nil {
			return err
		}
		if processed > 0 {
			return errAlreadyProcessed
		}
		// session_id 上的唯一索引兜底并发投递
		if err := tx.Create(&model.ProcessedEvent{
			SessionID:   sess.ID,
			CognitoID:   cognitoID,
			ProcessedAt: now,
		}).Error; err != nil {
			return err
		}

		var user model.User
		if err := tx.Where("cognito_id = ?", cognitoID).First(&user).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// webhook 先于首次登录到达时补建用户
			user = model.User{
				CognitoID:   cognitoID,
				Email:       strings.ToLower(email),
				LicenseType: model.LicenseNone,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		}

		patch := entitlement.ApplyPaymentCompletion(&user, entitlement.PaymentEvent{
			SessionID:  sess.ID,
			CustomerID: customerID,
			Email:      email,
		}, now)

		updates := map[string]interface{}{
			"licenses_count": gorm.Expr("licenses_count + ?", patch.IncrementLicenses),
		}
		if patch.LicenseType != nil {
			updates["license_type"] = *patch.LicenseType
		}
		if patch.PurchaseDate != nil {
			updates["purchase_date"] = *patch.PurchaseDate
		}
		if patch.StripeCustomerID != nil {
			updates["stripe_customer_id"] = *patch.StripeCustomerID
		}
		return tx.Model(&model.User{}).Where("cognito_id = ?", cognitoID).Updates(updates).Error
	})
	if errors.Is(err, errAlreadyProcessed) {
		log.Printf("会话 %s 已处理过，跳过", sess.ID)
		return nil
	}
	if err != nil {
		return err
	}

	LogOperation(s.db, cognitoID, "payment_completed", "user", cognitoID, map[string]string{"session_id": sess.ID})

	var user model.User
	if err := s.db.Where("cognito_id = ?", cognitoID).First(&user).Error; err == nil {
		if s.mailer != nil && email != "" {
			go func(to string, u model.User) {
				if err := s.mailer.SendPurchaseReceipt(to, u.LicenseType, u.LicensesCount); err != nil {
					log.Printf("发送购买回执失败: %v", err)
				}
			}(email, user)
		}
		if s.sheetSync != nil {
			go func(u model.User) {
				if err := s.sheetSync.SyncUser(&u); err != nil {
					log.Printf("同步用户到表格失败: %v", err)
				}
			}(user)
		}
	}
	return nil
}
