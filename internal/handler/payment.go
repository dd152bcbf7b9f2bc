package handler

import (
	"encoding/json"
	"log"

	"wallmotion-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

type PaymentHandler struct {
	payments      *service.PaymentService
	webhookSecret string
}

func NewPaymentHandler(payments *service.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{payments: payments, webhookSecret: webhookSecret}
}

// HandleCreateCheckout 创建 Stripe 结账会话
func (h *PaymentHandler) HandleCreateCheckout(c *fiber.Ctx) error {
	cognitoID := c.Locals("cognitoID").(string)
	email := c.Locals("email").(string)

	result, err := h.payments.CreateCheckoutSession(cognitoID, email)
	if err != nil {
		// Stripe 的错误只透出 message 和 code
		if stripeErr, ok := err.(*stripe.Error); ok {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": stripeErr.Msg,
				"code":  stripeErr.Code,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create checkout session",
		})
	}
	return c.JSON(result)
}

// HandleWebhook Stripe 签名事件入口。签名校验通过后一律确认接收，
// 下游失败只记录，避免供应商无限重试。
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	if event.Type == "checkout.session.completed" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("解析会话数据失败: %v", err)
		} else if err := h.payments.HandleCheckoutCompleted(&sess); err != nil {
			log.Printf("处理支付完成事件失败 (session %s): %v", sess.ID, err)
		}
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}
