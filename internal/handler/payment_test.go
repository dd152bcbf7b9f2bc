package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"wallmotion-backend/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
)

// signStripePayload 按 Stripe-Signature 头的格式给载荷签名
func signStripePayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompletedPayload(sessionID, cognitoID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_%s",
		"api_version": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": %q,
				"payment_status": "paid",
				"customer": {"id": "cus_1"},
				"customer_details": {"email": "u1@example.com"},
				"metadata": {"cognito_id": %q}
			}
		}
	}`, sessionID, stripe.APIVersion, sessionID, cognitoID))
}

func (e *testEnv) postWebhook(t *testing.T, payload []byte, signature string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("POST", "/api/v1/webhook", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)

	payload := checkoutCompletedPayload("sess_1", "u1")
	resp := env.postWebhook(t, payload, signStripePayload(payload, "wrong-secret"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	env.db.Model(&model.ProcessedEvent{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestHandleWebhookCompletesPurchase(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1", model.LicenseNone, 0)

	payload := checkoutCompletedPayload("sess_1", "u1")
	resp := env.postWebhook(t, payload, signStripePayload(payload, testWebhookSecret))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user model.User
	require.NoError(t, env.db.Where("cognito_id = ?", "u1").First(&user).Error)
	assert.Equal(t, model.LicenseLifetime, user.LicenseType)
	assert.Equal(t, 1, user.LicensesCount)
	assert.NotNil(t, user.PurchaseDate)
	assert.Equal(t, "cus_1", user.StripeCustomerID)
}

func TestHandleWebhookReplayIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1", model.LicenseNone, 0)

	payload := checkoutCompletedPayload("sess_1", "u1")
	for i := 0; i < 2; i++ {
		resp := env.postWebhook(t, payload, signStripePayload(payload, testWebhookSecret))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	var user model.User
	require.NoError(t, env.db.Where("cognito_id = ?", "u1").First(&user).Error)
	assert.Equal(t, 1, user.LicensesCount)
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "u1", model.LicenseNone, 0)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_other",
		"api_version": %q,
		"type": "payment_intent.created",
		"data": {"object": {"id": "pi_1"}}
	}`, stripe.APIVersion))
	resp := env.postWebhook(t, payload, signStripePayload(payload, testWebhookSecret))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user model.User
	require.NoError(t, env.db.Where("cognito_id = ?", "u1").First(&user).Error)
	assert.Equal(t, model.LicenseNone, user.LicenseType)
}
