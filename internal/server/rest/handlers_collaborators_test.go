package rest

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/server/mailer"
	"github.com/dmitrijs2005/storefront/internal/server/media"
	"github.com/dmitrijs2005/storefront/internal/server/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentURL(t *testing.T) {
	env := newTestEnv(t, withTrustedProxies("203.0.113.0/24"))

	rec := env.do(t, http.MethodPost, "/payments/url",
		map[string]any{"order_id": "ord-1", "amount": 150000, "order_info": "2 shoes"},
		"X-Forwarded-For", "198.51.100.9")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, env.gateway.url, decodeMap(t, rec)["url"])
	assert.Equal(t, payment.Request{OrderID: "ord-1", Amount: 150000, OrderInfo: "2 shoes", ClientIP: "198.51.100.9"}, env.gateway.lastReq)

	untrusted := newTestEnv(t)
	rec = untrusted.do(t, http.MethodPost, "/payments/url",
		map[string]any{"order_id": "ord-2", "amount": 1},
		"X-Forwarded-For", "198.51.100.9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "203.0.113.7", untrusted.gateway.lastReq.ClientIP)

	rec = env.do(t, http.MethodPost, "/payments/url", `{"order_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.gateway.err = payment.ErrNotConfigured
	rec = env.do(t, http.MethodPost, "/payments/url", map[string]any{"order_id": "o", "amount": 1})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPaymentReturn(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.result = payment.ReturnResult{Valid: true, Success: true, ResponseCode: "00"}

	rec := env.do(t, http.MethodGet, "/payments/return?vnp_TxnRef=ord-1&vnp_ResponseCode=00&vnp_SecureHash=ab", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true,"success":true,"order_id":"ord-1","response_code":"00"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/payments/return?vnp_TxnRef=ord-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/mail",
		map[string]string{"to": "alice@example.com", "subject": "Order", "htmlContent": "<p>thanks</p>"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"sent"}`, rec.Body.String())
	require.Len(t, env.mail.sent, 1)
	assert.Equal(t, "alice@example.com", env.mail.sent[0].To)

	rec = env.do(t, http.MethodPost, "/mail", map[string]string{"to": "nope", "htmlContent": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.mail.err = mailer.ErrDisabled
	rec = env.do(t, http.MethodPost, "/mail",
		map[string]string{"to": "alice@example.com", "subject": "s", "htmlContent": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env.mail.err = errors.New("smtp: 554 rejected")
	rec = env.do(t, http.MethodPost, "/mail",
		map[string]string{"to": "alice@example.com", "subject": "s", "htmlContent": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeMap(t, rec)["message"])
}

func TestMedia(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/media/uploads", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key":"products/2025/01/01/abc","url":"https://bucket.example"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/media/products/2025/01/01/abc", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "https://bucket.example/products/2025/01/01/abc", rec.Header().Get("Location"))

	env.media.err = media.ErrNotConfigured
	rec = env.do(t, http.MethodPost, "/media/uploads", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
