// Package payment builds signed redirect URLs for the payment gateway and
// checks the signature on the query string the gateway sends back.
//
// Parameters are signed VNPay style: keys sorted, values form-encoded,
// HMAC-SHA512 over the joined string, hex result in vnp_SecureHash.
package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
)

const (
	secureHashParam     = "vnp_SecureHash"
	secureHashTypeParam = "vnp_SecureHashType"
	createDateLayout    = "20060102150405"
)

var ErrNotConfigured = errors.New("payment gateway is not configured")

// gatewayZone is the timezone the gateway expects create dates in (GMT+7).
var gatewayZone = time.FixedZone("ICT", 7*60*60)

type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Version    string
	Locale     string
	CurrCode   string
}

// Request is one payment to start.
type Request struct {
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	OrderInfo string `json:"order_info"`
	Locale    string `json:"locale,omitempty"`
	ClientIP  string `json:"-"`
}

// ReturnResult is the verdict on a gateway callback.
type ReturnResult struct {
	Valid        bool   `json:"valid"`
	Success      bool   `json:"success"`
	OrderID      string `json:"order_id"`
	ResponseCode string `json:"response_code"`
}

// Gateway is what the HTTP layer needs from the payment collaborator.
type Gateway interface {
	BuildURL(req Request) (string, error)
	VerifyReturn(q url.Values) ReturnResult
}

type VNPay struct {
	cfg Config
	now func() time.Time
}

func NewVNPay(cfg Config) *VNPay {
	if cfg.Version == "" {
		cfg.Version = "2.1.0"
	}
	if cfg.Locale == "" {
		cfg.Locale = "vn"
	}
	if cfg.CurrCode == "" {
		cfg.CurrCode = "VND"
	}
	return &VNPay{cfg: cfg, now: time.Now}
}

// BuildURL returns PayURL with the signed payment parameters. Amount is in
// the currency's major unit; the gateway wants it multiplied by 100.
func (g *VNPay) BuildURL(req Request) (string, error) {
	if g.cfg.TmnCode == "" || g.cfg.HashSecret == "" || g.cfg.PayURL == "" {
		return "", ErrNotConfigured
	}
	if req.OrderID == "" || req.Amount <= 0 {
		return "", fmt.Errorf("%w: order_id and a positive amount are required", common.ErrValidation)
	}

	locale := req.Locale
	if locale == "" {
		locale = g.cfg.Locale
	}
	info := req.OrderInfo
	if info == "" {
		info = "Payment for order " + req.OrderID
	}
	ip := req.ClientIP
	if ip == "" {
		ip = "127.0.0.1"
	}

	params := url.Values{}
	params.Set("vnp_Version", g.cfg.Version)
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", g.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CurrCode", g.cfg.CurrCode)
	params.Set("vnp_TxnRef", req.OrderID)
	params.Set("vnp_OrderInfo", info)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", locale)
	params.Set("vnp_IpAddr", ip)
	params.Set("vnp_CreateDate", g.now().In(gatewayZone).Format(createDateLayout))
	if g.cfg.ReturnURL != "" {
		params.Set("vnp_ReturnUrl", g.cfg.ReturnURL)
	}

	signData := params.Encode()
	return g.cfg.PayURL + "?" + signData + "&" + secureHashParam + "=" + g.sign(signData), nil
}

// VerifyReturn recomputes the signature over every parameter except the
// hash fields. Success additionally needs response code "00".
func (g *VNPay) VerifyReturn(q url.Values) ReturnResult {
	res := ReturnResult{
		OrderID:      q.Get("vnp_TxnRef"),
		ResponseCode: q.Get("vnp_ResponseCode"),
	}

	got := q.Get(secureHashParam)
	if got == "" || g.cfg.HashSecret == "" {
		return res
	}

	signed := url.Values{}
	for k, v := range q {
		if k == secureHashParam || k == secureHashTypeParam {
			continue
		}
		signed[k] = v
	}

	want := g.sign(signed.Encode())
	gotBytes, err := hex.DecodeString(got)
	if err != nil {
		return res
	}
	wantBytes, _ := hex.DecodeString(want)

	res.Valid = hmac.Equal(gotBytes, wantBytes)
	status := q.Get("vnp_TransactionStatus")
	res.Success = res.Valid && res.ResponseCode == "00" && (status == "" || status == "00")
	return res
}

func (g *VNPay) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(g.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
