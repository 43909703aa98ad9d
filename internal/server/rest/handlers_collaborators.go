package rest

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/mailer"
	"github.com/dmitrijs2005/storefront/internal/server/payment"
)

type paymentURLResponse struct {
	URL string `json:"url"`
}

type mediaUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *HTTPServer) handlePaymentURL(w http.ResponseWriter, r *http.Request) {
	var req payment.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed payment request", common.ErrValidation))
		return
	}
	req.ClientIP = s.clientIP(r)

	u, err := s.payments.BuildURL(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, paymentURLResponse{URL: u})
}

func (s *HTTPServer) handlePaymentReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("vnp_SecureHash") == "" {
		s.writeError(w, r, fmt.Errorf("%w: missing vnp_SecureHash", common.ErrValidation))
		return
	}

	res := s.payments.VerifyReturn(q)
	if !res.Valid {
		s.logger.Warn(r.Context(), "payment return with bad signature", "order_id", res.OrderID)
	}
	writeJSON(w, res)
}

func (s *HTTPServer) handleSendMail(w http.ResponseWriter, r *http.Request) {
	var msg mailer.Message
	if err := decodeJSON(w, r, &msg); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed mail request", common.ErrValidation))
		return
	}
	if err := msg.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.mail.Send(r.Context(), msg); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *HTTPServer) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	key, u, err := s.media.PresignUpload(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, mediaUploadResponse{Key: key, URL: u})
}

func (s *HTTPServer) handleMediaGet(w http.ResponseWriter, r *http.Request) {
	u, err := s.media.PresignDownload(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, u, http.StatusTemporaryRedirect)
}
