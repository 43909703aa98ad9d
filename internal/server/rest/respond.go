package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/mailer"
	"github.com/dmitrijs2005/storefront/internal/server/media"
	"github.com/dmitrijs2005/storefront/internal/server/payment"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSONStatus(w, code, messageResponse{Message: msg})
}

// writeError maps sentinel errors to statuses. Anything unrecognised is
// logged and reported as a bare 500.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrMissingCredentials):
		writeMessage(w, http.StatusBadRequest, common.ErrMissingCredentials.Error())
	case errors.Is(err, common.ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, common.ErrUsernameTaken.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrMissingToken):
		writeMessage(w, http.StatusUnauthorized, common.ErrMissingToken.Error())
	case errors.Is(err, common.ErrInvalidOrExpiredToken):
		writeMessage(w, http.StatusUnauthorized, common.ErrInvalidOrExpiredToken.Error())
	case errors.Is(err, common.ErrForbidden):
		writeMessage(w, http.StatusForbidden, common.ErrForbidden.Error())
	case errors.Is(err, common.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, common.ErrorNotFound.Error())
	case errors.Is(err, payment.ErrNotConfigured),
		errors.Is(err, mailer.ErrDisabled),
		errors.Is(err, media.ErrNotConfigured):
		writeMessage(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", requestIDFrom(r.Context()), "error", err)
		writeMessage(w, http.StatusInternalServerError, common.ErrorInternal.Error())
	}
}

// decodeJSON reads one JSON value from the body, capped at maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after JSON body")
	}
	return nil
}
