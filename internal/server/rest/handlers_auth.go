package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/services"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type registerResponse struct {
	User        authUser `json:"user"`
	AccessToken string   `json:"access_token"`
}

type loginResponse struct {
	AccessToken string   `json:"access_token"`
	User        authUser `json:"user"`
}

// readCredentials decodes the body. A body that is not a JSON object counts
// as missing credentials.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return credentialsRequest{}, false
	}
	return req, true
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := readCredentials(w, r)
	if !ok {
		s.metrics.AuthEvents.WithLabelValues("register", authOutcome(common.ErrMissingCredentials)).Inc()
		s.writeError(w, r, common.ErrMissingCredentials)
		return
	}

	res, err := s.users.Register(r.Context(), req.Username, req.Password)
	s.metrics.AuthEvents.WithLabelValues("register", authOutcome(err)).Inc()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", res.User.ID)
	writeJSONStatus(w, http.StatusCreated, registerResponse{
		User:        toAuthUser(res),
		AccessToken: res.AccessToken,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := readCredentials(w, r)
	if !ok {
		s.metrics.AuthEvents.WithLabelValues("login", authOutcome(common.ErrMissingCredentials)).Inc()
		s.writeError(w, r, common.ErrMissingCredentials)
		return
	}

	res, err := s.users.Login(r.Context(), req.Username, req.Password)
	s.metrics.AuthEvents.WithLabelValues("login", authOutcome(err)).Inc()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, loginResponse{
		AccessToken: res.AccessToken,
		User:        toAuthUser(res),
	})
}

func toAuthUser(res *services.AuthResult) authUser {
	return authUser{ID: res.User.ID, Username: res.User.UserName}
}

func authOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, common.ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
