package rest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ungated paths are answered before the policy table is consulted.
var ungated = map[string]bool{
	"/register": true,
	"/login":    true,
	"/healthz":  true,
	"/metrics":  true,
}

func (s *HTTPServer) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.mux.Handle("POST /register", s.rateLimited(http.HandlerFunc(s.handleRegister)))
	s.mux.Handle("POST /login", s.rateLimited(http.HandlerFunc(s.handleLogin)))

	s.mux.HandleFunc("GET /users", s.handleListUsers)
	s.mux.HandleFunc("GET /users/{id}", s.handleGetUser)

	s.mux.HandleFunc("POST /payments/url", s.handlePaymentURL)
	s.mux.HandleFunc("GET /payments/return", s.handlePaymentReturn)

	s.mux.HandleFunc("POST /mail", s.handleSendMail)

	s.mux.HandleFunc("POST /media/uploads", s.handleMediaUpload)
	s.mux.HandleFunc("GET /media/{key...}", s.handleMediaGet)

	s.mux.HandleFunc("GET /{collection}", s.handleListDocuments)
	s.mux.HandleFunc("POST /{collection}", s.handleCreateDocument)
	s.mux.HandleFunc("GET /{collection}/{id...}", s.handleGetDocument)
	s.mux.HandleFunc("PUT /{collection}/{id...}", s.handleReplaceDocument)
	s.mux.HandleFunc("PATCH /{collection}/{id...}", s.handlePatchDocument)
	s.mux.HandleFunc("DELETE /{collection}/{id...}", s.handleDeleteDocument)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
