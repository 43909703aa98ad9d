// Package rest is the HTTP transport of the storefront API: routing, the
// authorization gate, rate limiting, request logging and metrics.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/mailer"
	"github.com/dmitrijs2005/storefront/internal/server/media"
	"github.com/dmitrijs2005/storefront/internal/server/payment"
	"github.com/dmitrijs2005/storefront/internal/server/policy"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20
	limiterTTL      = 10 * time.Minute
)

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Users       *services.UserService
	Collections *services.CollectionService
	Gate        *policy.Gate
	Payments    payment.Gateway
	Mailer      mailer.Mailer
	Media       media.Presigner
	// Registry receives the HTTP metrics; nil creates a private one.
	Registry *prometheus.Registry
}

type Options struct {
	RateLimitRPS      float64
	RateLimitBurst    int
	CORSAllowedOrigin string
	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies    []netip.Prefix
}

type HTTPServer struct {
	address        string
	logger         logging.Logger
	users          *services.UserService
	collections    *services.CollectionService
	gate           *policy.Gate
	payments       payment.Gateway
	mail           mailer.Mailer
	media          media.Presigner
	authLimiter    *multiLimiter
	trustedProxies []netip.Prefix
	registry       *prometheus.Registry
	metrics        *Metrics
	corsOrigin     string
	mux            *http.ServeMux
	handler        http.Handler
}

func NewHTTPServer(address string, l logging.Logger, deps Deps, opts Options) *HTTPServer {
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &HTTPServer{
		address:        address,
		logger:         l.With("module", "http_server"),
		users:          deps.Users,
		collections:    deps.Collections,
		gate:           deps.Gate,
		payments:       deps.Payments,
		mail:           deps.Mailer,
		media:          deps.Media,
		registry:       reg,
		metrics:        NewMetrics(reg),
		corsOrigin:     opts.CORSAllowedOrigin,
		trustedProxies: opts.TrustedProxies,
		mux:            http.NewServeMux(),
	}
	if opts.RateLimitRPS > 0 {
		s.authLimiter = newMultiLimiter(rate.Limit(opts.RateLimitRPS), max(opts.RateLimitBurst, 1), limiterTTL)
	}

	s.routes()
	s.handler = s.recoverMiddleware(
		s.requestIDMiddleware(
			s.logMiddleware(
				s.corsMiddleware(
					s.gateMiddleware(s.mux)))))
	return s
}

// Handler is the fully wrapped router.
func (s *HTTPServer) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
