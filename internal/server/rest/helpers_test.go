package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/cryptox"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/mailer"
	"github.com/dmitrijs2005/storefront/internal/server/payment"
	"github.com/dmitrijs2005/storefront/internal/server/policy"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/stretchr/testify/require"
)

var cheapParams = cryptox.Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeGateway struct {
	lastReq payment.Request
	url     string
	err     error
	result  payment.ReturnResult
}

func (g *fakeGateway) BuildURL(req payment.Request) (string, error) {
	g.lastReq = req
	return g.url, g.err
}

func (g *fakeGateway) VerifyReturn(q url.Values) payment.ReturnResult {
	res := g.result
	res.OrderID = q.Get("vnp_TxnRef")
	return res
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Enabled() bool { return true }

type fakePresigner struct {
	key string
	url string
	err error
}

func (p *fakePresigner) PresignUpload(context.Context) (string, string, error) {
	return p.key, p.url, p.err
}

func (p *fakePresigner) PresignDownload(_ context.Context, key string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.url + "/" + key, nil
}

type testEnv struct {
	srv      *HTTPServer
	handler  http.Handler
	tokens   *auth.TokenService
	clock    *fakeClock
	gateway  *fakeGateway
	mail     *fakeMailer
	media    *fakePresigner
	userSvc  *services.UserService
	collSvc  *services.CollectionService
	policies *policy.Table
}

type envOption func(*Options, *[]policy.Rule)

func withRateLimit(rps float64, burst int) envOption {
	return func(o *Options, _ *[]policy.Rule) {
		o.RateLimitRPS = rps
		o.RateLimitBurst = burst
	}
}

func withTrustedProxies(cidrs ...string) envOption {
	return func(o *Options, _ *[]policy.Rule) {
		for _, c := range cidrs {
			o.TrustedProxies = append(o.TrustedProxies, netip.MustParsePrefix(c))
		}
	}
}

func withRules(rules ...policy.Rule) envOption {
	return func(_ *Options, r *[]policy.Rule) {
		*r = append(*r, rules...)
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	o := Options{CORSAllowedOrigin: "*"}
	var rules []policy.Rule
	for _, fn := range opts {
		fn(&o, &rules)
	}
	rules = append(rules, policy.DefaultRules()...)

	table, err := policy.NewTable(rules)
	require.NoError(t, err)

	keys, err := auth.NewKeyring([]byte("test-secret"))
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tokens := auth.NewTokenService(keys, time.Hour, auth.WithClock(clock.Now))

	rm := repomanager.NewMemoryRepositoryManager()
	userSvc := services.NewUserService(rm.Users(), cryptox.NewArgon2idHasher(cheapParams), tokens)
	collSvc := services.NewCollectionService(rm.Collections())

	env := &testEnv{
		tokens:   tokens,
		clock:    clock,
		gateway:  &fakeGateway{url: "https://pay.example/vpcpay.html?x=1"},
		mail:     &fakeMailer{},
		media:    &fakePresigner{key: "products/2025/01/01/abc", url: "https://bucket.example"},
		userSvc:  userSvc,
		collSvc:  collSvc,
		policies: table,
	}

	env.srv = NewHTTPServer("127.0.0.1:0", logging.Nop(), Deps{
		Users:       userSvc,
		Collections: collSvc,
		Gate:        policy.NewGate(table, tokens),
		Payments:    env.gateway,
		Mailer:      env.mail,
		Media:       env.media,
	}, o)
	env.handler = env.srv.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, rdr)
	req.RemoteAddr = "203.0.113.7:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// register creates a user through the API and returns its bearer token.
func (e *testEnv) register(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/register", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func bearer(token string) []string {
	return []string{"Authorization", "Bearer " + token}
}
