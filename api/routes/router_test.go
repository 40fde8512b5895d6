package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/veggiepos-backend/internal/cart"
	"github.com/angelmondragon/veggiepos-backend/internal/checkout"
	"github.com/angelmondragon/veggiepos-backend/internal/pricing"
	"github.com/angelmondragon/veggiepos-backend/internal/repo"
	"github.com/angelmondragon/veggiepos-backend/internal/sales"
	"github.com/angelmondragon/veggiepos-backend/internal/scale"
	pkgAuth "github.com/angelmondragon/veggiepos-backend/pkg/auth"
	"github.com/angelmondragon/veggiepos-backend/pkg/auth/session"
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	"github.com/angelmondragon/veggiepos-backend/pkg/db"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/metrics"
	"github.com/angelmondragon/veggiepos-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type fixedScale struct{ reading scale.Reading }

func (f fixedScale) Load() scale.Reading { return f.reading }

func (f fixedScale) Tare(context.Context) (scale.Reading, error) { return f.reading, nil }

type harness struct {
	handler http.Handler
	engine  *cart.Engine
	token   string
	session string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	cfg := &config.Config{
		App:          config.AppConfig{Env: "test", CORSOrigins: "http://localhost:5173"},
		JWT:          config.JWTConfig{Secret: "router-secret", Issuer: "veggiepos", ExpirationMinutes: 5},
		APIRateLimit: config.APIRateLimitConfig{Window: time.Minute, Limit: 100},
		Classifier:   config.ClassifierConfig{MaxMB: 1},
	}
	logg := logger.Nop()
	conn := repo.NewTestDB(t)
	client := db.NewFromGorm(conn)

	priceSvc, err := pricing.NewService(pricing.NewRepository(conn), client, logg)
	require.NoError(t, err)
	_, err = priceSvc.SeedDefaults(context.Background())
	require.NoError(t, err)

	salesRepo := sales.NewRepository(conn)
	salesSvc, err := sales.NewService(salesRepo)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	engine := cart.NewEngine()
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:      client,
		Sales:   salesRepo,
		Carts:   engine,
		Logger:  logg,
		Metrics: metrics.NewCheckoutMetrics(registry),
	})
	require.NoError(t, err)

	reading := fixedScale{reading: scale.Reading{Weight: 0.5, Stable: true}}
	handler := NewRouter(Params{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Sessions: stubSessions{},
		Metrics:  registry,
		Pricing:  priceSvc,
		Checkout: checkoutSvc,
		Sales:    salesSvc,
		Scale:    reading,
		Tarer:    reading,
		TillCart: engine,
	})

	sessionID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "alice",
		JTI:      sessionID,
	})
	require.NoError(t, err)

	return harness{handler: handler, engine: engine, token: token, session: sessionID}
}

func (h harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func TestHealthLiveIsPublic(t *testing.T) {
	h := newHarness(t)
	h.token = ""
	w := h.do(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	h := newHarness(t)
	h.token = ""
	w := h.do(t, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStatusServesSeededPrices(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	data := body.Data.(map[string]any)
	prices := data["prices"].(map[string]any)
	assert.Equal(t, 25.0, prices["Carrot"])
	assert.Equal(t, 0.0, prices["Unknown"])
}

func TestCartFlowCommitsSale(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/cart/items", `{"name":"Tomato"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = h.do(t, http.MethodPost, "/api/cart/items", `{"name":"Carrot","qty":2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, h.engine.Snapshot(h.session).Items, 2)

	w = h.do(t, http.MethodPost, "/api/cart/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, h.engine.Snapshot(h.session).Items)

	w = h.do(t, http.MethodGet, "/api/daily", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	summary := body.Data.(map[string]any)
	assert.Equal(t, 45.0, summary["total_sales"])
	assert.Equal(t, 1.0, summary["transaction_count"])
}

func TestMetricsEndpointIsServed(t *testing.T) {
	h := newHarness(t)
	h.token = ""
	w := h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
}
