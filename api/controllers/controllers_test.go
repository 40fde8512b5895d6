package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/veggiepos-backend/api/middleware"
	"github.com/angelmondragon/veggiepos-backend/internal/cart"
	"github.com/angelmondragon/veggiepos-backend/internal/checkout"
	"github.com/angelmondragon/veggiepos-backend/internal/classifier"
	"github.com/angelmondragon/veggiepos-backend/internal/pricing"
	"github.com/angelmondragon/veggiepos-backend/internal/repo"
	"github.com/angelmondragon/veggiepos-backend/internal/sales"
	"github.com/angelmondragon/veggiepos-backend/internal/scale"
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	"github.com/angelmondragon/veggiepos-backend/pkg/db"
	"github.com/angelmondragon/veggiepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/types"
)

const testSession = "session-1"

type stubReader struct{ reading scale.Reading }

func (s stubReader) Load() scale.Reading { return s.reading }

type stubPrices struct {
	prices map[string]float64
	err    error
}

func (s stubPrices) GetAll(context.Context) (map[string]float64, error) { return s.prices, s.err }

func (s stubPrices) Lookup(_ context.Context, name string) (float64, error) {
	return s.prices[name], s.err
}

type stubLabeler struct {
	result classifier.Result
	frame  classifier.Frame
}

func (s *stubLabeler) Classify(_ context.Context, frame classifier.Frame) (classifier.Result, error) {
	s.frame = frame
	return s.result, nil
}

type recordingCheckout struct {
	submitted checkout.SubmitInput
}

func (r *recordingCheckout) Checkout(_ context.Context, session, cashier string) (*checkout.Receipt, error) {
	if session == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session required")
	}
	return &checkout.Receipt{Total: 10, ItemCount: 1}, nil
}

func (r *recordingCheckout) Submit(_ context.Context, input checkout.SubmitInput) (*checkout.Receipt, error) {
	r.submitted = input
	return &checkout.Receipt{Total: input.Total, ItemCount: len(input.Items)}, nil
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func authed(r *http.Request) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), "user-1", "alice", testSession))
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	data, ok := body.Data.(map[string]any)
	require.True(t, ok, "expected object payload")
	return data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error
}

func TestScaleStatusIncludesPrices(t *testing.T) {
	reader := stubReader{reading: scale.Reading{Weight: 0.5, Stable: true}}
	prices := stubPrices{prices: map[string]float64{"Carrot": 25}}

	w := httptest.NewRecorder()
	ScaleStatus(reader, prices, logger.Nop())(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 0.5, data["weight"])
	assert.Equal(t, true, data["is_stable"])
	assert.Equal(t, 25.0, data["prices"].(map[string]any)["Carrot"])
}

func TestScaleStatusReportsDirectoryFailure(t *testing.T) {
	prices := stubPrices{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}

	w := httptest.NewRecorder()
	ScaleStatus(stubReader{}, prices, logger.Nop())(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, decodeError(t, w).Retryable)
}

func TestCartAddItemUsesScaleAndDirectory(t *testing.T) {
	engine := cart.NewEngine()
	reader := stubReader{reading: scale.Reading{Weight: 0.5, Stable: true}}
	prices := stubPrices{prices: map[string]float64{"Tomato": 40}}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"name":"Tomato","qty":2}`)))
	w := httptest.NewRecorder()
	CartAddItem(engine, reader, prices, logger.Nop())(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	snapshot := engine.Snapshot(testSession)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 40.0, snapshot.Items[0].Subtotal)
}

func TestCartAddItemPriceOverride(t *testing.T) {
	engine := cart.NewEngine()
	reader := stubReader{reading: scale.Reading{Weight: 1, Stable: true}}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"name":"Mystery","price":12.5}`)))
	w := httptest.NewRecorder()
	CartAddItem(engine, reader, stubPrices{}, logger.Nop())(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 12.5, engine.Snapshot(testSession).Total)
}

func TestCartAddItemRejectsUnstableWeight(t *testing.T) {
	engine := cart.NewEngine()
	reader := stubReader{reading: scale.Reading{Weight: 0.7, Stable: false}}
	prices := stubPrices{prices: map[string]float64{"Corn": 20}}

	req := authed(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"name":"Corn"}`)))
	w := httptest.NewRecorder()
	CartAddItem(engine, reader, prices, logger.Nop())(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(pkgerrors.CodeUnstableWeight), decodeError(t, w).Code)
	assert.Empty(t, engine.Snapshot(testSession).Items)
}

func TestCartRemoveItemByID(t *testing.T) {
	engine := cart.NewEngine()
	router := chi.NewRouter()
	router.Delete("/api/cart/items/{itemId}", CartRemoveItem(engine, logger.Nop()))
	remove := func(id string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodDelete, "/api/cart/items/"+id, nil)))
		return w
	}

	for _, name := range []string{"Carrot", "Corn"} {
		_, err := engine.Add(testSession, cart.AddInput{Weight: 1, Stable: true, Name: name, UnitPrice: 10, Quantity: 1})
		require.NoError(t, err)
	}
	first := engine.Snapshot(testSession).Items[0].ID.String()

	assert.Equal(t, http.StatusOK, remove(first).Code)
	// A retry after a lost response must not take the item that moved up.
	assert.Equal(t, http.StatusNotFound, remove(first).Code)
	items := engine.Snapshot(testSession).Items
	require.Len(t, items, 1)
	assert.Equal(t, "Corn", items[0].Name)

	assert.Equal(t, http.StatusNotFound, remove(uuid.NewString()).Code)
	assert.Equal(t, http.StatusBadRequest, remove("3").Code)
}

func TestPredictReturnsLabel(t *testing.T) {
	labeler := &stubLabeler{result: classifier.Result{Label: enums.ProduceCarrot}}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", "frame.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/predict", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	Predict(labeler, 1, logger.Nop())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "Carrot", data["result"])
	assert.Equal(t, false, data["fallback"])
	assert.Equal(t, "frame.jpg", labeler.frame.Filename)
}

func TestPredictRequiresFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	Predict(&stubLabeler{}, 1, logger.Nop())(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutSubmitPrefersAuthenticatedCashier(t *testing.T) {
	svc := &recordingCheckout{}
	payload := `{"items":[{"name":"Carrot","weight":0.4,"price":25,"qty":1,"total":10}],"total":10,"cashier":"mallory"}`

	req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(payload)))
	w := httptest.NewRecorder()
	CheckoutSubmit(svc, logger.Nop())(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "alice", svc.submitted.Cashier)
	require.Len(t, svc.submitted.Items, 1)
	assert.Equal(t, 1, svc.submitted.Items[0].Quantity)
}

func TestCheckoutSubmitRejectsEmptyCart(t *testing.T) {
	req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"items":[],"total":0}`)))
	w := httptest.NewRecorder()
	CheckoutSubmit(&recordingCheckout{}, logger.Nop())(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutCartUsesSession(t *testing.T) {
	req := authed(httptest.NewRequest(http.MethodPost, "/api/cart/checkout", nil))
	w := httptest.NewRecorder()
	CheckoutCart(&recordingCheckout{}, logger.Nop())(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func newPricingService(t *testing.T) pricing.Service {
	t.Helper()
	conn := repo.NewTestDB(t)
	svc, err := pricing.NewService(pricing.NewRepository(conn), db.NewFromGorm(conn), logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestProductCreateAndSetPrice(t *testing.T) {
	svc := newPricingService(t)
	router := chi.NewRouter()
	router.Post("/api/products", ProductCreate(svc, logger.Nop()))
	router.Put("/api/products/{name}", ProductSetPrice(svc, logger.Nop()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Leek","price":15}`)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/products/Leek", strings.NewReader(`{"price":18}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(pricing.OutcomeApplied), decodeData(t, w)["outcome"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/products/Kale", strings.NewReader(`{"price":18}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(pricing.OutcomeNotFound), decodeData(t, w)["outcome"])

	price, err := svc.Lookup(context.Background(), "Leek")
	require.NoError(t, err)
	assert.Equal(t, 18.0, price)
}

func TestProductSetPriceRequiresPrice(t *testing.T) {
	router := chi.NewRouter()
	router.Put("/api/products/{name}", ProductSetPrice(newPricingService(t), logger.Nop()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/products/Leek", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newSalesService(t *testing.T) sales.Service {
	t.Helper()
	svc, err := sales.NewService(sales.NewRepository(repo.NewTestDB(t)))
	require.NoError(t, err)
	return svc
}

func TestSalesDailyParsesDate(t *testing.T) {
	handler := SalesDaily(newSalesService(t), logger.Nop())

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/daily?date=2026-03-01", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 0.0, data["total_sales"])

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/daily?date=03/01/2026", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSalesDetailValidatesID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/sales/{saleId}", SalesDetail(newSalesService(t), logger.Nop()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sales/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sales/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSalesListRejectsOversizedLimit(t *testing.T) {
	w := httptest.NewRecorder()
	SalesList(newSalesService(t), logger.Nop())(w, httptest.NewRequest(http.MethodGet, "/api/sales?limit=1000", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthReadyReportsFailedDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	deps := map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{err: errors.New("refused")}}

	w := httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), deps)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "test", w.Header().Get(envHeader))
}

func TestHealthReadyAllGood(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	w := httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), map[string]Pinger{"db": stubPinger{}, "redis": nil})(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	latency := body.Data.(map[string]any)["latency_ms"].(map[string]any)
	assert.Contains(t, latency, "db")
	assert.NotContains(t, latency, "redis")
}
