package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/bobmcallan/fairval/internal/services/aiestimate"
)

// --- mocks ---

type mockCatalogService struct {
	markets    []models.Market
	catalog    *models.MarketCatalog
	catalogErr error
}

func (m *mockCatalogService) LoadCatalog(_ context.Context, marketID string) (*models.MarketCatalog, error) {
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	return m.catalog, nil
}
func (m *mockCatalogService) Markets() []models.Market { return m.markets }
func (m *mockCatalogService) Market(marketID string) (models.Market, bool) {
	for _, mk := range m.markets {
		if mk.ID == marketID {
			return mk, true
		}
	}
	return models.Market{}, false
}

type mockValuationService struct {
	lastSymbol   string
	lastCurrency string
	metrics      *models.ValuationMetrics
	err          error
}

func (m *mockValuationService) GetMetrics(_ context.Context, symbol, currency string) (*models.ValuationMetrics, error) {
	m.lastSymbol = symbol
	m.lastCurrency = currency
	if m.err != nil {
		return nil, m.err
	}
	metrics := *m.metrics
	metrics.Symbol = symbol
	metrics.Currency = currency
	return &metrics, nil
}

type mockEstimateService struct {
	estimate *models.AIEstimate
	err      error
	peeked   *models.AIEstimate
}

func (m *mockEstimateService) GetEstimate(_ context.Context, symbol string, _ models.ValuationMetrics) (*models.AIEstimate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.estimate, nil
}
func (m *mockEstimateService) PeekEstimate(_ context.Context, _ string, _ models.ValuationMetrics) *models.AIEstimate {
	return m.peeked
}

type mockShareService struct {
	lastInput models.ShareInput
}

func (m *mockShareService) ShareLink(input models.ShareInput) string {
	m.lastInput = input
	return "https://twitter.com/intent/tweet?text=stub"
}

type mockPrefs struct {
	values map[string]string
}

func (m *mockPrefs) Get(_ context.Context, key, fallback string) string {
	if v, ok := m.values[key]; ok {
		return v
	}
	return fallback
}
func (m *mockPrefs) Set(_ context.Context, key, value string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

// --- helpers ---

type testServer struct {
	handler   http.Handler
	catalog   *mockCatalogService
	valuation *mockValuationService
	estimate  *mockEstimateService
	share     *mockShareService
	prefs     *mockPrefs
}

func newTestServer() *testServer {
	ts := &testServer{
		catalog: &mockCatalogService{markets: []models.Market{
			{ID: "us", Name: "United States", Suffix: ".US", Currency: "USD"},
			{ID: "tase", Name: "Tel Aviv", Suffix: ".TA", Currency: "ILS"},
		}},
		valuation: &mockValuationService{metrics: &models.ValuationMetrics{
			Price: 150, FairEV: 9, FairPE: 75, FairPS: 12, Weighted: 26.25,
		}},
		estimate: &mockEstimateService{},
		share:    &mockShareService{},
		prefs:    &mockPrefs{},
	}

	srv := NewServer(common.NewDefaultConfig(), common.NewSilentLogger(), Deps{
		Catalog:   ts.catalog,
		Valuation: ts.valuation,
		Estimate:  ts.estimate,
		Share:     ts.share,
		Prefs:     ts.prefs,
	})
	ts.handler = srv.Handler()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// --- tests ---

func TestHandleHealth(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleVersion(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/version", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Contains(t, body, "version")
}

func TestHandleMarkets(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/markets", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string][]models.Market](t, rec)
	require.Len(t, body["markets"], 2)
	assert.Equal(t, "us", body["markets"][0].ID)
}

func TestHandleCatalog(t *testing.T) {
	ts := newTestServer()
	ts.catalog.catalog = &models.MarketCatalog{
		Market:   "us",
		Currency: "USD",
		Industries: []models.IndustryGroup{
			{Industry: "Technology", Entries: []models.CatalogEntry{{Ticker: "AAPL", Company: "Apple"}}},
		},
	}

	rec := ts.do(t, http.MethodGet, "/api/markets/us/catalog", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	catalog := decodeBody[models.MarketCatalog](t, rec)
	assert.Equal(t, "us", catalog.Market)
	require.Len(t, catalog.Industries, 1)
}

func TestHandleCatalog_UnknownMarket(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/markets/lse/catalog", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCatalog_LoadFailure(t *testing.T) {
	ts := newTestServer()
	ts.catalog.catalogErr = fmt.Errorf("catalog resource unavailable")

	rec := ts.do(t, http.MethodGet, "/api/markets/us/catalog", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleValuation_QualifiesTicker(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/valuation/AAPL", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	// Default market is us, so the raw ticker gets the .US suffix.
	assert.Equal(t, "AAPL.US", ts.valuation.lastSymbol)
	assert.Equal(t, "USD", ts.valuation.lastCurrency)

	rec = ts.do(t, http.MethodGet, "/api/valuation/TEVA?market=tase", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TEVA.TA", ts.valuation.lastSymbol)
	assert.Equal(t, "ILS", ts.valuation.lastCurrency)
}

func TestHandleValuation_UsesPreferredMarket(t *testing.T) {
	ts := newTestServer()
	ts.prefs.Set(context.Background(), "market", "tase")

	ts.do(t, http.MethodGet, "/api/valuation/TEVA", "")
	assert.Equal(t, "TEVA.TA", ts.valuation.lastSymbol)
}

func TestHandleValuation_UnknownMarket(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/valuation/AAPL?market=lse", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleValuation_FetchFailure(t *testing.T) {
	ts := newTestServer()
	ts.valuation.err = fmt.Errorf("provider down")

	rec := ts.do(t, http.MethodGet, "/api/valuation/AAPL", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleEstimate(t *testing.T) {
	ts := newTestServer()
	ts.estimate.estimate = &models.AIEstimate{Symbol: "AAPL.US", FairValue: 27.10, Rationale: "ok"}

	rec := ts.do(t, http.MethodPost, "/api/valuation/AAPL/estimate", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[struct {
		Metrics  models.ValuationMetrics `json:"metrics"`
		Estimate models.AIEstimate       `json:"estimate"`
		DeltaPct float64                 `json:"delta_pct"`
	}](t, rec)

	assert.InDelta(t, 26.25, body.Metrics.Weighted, 1e-9)
	assert.InDelta(t, 27.10, body.Estimate.FairValue, 1e-9)
	assert.InDelta(t, (27.10-26.25)/26.25*100, body.DeltaPct, 1e-9)
}

func TestHandleEstimate_ModelUnavailable(t *testing.T) {
	ts := newTestServer()
	ts.estimate.err = aiestimate.ErrModelUnavailable

	rec := ts.do(t, http.MethodPost, "/api/valuation/AAPL/estimate", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleEstimate_Failure(t *testing.T) {
	ts := newTestServer()
	ts.estimate.err = fmt.Errorf("%w: response unparsable", aiestimate.ErrEstimateFailed)

	rec := ts.do(t, http.MethodPost, "/api/valuation/AAPL/estimate", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	body := decodeBody[ErrorResponse](t, rec)
	// One generic message, no internal detail.
	assert.Equal(t, "AI estimate failed", body.Error)
}

func TestHandleEstimate_RequiresPost(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/valuation/AAPL/estimate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleShare(t *testing.T) {
	ts := newTestServer()
	ts.estimate.peeked = &models.AIEstimate{FairValue: 27.10}

	rec := ts.do(t, http.MethodGet, "/api/valuation/AAPL/share?company=Apple&lang=he", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.NotEmpty(t, body["url"])

	assert.Equal(t, "AAPL", ts.share.lastInput.Ticker)
	assert.Equal(t, "Apple", ts.share.lastInput.Company)
	assert.Equal(t, models.LangHebrew, ts.share.lastInput.Language)
	require.NotNil(t, ts.share.lastInput.Estimate)
	assert.InDelta(t, 27.10, ts.share.lastInput.Estimate.FairValue, 1e-9)
}

func TestHandleShare_WithoutEstimate(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/valuation/AAPL/share", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ts.share.lastInput.Estimate)
	assert.Equal(t, models.LangEnglish, ts.share.lastInput.Language)
}

func TestRouteValuation_UnknownSubpath(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/valuation/AAPL/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePrefs_Defaults(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/prefs", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "us", body["market"])
	assert.Equal(t, "en", body["language"])
}

func TestHandlePrefs_Update(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodPut, "/api/prefs", `{"market": "tase", "language": "he"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "tase", body["market"])
	assert.Equal(t, "he", body["language"])

	// The change sticks for subsequent reads.
	rec = ts.do(t, http.MethodGet, "/api/prefs", "")
	body = decodeBody[map[string]string](t, rec)
	assert.Equal(t, "tase", body["market"])
}

func TestHandlePrefs_InvalidValues(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPut, "/api/prefs", `{"market": "lse"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/prefs", `{"language": "fr"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/prefs", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflights(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodOptions, "/api/markets", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
