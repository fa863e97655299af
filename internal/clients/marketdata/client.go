// Package marketdata provides a client for the Twelve Data market-data API
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

const (
	DefaultBaseURL   = "https://api.twelvedata.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 8 // requests per second

	// MaxBatchSize is the provider's per-request symbol limit for the
	// price endpoint.
	MaxBatchSize = 80
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new market-data client. An empty apiKey puts the
// client in degraded mode: price batches return empty and metric fetches
// must not be attempted (callers check HasAPIKey).
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasAPIKey reports whether a credential is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market-data API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Market-data API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetBatchPrices retrieves current prices for the given qualified symbols.
// Symbols are partitioned into batches of at most MaxBatchSize and fetched
// sequentially; a failed batch is logged and contributes no prices. Only
// entries that parse to a finite number appear in the result.
func (c *Client) GetBatchPrices(ctx context.Context, symbols []string) map[string]float64 {
	prices := make(map[string]float64)
	if c.apiKey == "" || len(symbols) == 0 {
		return prices
	}

	for start := 0; start < len(symbols); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		chunk := symbols[start:end]

		batch, err := c.fetchPriceBatch(ctx, chunk)
		if err != nil {
			c.logger.Debug().Err(err).Int("symbols", len(chunk)).Msg("Price batch failed, skipping")
			continue
		}
		for symbol, price := range batch {
			prices[symbol] = price
		}
	}

	return prices
}

// fetchPriceBatch issues one price request for up to MaxBatchSize symbols.
func (c *Client) fetchPriceBatch(ctx context.Context, chunk []string) (map[string]float64, error) {
	params := url.Values{}
	params.Set("symbol", strings.Join(chunk, ","))

	var raw map[string]json.RawMessage
	if err := c.get(ctx, "/price", params, &raw); err != nil {
		return nil, err
	}

	batch := make(map[string]float64)

	// Single-symbol requests return the bare {"price": ...} shape.
	if len(chunk) == 1 {
		if rawPrice, ok := raw["price"]; ok {
			if price, ok := parsePrice(rawPrice); ok {
				batch[chunk[0]] = price
			}
			return batch, nil
		}
	}

	for _, symbol := range chunk {
		entry, ok := raw[symbol]
		if !ok {
			continue
		}
		var priceEntry struct {
			Price json.RawMessage `json:"price"`
		}
		if err := json.Unmarshal(entry, &priceEntry); err != nil {
			continue
		}
		if price, ok := parsePrice(priceEntry.Price); ok {
			batch[symbol] = price
		}
	}

	return batch, nil
}

// parsePrice parses a price entry that may be a number or numeric string.
// It reports false for anything that is not a finite number.
func parsePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, perr := parseNumericString(s)
		if perr != nil {
			return 0, false
		}
		num = parsed
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}
	return num, true
}

// GetPrice retrieves the current price for one symbol.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp struct {
		Price flexFloat64 `json:"price"`
	}
	if err := c.get(ctx, "/price", params, &resp); err != nil {
		return 0, err
	}

	return float64(resp.Price), nil
}

// GetStatistics retrieves valuation statistics for one symbol.
func (c *Client) GetStatistics(ctx context.Context, symbol string) (*models.Statistics, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp statisticsResponse
	if err := c.get(ctx, "/statistics", params, &resp); err != nil {
		return nil, err
	}

	st := resp.Statistics
	return &models.Statistics{
		EnterpriseValue:   float64(st.ValuationsMetrics.EnterpriseValue),
		ForwardPE:         float64(st.ValuationsMetrics.ForwardPE),
		PriceToSales:      float64(st.ValuationsMetrics.PriceToSalesTTM),
		SharesOutstanding: float64(st.StockStatistics.SharesOutstanding),
		BookValue:         float64(st.Financials.BalanceSheet.BookValuePerShareMRQ),
		GrossMargin:       float64(st.Financials.GrossMargin),
		NetMargin:         float64(st.Financials.ProfitMargin),
		OperatingMargin:   float64(st.Financials.OperatingMargin),
	}, nil
}

// statisticsResponse mirrors the provider's nesting for the statistics endpoint.
type statisticsResponse struct {
	Statistics struct {
		ValuationsMetrics struct {
			EnterpriseValue flexFloat64 `json:"enterprise_value"`
			ForwardPE       flexFloat64 `json:"forward_pe"`
			PriceToSalesTTM flexFloat64 `json:"price_to_sales_ttm"`
		} `json:"valuations_metrics"`
		Financials struct {
			GrossMargin     flexFloat64 `json:"gross_margin"`
			ProfitMargin    flexFloat64 `json:"profit_margin"`
			OperatingMargin flexFloat64 `json:"operating_margin"`
			BalanceSheet    struct {
				BookValuePerShareMRQ flexFloat64 `json:"book_value_per_share_mrq"`
			} `json:"balance_sheet"`
		} `json:"financials"`
		StockStatistics struct {
			SharesOutstanding flexFloat64 `json:"shares_outstanding"`
		} `json:"stock_statistics"`
	} `json:"statistics"`
}

// GetBalanceSheet retrieves the most recent balance sheet figures.
func (c *Client) GetBalanceSheet(ctx context.Context, symbol string) (*models.BalanceSheet, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp balanceSheetResponse
	if err := c.get(ctx, "/balance_sheet", params, &resp); err != nil {
		return nil, err
	}

	result := &models.BalanceSheet{}
	if len(resp.BalanceSheet) > 0 {
		latest := resp.BalanceSheet[0]
		result.LongTermDebt = float64(latest.Liabilities.NonCurrentLiabilities.LongTermDebt)
		result.Cash = float64(latest.Assets.CurrentAssets.Cash)
	}
	return result, nil
}

// balanceSheetResponse mirrors the provider's nesting; statements are ordered
// most recent first.
type balanceSheetResponse struct {
	BalanceSheet []struct {
		Assets struct {
			CurrentAssets struct {
				Cash flexFloat64 `json:"cash_and_cash_equivalents"`
			} `json:"current_assets"`
		} `json:"assets"`
		Liabilities struct {
			NonCurrentLiabilities struct {
				LongTermDebt flexFloat64 `json:"long_term_debt"`
			} `json:"non_current_liabilities"`
		} `json:"liabilities"`
	} `json:"balance_sheet"`
}

// GetIncomeStatement retrieves the most recent income statement figures.
func (c *Client) GetIncomeStatement(ctx context.Context, symbol string) (*models.IncomeStatement, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp incomeStatementResponse
	if err := c.get(ctx, "/income_statement", params, &resp); err != nil {
		return nil, err
	}

	result := &models.IncomeStatement{}
	if len(resp.IncomeStatement) > 0 {
		latest := resp.IncomeStatement[0]
		result.Sales = float64(latest.Sales)
		result.NetIncome = float64(latest.NetIncome)
	}
	return result, nil
}

type incomeStatementResponse struct {
	IncomeStatement []struct {
		Sales     flexFloat64 `json:"sales"`
		NetIncome flexFloat64 `json:"net_income"`
	} `json:"income_statement"`
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
