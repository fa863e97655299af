// Package catalog loads the static per-market catalog resources
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

const DefaultTimeout = 15 * time.Second

// Client fetches and decodes catalog resources.
type Client struct {
	httpClient *http.Client
	logger     *common.Logger
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new catalog client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetCatalog fetches the market's static resource and decodes the
// industry-grouped company list, preserving the resource's industry order.
// A cache-busting query parameter is appended on every request so CDN and
// browser-style intermediaries never serve a stale catalog.
func (c *Client) GetCatalog(ctx context.Context, market models.Market) ([]models.IndustryGroup, error) {
	reqURL, err := url.Parse(market.CatalogURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL for market %s: %w", market.ID, err)
	}
	query := reqURL.Query()
	query.Set("v", fmt.Sprintf("%d", c.now().UnixNano()))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}

	c.logger.Debug().Str("market", market.ID).Str("url", market.CatalogURL).Msg("Catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog for %s: %w", market.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog for %s returned status %d", market.ID, resp.StatusCode)
	}

	groups, err := decodeOrderedCatalog(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog for %s: %w", market.ID, err)
	}

	return groups, nil
}

// catalogCompany is one row of the raw resource.
type catalogCompany struct {
	Ticker  string `json:"Ticker"`
	Company string `json:"Company"`
}

// decodeOrderedCatalog decodes a JSON object mapping industry name to a
// company array. encoding/json maps discard key order, so the top-level
// object is walked token by token to keep the industry order of the resource.
func decodeOrderedCatalog(r io.Reader) ([]models.IndustryGroup, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected top-level object, got %v", tok)
	}

	var groups []models.IndustryGroup
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		industry, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected industry name, got %v", keyTok)
		}

		var companies []catalogCompany
		if err := dec.Decode(&companies); err != nil {
			return nil, fmt.Errorf("industry %q: %w", industry, err)
		}

		entries := make([]models.CatalogEntry, len(companies))
		for i, company := range companies {
			entries[i] = models.CatalogEntry{
				Ticker:  company.Ticker,
				Company: company.Company,
			}
		}
		groups = append(groups, models.IndustryGroup{
			Industry: industry,
			Entries:  entries,
		})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return groups, nil
}

// Ensure Client implements CatalogClient
var _ interfaces.CatalogClient = (*Client)(nil)
