// Package models defines data structures for Fairval
package models

import "time"

// Market describes one of the supported equity markets.
type Market struct {
	ID         string `json:"id"`       // "us" or "tase"
	Name       string `json:"name"`     // display name
	Suffix     string `json:"suffix"`   // exchange suffix appended to tickers (".US", ".TA")
	Currency   string `json:"currency"` // ISO currency code for the market
	CatalogURL string `json:"-"`        // static catalog resource
}

// Qualify returns the exchange-qualified symbol for a raw ticker.
func (m Market) Qualify(ticker string) string {
	return ticker + m.Suffix
}

// CatalogEntry is one company row in the browse view.
// Price is nil when no finite price was available for the symbol.
type CatalogEntry struct {
	Ticker  string   `json:"ticker"`
	Company string   `json:"company"`
	Price   *float64 `json:"price,omitempty"`
}

// IndustryGroup is an ordered grouping of catalog entries under one industry.
type IndustryGroup struct {
	Industry string         `json:"industry"`
	Entries  []CatalogEntry `json:"entries"`
}

// MarketCatalog is the merged browse-view payload for one market:
// the static catalog joined with the latest price snapshot.
type MarketCatalog struct {
	Market     string          `json:"market"`
	Currency   string          `json:"currency"`
	Industries []IndustryGroup `json:"industries"`
	PricesAsOf time.Time       `json:"prices_as_of"`
}

// PriceSnapshot is the cached batch-price record for one market.
// Snapshots are overwritten wholesale on refresh, never merged.
type PriceSnapshot struct {
	Market     string             `json:"market"`
	CapturedAt time.Time          `json:"captured_at"`
	Prices     map[string]float64 `json:"prices"`
}
