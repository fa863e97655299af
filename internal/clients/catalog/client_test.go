package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fairval/internal/models"
)

func testMarket(url string) models.Market {
	return models.Market{ID: "us", Suffix: ".US", Currency: "USD", CatalogURL: url}
}

func TestGetCatalog_PreservesIndustryOrder(t *testing.T) {
	// Key order here deliberately differs from alphabetical.
	payload := `{
		"Technology": [{"Ticker": "AAPL", "Company": "Apple"}, {"Ticker": "MSFT", "Company": "Microsoft"}],
		"Banks": [{"Ticker": "JPM", "Company": "JPMorgan"}],
		"Airlines": [{"Ticker": "DAL", "Company": "Delta"}]
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	}))
	defer server.Close()

	client := NewClient()
	groups, err := client.GetCatalog(context.Background(), testMarket(server.URL))
	require.NoError(t, err)

	require.Len(t, groups, 3)
	assert.Equal(t, "Technology", groups[0].Industry)
	assert.Equal(t, "Banks", groups[1].Industry)
	assert.Equal(t, "Airlines", groups[2].Industry)

	require.Len(t, groups[0].Entries, 2)
	assert.Equal(t, "AAPL", groups[0].Entries[0].Ticker)
	assert.Equal(t, "Apple", groups[0].Entries[0].Company)
	assert.Nil(t, groups[0].Entries[0].Price)
}

func TestGetCatalog_CacheBuster(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("v")
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient()
	_, err := client.GetCatalog(context.Background(), testMarket(server.URL))
	require.NoError(t, err)
	assert.NotEmpty(t, gotQuery)
}

func TestGetCatalog_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient()
	_, err := client.GetCatalog(context.Background(), testMarket(server.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestGetCatalog_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["not", "an", "object"]`)
	}))
	defer server.Close()

	client := NewClient()
	_, err := client.GetCatalog(context.Background(), testMarket(server.URL))
	assert.Error(t, err)
}

func TestGetCatalog_EmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient()
	groups, err := client.GetCatalog(context.Background(), testMarket(server.URL))
	require.NoError(t, err)
	assert.Empty(t, groups)
}
