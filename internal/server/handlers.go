package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/bobmcallan/fairval/internal/services/aiestimate"
)

// Preference keys and defaults.
const (
	prefMarket   = "market"
	prefLanguage = "language"

	defaultMarket   = "us"
	defaultLanguage = models.LangEnglish
)

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// --- Market handlers ---

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"markets": s.deps.Catalog.Markets(),
	})
}

// routeMarkets dispatches /api/markets/{id}/catalog.
func (s *Server) routeMarkets(w http.ResponseWriter, r *http.Request) {
	path := PathParam(r.URL.Path, "/api/markets/", "")
	parts := strings.Split(path, "/")

	if len(parts) == 2 && parts[1] == "catalog" {
		s.handleCatalog(w, r, parts[0])
		return
	}

	WriteError(w, http.StatusNotFound, "Not found")
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request, marketID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if _, ok := s.deps.Catalog.Market(marketID); !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Unknown market: %s", marketID))
		return
	}

	catalog, err := s.deps.Catalog.LoadCatalog(r.Context(), marketID)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Catalog load failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, catalog)
}

// --- Valuation handlers ---

// routeValuation dispatches /api/valuation/{ticker}[/estimate|/share].
func (s *Server) routeValuation(w http.ResponseWriter, r *http.Request) {
	path := PathParam(r.URL.Path, "/api/valuation/", "")
	parts := strings.Split(path, "/")

	if parts[0] == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch {
	case len(parts) == 1:
		s.handleValuation(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "estimate":
		s.handleEstimate(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "share":
		s.handleShare(w, r, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// resolveMarket picks the market from the query, falling back to the stored
// preference and then the default market.
func (s *Server) resolveMarket(r *http.Request) (models.Market, bool) {
	marketID := r.URL.Query().Get("market")
	if marketID == "" {
		marketID = s.deps.Prefs.Get(r.Context(), prefMarket, defaultMarket)
	}
	return s.deps.Catalog.Market(marketID)
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	market, ok := s.resolveMarket(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Unknown market")
		return
	}

	metrics, err := s.deps.Valuation.GetMetrics(r.Context(), market.Qualify(ticker), market.Currency)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Valuation fetch failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	market, ok := s.resolveMarket(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Unknown market")
		return
	}
	symbol := market.Qualify(ticker)

	metrics, err := s.deps.Valuation.GetMetrics(r.Context(), symbol, market.Currency)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Valuation fetch failed: %v", err))
		return
	}

	estimate, err := s.deps.Estimate.GetEstimate(r.Context(), symbol, *metrics)
	if err != nil {
		if errors.Is(err, aiestimate.ErrModelUnavailable) {
			WriteError(w, http.StatusServiceUnavailable, "AI estimate unavailable")
			return
		}
		// One generic message regardless of what went wrong underneath.
		WriteError(w, http.StatusBadGateway, "AI estimate failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"metrics":   metrics,
		"estimate":  estimate,
		"delta_pct": estimate.DeltaPct(metrics.Weighted),
	})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	market, ok := s.resolveMarket(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Unknown market")
		return
	}
	symbol := market.Qualify(ticker)

	metrics, err := s.deps.Valuation.GetMetrics(r.Context(), symbol, market.Currency)
	if err != nil {
		WriteError(w, http.StatusBadGateway, fmt.Sprintf("Valuation fetch failed: %v", err))
		return
	}

	language := r.URL.Query().Get("lang")
	if language == "" {
		language = s.deps.Prefs.Get(r.Context(), prefLanguage, defaultLanguage)
	}

	link := s.deps.Share.ShareLink(models.ShareInput{
		Ticker:   ticker,
		Company:  r.URL.Query().Get("company"),
		Metrics:  *metrics,
		Estimate: s.deps.Estimate.PeekEstimate(r.Context(), symbol, *metrics),
		Language: language,
	})

	WriteJSON(w, http.StatusOK, map[string]string{"url": link})
}

// --- Preference handlers ---

func (s *Server) handlePrefs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, map[string]string{
			prefMarket:   s.deps.Prefs.Get(r.Context(), prefMarket, defaultMarket),
			prefLanguage: s.deps.Prefs.Get(r.Context(), prefLanguage, defaultLanguage),
		})
	case http.MethodPut:
		var req struct {
			Market   string `json:"market"`
			Language string `json:"language"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}

		if req.Market != "" {
			if _, ok := s.deps.Catalog.Market(req.Market); !ok {
				WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown market: %s", req.Market))
				return
			}
			if err := s.deps.Prefs.Set(r.Context(), prefMarket, req.Market); err != nil {
				WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save preference: %v", err))
				return
			}
		}

		if req.Language != "" {
			if req.Language != models.LangEnglish && req.Language != models.LangHebrew {
				WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported language: %s", req.Language))
				return
			}
			if err := s.deps.Prefs.Set(r.Context(), prefLanguage, req.Language); err != nil {
				WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save preference: %v", err))
				return
			}
		}

		WriteJSON(w, http.StatusOK, map[string]string{
			prefMarket:   s.deps.Prefs.Get(r.Context(), prefMarket, defaultMarket),
			prefLanguage: s.deps.Prefs.Get(r.Context(), prefLanguage, defaultLanguage),
		})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut)
	}
}
