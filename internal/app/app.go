package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	catalogclient "github.com/bobmcallan/fairval/internal/clients/catalog"
	"github.com/bobmcallan/fairval/internal/clients/gemini"
	"github.com/bobmcallan/fairval/internal/clients/marketdata"
	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/services/aiestimate"
	"github.com/bobmcallan/fairval/internal/services/catalog"
	"github.com/bobmcallan/fairval/internal/services/share"
	"github.com/bobmcallan/fairval/internal/services/valuation"
	"github.com/bobmcallan/fairval/internal/storage"
)

// App holds all initialized services, clients, and storage.
// It is the shared core used by cmd/fairval-server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	MarketData       interfaces.MarketDataClient
	Gemini           interfaces.GeminiClient
	CatalogService   interfaces.CatalogService
	ValuationService interfaces.ValuationService
	EstimateService  interfaces.EstimateService
	ShareService     interfaces.ShareService
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, API clients, and the service layer.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, FAIRVAL_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("FAIRVAL_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fairval.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fairval.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()
	prefs := storageManager.Preferences()

	// Resolve API keys. Both are optional: without a market-data key the
	// app serves zero-value metrics, without a Gemini key estimates report
	// unavailable.
	marketDataKey, err := common.ResolveAPIKey(ctx, prefs, "marketdata_api_key", config.Clients.MarketData.APIKey)
	if err != nil {
		logger.Warn().Msg("Market data API key not configured - valuations will be zero-valued")
	}

	geminiKey, err := common.ResolveAPIKey(ctx, prefs, "gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - AI estimates will be unavailable")
	}

	// The market-data client is always constructed; a missing key puts it
	// in degraded mode rather than leaving it nil.
	marketDataClient := marketdata.NewClient(marketDataKey,
		marketdata.WithBaseURL(config.Clients.MarketData.BaseURL),
		marketdata.WithLogger(logger),
		marketdata.WithRateLimit(config.Clients.MarketData.RateLimit),
		marketdata.WithTimeout(config.Clients.MarketData.GetTimeout()),
	)

	catalogClient := catalogclient.NewClient(
		catalogclient.WithLogger(logger),
		catalogclient.WithTimeout(config.Catalogs.GetTimeout()),
	)

	// Gemini is constructed lazily on first use so startup never blocks on
	// the model backend.
	var geminiClient interfaces.GeminiClient
	if geminiKey != "" {
		geminiClient = gemini.NewLazy(geminiKey, config.Clients.Gemini.Model, logger)
	}

	markets := catalog.DefaultMarkets(config)
	catalogService := catalog.NewService(storageManager, marketDataClient, catalogClient, markets, logger)
	valuationService := valuation.NewService(storageManager, marketDataClient, logger)
	estimateService := aiestimate.NewService(storageManager, geminiClient, logger)
	shareService := share.NewService(logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		MarketData:       marketDataClient,
		Gemini:           geminiClient,
		CatalogService:   catalogService,
		ValuationService: valuationService,
		EstimateService:  estimateService,
		ShareService:     shareService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, cancel warm cache, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartWarmCache launches the background cache warming goroutine.
func (a *App) StartWarmCache() {
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		warmCache(warmCtx, a.CatalogService, a.Gemini, a.Storage, a.Logger)
	}()
}

// StartPriceScheduler launches the background price refresh goroutine.
func (a *App) StartPriceScheduler() {
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	a.schedulerCancel = schedulerCancel
	go startPriceScheduler(schedulerCtx, a.CatalogService, a.Storage, a.Logger, common.FreshnessPrices)
}
