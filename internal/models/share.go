package models

// Supported display languages for share links.
const (
	LangEnglish = "en"
	LangHebrew  = "he"
)

// ShareInput carries everything the share-link builder needs for one symbol.
// Estimate is nil when no AI estimate is available.
type ShareInput struct {
	Ticker   string
	Company  string
	Metrics  ValuationMetrics
	Estimate *AIEstimate
	Language string
}
