// Package share builds localized outbound share links for the detail view
package share

import (
	"fmt"
	"net/url"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

const shareBaseURL = "https://twitter.com/intent/tweet?text="

// Service implements ShareService.
type Service struct {
	logger *common.Logger
}

// NewService creates a new share-link service.
func NewService(logger *common.Logger) *Service {
	return &Service{logger: logger}
}

// ShareLink formats a pre-filled social-share URL for the symbol, localized
// to the requested display language. The AI estimate line appears only when
// an estimate is available.
func (s *Service) ShareLink(input models.ShareInput) string {
	text := formatMessage(input)
	return shareBaseURL + url.QueryEscape(text)
}

func formatMessage(input models.ShareInput) string {
	m := input.Metrics

	var text string
	switch input.Language {
	case models.LangHebrew:
		text = fmt.Sprintf("%s (%s): מחיר %.2f %s, שווי הוגן משוקלל %.2f (EV %.2f / PE %.2f / PS %.2f)",
			input.Ticker, input.Company, m.Price, m.Currency, m.Weighted, m.FairEV, m.FairPE, m.FairPS)
		if input.Estimate != nil {
			text += fmt.Sprintf(", הערכת AI %.2f (%+.1f%% מול המשוקלל)",
				input.Estimate.FairValue, input.Estimate.DeltaPct(m.Weighted))
		}
	default:
		text = fmt.Sprintf("%s (%s): price %.2f %s, weighted fair value %.2f (EV %.2f / PE %.2f / PS %.2f)",
			input.Ticker, input.Company, m.Price, m.Currency, m.Weighted, m.FairEV, m.FairPE, m.FairPS)
		if input.Estimate != nil {
			text += fmt.Sprintf(", AI estimate %.2f (%+.1f%% vs weighted)",
				input.Estimate.FairValue, input.Estimate.DeltaPct(m.Weighted))
		}
	}

	return text
}

// Ensure Service implements ShareService
var _ interfaces.ShareService = (*Service)(nil)
