package sentiment

import "github.com/dyike/CortexSI/models"

// ClassifyRumor votes rumor indicators against fact indicators.
//
// Text without any indicator is not a rumor at confidence 0.5. Otherwise the
// fact ratio decides: below one half is a rumor, so an exact tie counts as
// fact. Confidence is the winning side's share.
func ClassifyRumor(text string) models.RumorClassification {
	rumorHits := matchedKeywords(text, rumorIndicators)
	factHits := matchedKeywords(text, factIndicators)

	total := len(rumorHits) + len(factHits)
	if total == 0 {
		return models.RumorClassification{IsRumor: false, Confidence: 0.5}
	}

	factRatio := float64(len(factHits)) / float64(total)
	return models.RumorClassification{
		IsRumor:    factRatio < 0.5,
		Confidence: max(factRatio, 1-factRatio),
		Indicators: &models.RumorIndicators{
			Rumor: nonNil(rumorHits),
			Fact:  nonNil(factHits),
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
