package confidence

import (
	"fmt"
	"strings"

	"local-guide/knowledge"
	"local-guide/retrieval"
)

var clarifyTemplates = map[knowledge.Category]string{
	knowledge.Pricing:   "Which item or service would you like a price for, and roughly where in %s?",
	knowledge.Timing:    "What time of day are you planning for, and which place in %s?",
	knowledge.Safety:    "Which area of %s and what time of day are you asking about?",
	knowledge.Weather:   "Which month are you visiting %s in?",
	knowledge.Festivals: "Which festival or which dates in %s are you asking about?",
	knowledge.Culture:   "Which kind of place in %s are you visiting, for example a temple or a home?",
	knowledge.Slang:     "Which word or phrase heard in %s would you like explained?",
	knowledge.Transport: "Where are you travelling from and to in %s, and at what time?",
	knowledge.Food:      "What kind of food are you looking for in %s, and at what time of day?",
}

// ClarifyingQuestion builds the follow-up question asked instead of an
// answer when confidence is below threshold.
func ClarifyingQuestion(a retrieval.Analysis, city string) string {
	if city == "" {
		city = "the city"
	}
	if tmpl, ok := clarifyTemplates[a.Primary()]; ok && len(a.PresentIntents) > 0 {
		return fmt.Sprintf(tmpl, city)
	}
	if len(a.Unmatched) > 0 && len(a.Unmatched) == len(a.Tokens) {
		return fmt.Sprintf("I only have local context for %s and found nothing about %s. Could you ask about food, transport, prices, culture, weather, festivals or safety there?",
			city, strings.Join(a.Unmatched, ", "))
	}
	return fmt.Sprintf("Could you add more detail, such as a place in %s, a time of day or what you want to do?", city)
}
