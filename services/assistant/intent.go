package assistant

import "strings"

// Intent is the classified purpose of a shopper message
type Intent string

const (
	IntentRecommendation Intent = "recommendation"
	IntentDiscount       Intent = "discount"
	IntentPolicy         Intent = "policy"
	IntentGeneral        Intent = "general"
)

// Prefixes are checked in this order; the first match wins
var intentPrefixes = []struct {
	intent   Intent
	prefixes []string
}{
	{IntentRecommendation, []string{"recommend", "suggest"}},
	{IntentDiscount, []string{"discount", "promo", "coupon"}},
	{IntentPolicy, []string{"policy"}},
}

// Classify maps a message to an Intent by its lower-cased leading keyword.
// Anything unrecognized, including blank text, is IntentGeneral.
func Classify(text string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, group := range intentPrefixes {
		for _, prefix := range group.prefixes {
			if strings.HasPrefix(normalized, prefix) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}
