package assistant

import (
	"encoding/json"

	"github.com/upb/storefront-assistant/models"
)

// Reply is the assistant's answer to one chat message. Which payload keys
// are present depends on Intent: recommendations carry products, discounts
// carry discounts, policy answers carry sources.
type Reply struct {
	Intent    Intent
	Text      string
	Products  []models.ProductSummary
	Discounts []models.Discount
	Sources   []int64
}

// MarshalJSON renders the reply in the chat wire format
func (r Reply) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"reply": r.Text}

	switch r.Intent {
	case IntentRecommendation:
		products := r.Products
		if products == nil {
			products = []models.ProductSummary{}
		}
		out["products"] = products
	case IntentDiscount:
		discounts := r.Discounts
		if discounts == nil {
			discounts = []models.Discount{}
		}
		out["discounts"] = discounts
	case IntentPolicy:
		sources := r.Sources
		if sources == nil {
			sources = []int64{}
		}
		out["sources"] = sources
	}

	return json.Marshal(out)
}
