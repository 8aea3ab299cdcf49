package domain

// AIInsight is a narrative produced by the portal's LLM proxy together with
// the structured data it was generated from. Stateless on the client side;
// never cached beyond the default component TTLs.
type AIInsight struct {
	Summary    string                 `json:"summary,omitempty"`
	Prediction string                 `json:"prediction,omitempty"`
	Analysis   string                 `json:"analysis,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Text returns whichever narrative field the endpoint populated.
func (a *AIInsight) Text() string {
	switch {
	case a.Summary != "":
		return a.Summary
	case a.Prediction != "":
		return a.Prediction
	default:
		return a.Analysis
	}
}
