package domain

// Intent values the classifier may produce.
const (
	IntentComplaint   = "complaint"
	IntentReservation = "reservation"
	IntentInquiry     = "inquiry"
	IntentPayment     = "payment"
	IntentSupport     = "support"
	IntentOther       = "other"
)

// AllowedIntents is the closed intent enum.
var AllowedIntents = map[string]bool{
	IntentComplaint:   true,
	IntentReservation: true,
	IntentInquiry:     true,
	IntentPayment:     true,
	IntentSupport:     true,
	IntentOther:       true,
}

// Decision is the classifier's structured judgment over one user message.
// All fields are mandatory; the classifier rejects responses with missing or
// out-of-range values rather than defaulting.
type Decision struct {
	Intent         string  `json:"intent"`
	SentimentScore float64 `json:"sentiment_score"` // [-1, 1]
	UrgencyScore   float64 `json:"urgency_score"`   // [0, 1]
	Language       string  `json:"language"`        // lower-cased ISO code, len >= 2
	RequiresHuman  bool    `json:"requires_human"`
	Confidence     float64 `json:"confidence"` // [0, 1]
}

// Context flattens the decision into interpreter variables, together with the
// normalized user text.
func (d *Decision) Context(text string) RuntimeContext {
	return RuntimeContext{
		"intent":          d.Intent,
		"sentiment_score": d.SentimentScore,
		"urgency_score":   d.UrgencyScore,
		"requires_human":  d.RequiresHuman,
		"confidence":      d.Confidence,
		"language":        d.Language,
		"text":            text,
	}
}
