package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/flow"
)

func TestEvaluateCondition(t *testing.T) {
	ctx := domain.RuntimeContext{
		"intent":          "complaint",
		"sentiment_score": -0.4,
		"urgency_score":   0.9,
		"requires_human":  true,
		"language":        "en",
	}

	cases := []struct {
		name      string
		condition string
		want      bool
	}{
		{"strict equality", "intent === 'complaint'", true},
		{"strict inequality", "intent !== 'inquiry'", true},
		{"plain equality", "language == 'en'", true},
		{"numeric comparison", "urgency_score > 0.8", true},
		{"numeric comparison false", "sentiment_score >= 0", false},
		{"logical and", "intent == 'complaint' && urgency_score > 0.5", true},
		{"logical or", "intent == 'payment' || requires_human", true},
		{"negation", "!requires_human", false},
		{"membership", "intent in ['complaint', 'support']", true},
		{"membership miss", "intent in ['payment', 'reservation']", false},
		{"boolean variable", "requires_human", true},
		{"undefined variable", "nonexistent == 'x'", false},
		{"unparsable expression", "intent === ", false},
		{"empty expression", "   ", false},
		{"non-boolean result", "urgency_score", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, flow.EvaluateCondition(tc.condition, ctx))
		})
	}
}

func TestEvaluateCondition_NoAmbientAccess(t *testing.T) {
	// The evaluator must not reach anything beyond the supplied variables.
	ctx := domain.RuntimeContext{"intent": "other"}
	assert.False(t, flow.EvaluateCondition(`os.Getenv("HOME") != ""`, ctx))
	assert.False(t, flow.EvaluateCondition(`exec("id")`, ctx))
}
