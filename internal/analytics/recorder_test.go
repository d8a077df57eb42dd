package analytics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaniflow/vaniflow/internal/analytics"
	"github.com/vaniflow/vaniflow/internal/domain"
	"github.com/vaniflow/vaniflow/internal/logging"
	"github.com/vaniflow/vaniflow/internal/store"
)

func sampleDecision() *domain.Decision {
	return &domain.Decision{
		Intent:         domain.IntentComplaint,
		SentimentScore: -0.6,
		UrgencyScore:   0.8,
		Language:       "en",
		RequiresHuman:  false,
		Confidence:     0.7,
	}
}

func sampleMicroservice() *domain.MicroserviceResult {
	return &domain.MicroserviceResult{
		Service: domain.ServiceTicketing,
		Mode:    domain.ModeLocal,
		Status:  domain.StatusSuccess,
		Action:  "create_ticket",
		Payload: map[string]any{},
	}
}

func TestRecordQuery_Success(t *testing.T) {
	mem := store.NewMemory()
	recorder := analytics.NewRecorder(mem, logging.NewNop())

	result := recorder.RecordQuery(context.Background(), analytics.QueryEvent{
		SessionID:      "s-1",
		Channel:        "web_chat",
		RawText:        "this broke",
		NormalizedText: "this broke",
		TranslatedTo:   "en",
		Decision:       sampleDecision(),
		Microservice:   sampleMicroservice(),
		LatencyMS:      42,
	})

	assert.True(t, result.Logged)
	assert.NotEmpty(t, result.ID)
	assert.Empty(t, result.Error)

	row, err := mem.FindOne(context.Background(), store.CollectionQueryAnalytics, store.Doc{"session_id": "s-1"})
	require.NoError(t, err)
	assert.Equal(t, "web_chat", row["channel"])
	assert.Equal(t, domain.IntentComplaint, row["intent"])
	assert.Equal(t, domain.ServiceTicketing, row["routed_service"])
	assert.NotEmpty(t, row["created_at"])
}

// failingStore rejects every write.
type failingStore struct {
	store.Store
}

func (f failingStore) InsertOne(ctx context.Context, collection string, doc store.Doc) (string, error) {
	return "", errors.New("disk on fire")
}

func TestRecordQuery_FailureIsData(t *testing.T) {
	recorder := analytics.NewRecorder(failingStore{store.NewMemory()}, logging.NewNop())

	result := recorder.RecordQuery(context.Background(), analytics.QueryEvent{
		Decision:     sampleDecision(),
		Microservice: sampleMicroservice(),
	})

	assert.False(t, result.Logged)
	assert.Empty(t, result.ID)
	assert.Equal(t, "disk on fire", result.Error)
}

func TestRecordFlowAction_SkipsWithoutFlowIdentity(t *testing.T) {
	mem := store.NewMemory()
	recorder := analytics.NewRecorder(mem, logging.NewNop())

	result := recorder.RecordFlowAction(context.Background(), analytics.FlowActionEvent{
		Decision:     sampleDecision(),
		Microservice: sampleMicroservice(),
	})

	assert.False(t, result.Logged)
	assert.Empty(t, result.Error, "skipping is not an error")

	docs, err := mem.Find(context.Background(), store.CollectionFlowActionLogs, store.Doc{}, store.FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRecordFlowAction_ConsequenceType(t *testing.T) {
	mem := store.NewMemory()
	recorder := analytics.NewRecorder(mem, logging.NewNop())

	escalating := sampleDecision() // complaint intent
	result := recorder.RecordFlowAction(context.Background(), analytics.FlowActionEvent{
		ChatbotID:    "cb-1",
		FlowID:       "fl-1",
		FromNodeID:   "n1",
		ToNodeID:     "n2",
		Decision:     escalating,
		Microservice: sampleMicroservice(),
	})
	require.True(t, result.Logged)

	row, err := mem.FindOne(context.Background(), store.CollectionFlowActionLogs, store.Doc{"chatbot_id": "cb-1"})
	require.NoError(t, err)
	assert.Equal(t, "escalate_human", row["consequence_type"])
	assert.Equal(t, "n1", row["from_node_id"])
	assert.Equal(t, "n2", row["to_node_id"])

	calm := sampleDecision()
	calm.Intent = domain.IntentInquiry
	result = recorder.RecordFlowAction(context.Background(), analytics.FlowActionEvent{
		ChatbotID:    "cb-2",
		FlowID:       "fl-2",
		Decision:     calm,
		Microservice: sampleMicroservice(),
	})
	require.True(t, result.Logged)

	row, err = mem.FindOne(context.Background(), store.CollectionFlowActionLogs, store.Doc{"chatbot_id": "cb-2"})
	require.NoError(t, err)
	assert.Equal(t, "continue_bot", row["consequence_type"])
}
