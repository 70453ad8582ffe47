package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/water-risk-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"village":"V1","ph":7.0}`),
		Topic:     "raw-water-observations",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("sensor-gateway")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"village":"V1","ph":7.0}`, string(raw.Value))
	assert.Equal(t, "raw-water-observations", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "sensor-gateway", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestMapMessageToRawEvent_NoHeaders(t *testing.T) {
	raw := mapMessageToRawEvent(kafkago.Message{Value: []byte(`{}`)})
	assert.NotNil(t, raw.Headers)
	assert.Empty(t, raw.Headers)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 1, 6, 12, 30, 0, 0, time.UTC)
	assessor := domain.NewAssessor(domain.WithClock(clockwork.NewFakeClockAt(now)))

	a := assessor.Assess(domain.Observation{
		Village:    "V1",
		ObservedAt: now,
		PH:         domain.Float(5.0),
		Turbidity:  domain.Float(20),
		ReportText: "5 people have diarrhea after drinking from the pond",
	})

	msg, err := serializeToMessage(a)
	require.NoError(t, err)

	assert.Equal(t, []byte(a.ID), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, HeaderStatus, msg.Headers[0].Key)
	assert.Equal(t, []byte(a.Tier), msg.Headers[0].Value)
	assert.Equal(t, HeaderAssessedAt, msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, a.ID, decoded["id"])
	assert.Equal(t, string(a.Tier), decoded["status"])
	assert.Equal(t, "pond", decoded["suspected_source"])
	assert.Contains(t, decoded, "processed_data")
	assert.Contains(t, decoded, "advisory")
}

func TestSerializeToMessage_SameInputSameKey(t *testing.T) {
	obs := domain.Observation{Village: "V2", PH: domain.Float(7.2)}
	first, err := serializeToMessage(domain.NewAssessor().Assess(obs))
	require.NoError(t, err)
	second, err := serializeToMessage(domain.NewAssessor().Assess(obs))
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key)
}
