package kafka

import (
	"testing"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 6, 14, 15, 10, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	obs := domain.Observation{
		Location: "1701020101",
		Date:     domain.Date(2025, time.June, 13),
		Version:  "vPUB2025",
		ModelNo:  7,
		Value:    2.5,
	}

	msg, err := serializeToMessage(obs)
	require.NoError(t, err)

	assert.Equal(t, []byte("1701020101"), msg.Key)
	assert.JSONEq(t,
		`{"location":"1701020101","date":"2025-06-13","version":"vPUB2025","model_no":7,"value":2.5}`,
		string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "version", msg.Headers[0].Key)
	assert.Equal(t, []byte("vPUB2025"), msg.Headers[0].Value)
	assert.Equal(t, "ingested_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}
