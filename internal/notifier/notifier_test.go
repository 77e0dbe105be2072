package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudshield/internal/domain"
)

func TestLog_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(zerolog.New(&buf))

	err := n.Notify(context.Background(), Notification{Message: domain.Message{
		ID:        "m-1",
		UserID:    "+15550100",
		Channel:   domain.ChannelSMS,
		RiskScore: 0.97,
		Label:     domain.RiskHigh,
	}})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "m-1", line["message_id"])
	assert.Equal(t, "+15550100", line["user_id"])
	assert.Equal(t, "SMS", line["channel"])
	assert.Equal(t, 0.97, line["risk_score"])
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Notify(context.Background(), Notification{}))
}
