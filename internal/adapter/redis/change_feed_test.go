package redis

import (
	"testing"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	event, err := decodeMessage("feedbackwall:changes:votes", `{"collection":"feedback","op":"DELETE"}`)
	require.NoError(t, err)

	assert.Equal(t, domain.CollectionVotes, event.Collection, "channel wins over payload")
	assert.Equal(t, domain.OpDelete, event.Op)
}

func TestDecodeMessage_DefaultsOp(t *testing.T) {
	event, err := decodeMessage("feedbackwall:changes:feedback", `{}`)
	require.NoError(t, err)
	assert.Equal(t, domain.OpUpdate, event.Op)
}

func TestDecodeMessage_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		payload string
	}{
		{"foreign channel", "other:votes", `{}`},
		{"unknown collection", "feedbackwall:changes:users", `{}`},
		{"bad payload", "feedbackwall:changes:votes", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeMessage(tt.channel, tt.payload)
			assert.Error(t, err)
		})
	}
}
