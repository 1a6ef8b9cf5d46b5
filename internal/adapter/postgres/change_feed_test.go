package postgres

import (
	"testing"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNotification(t *testing.T) {
	event, err := decodeNotification(`{"collection":"votes","op":"DELETE","at":"2026-03-01T12:00:00.5+00:00"}`)
	require.NoError(t, err)

	assert.Equal(t, domain.CollectionVotes, event.Collection)
	assert.Equal(t, domain.OpDelete, event.Op)
	assert.True(t, event.At.Equal(time.Date(2026, 3, 1, 12, 0, 0, 500_000_000, time.UTC)))
}

func TestDecodeNotification_Rejects(t *testing.T) {
	payloads := map[string]string{
		"not json":           `{`,
		"unknown collection": `{"collection":"users","op":"INSERT"}`,
		"unknown op":         `{"collection":"feedback","op":"TRUNCATE"}`,
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := decodeNotification(payload)
			assert.Error(t, err)
		})
	}
}
