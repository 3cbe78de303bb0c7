package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateRequiresURL(t *testing.T) {
	c := Config{Subject: "orders.dlq"}
	assert.Error(t, c.Validate())
}

func TestConfigValidateRequiresSubject(t *testing.T) {
	c := Config{URL: "nats://localhost:4222"}
	assert.Error(t, c.Validate())
}

func TestConfigValidateAcceptsCompleteConfig(t *testing.T) {
	c := Config{URL: "nats://localhost:4222", Subject: "orders.dlq"}
	assert.NoError(t, c.Validate())
}

func TestConvertConfigDecodesFromMap(t *testing.T) {
	raw := map[string]any{"url": "nats://localhost:4222", "subject": "orders.dlq"}
	got, err := convertConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, Config{URL: "nats://localhost:4222", Subject: "orders.dlq"}, got)
}
