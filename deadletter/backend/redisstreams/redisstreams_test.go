package redisstreams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateRequiresInitAddress(t *testing.T) {
	c := Config{Stream: "orders.dlq"}
	assert.Error(t, c.Validate())
}

func TestConfigValidateRequiresStream(t *testing.T) {
	c := Config{InitAddress: []string{"localhost:6379"}}
	assert.Error(t, c.Validate())
}

func TestConfigValidateAcceptsCompleteConfig(t *testing.T) {
	c := Config{InitAddress: []string{"localhost:6379"}, Stream: "orders.dlq"}
	assert.NoError(t, c.Validate())
}

func TestConvertConfigDecodesFromMap(t *testing.T) {
	raw := map[string]any{
		"init_address": []string{"localhost:6379"},
		"username":     "svc",
		"password":     "secret",
		"stream":       "orders.dlq",
	}
	got, err := convertConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, Config{
		InitAddress: []string{"localhost:6379"},
		Username:    "svc",
		Password:    "secret",
		Stream:      "orders.dlq",
	}, got)
}
