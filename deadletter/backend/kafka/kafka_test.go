package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateRequiresBrokers(t *testing.T) {
	c := Config{Topic: "orders"}
	assert.Error(t, c.Validate())
}

func TestConfigValidateRequiresTopic(t *testing.T) {
	c := Config{Brokers: []string{"localhost:9092"}}
	assert.Error(t, c.Validate())
}

func TestConfigValidateAcceptsCompleteConfig(t *testing.T) {
	c := Config{Brokers: []string{"localhost:9092"}, Topic: "orders"}
	assert.NoError(t, c.Validate())
}

func TestConvertConfigPassesThroughTypedConfig(t *testing.T) {
	want := Config{Brokers: []string{"a:9092"}, Topic: "t"}
	got, err := convertConfig(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConvertConfigDecodesFromMap(t *testing.T) {
	raw := map[string]any{
		"brokers": []string{"a:9092", "b:9092"},
		"topic":   "orders",
	}
	got, err := convertConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, Config{Brokers: []string{"a:9092", "b:9092"}, Topic: "orders"}, got)
}
