package amqp10

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateRequiresAddr(t *testing.T) {
	c := Config{Target: "orders.dlq"}
	assert.Error(t, c.Validate())
}

func TestConfigValidateRequiresTarget(t *testing.T) {
	c := Config{Addr: "amqp://localhost:5672"}
	assert.Error(t, c.Validate())
}

func TestConfigValidateAcceptsCompleteConfig(t *testing.T) {
	c := Config{Addr: "amqp://localhost:5672", Target: "orders.dlq"}
	assert.NoError(t, c.Validate())
}

func TestConvertConfigDecodesFromMap(t *testing.T) {
	raw := map[string]any{"addr": "amqp://localhost:5672", "target": "orders.dlq"}
	got, err := convertConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, Config{Addr: "amqp://localhost:5672", Target: "orders.dlq"}, got)
}
