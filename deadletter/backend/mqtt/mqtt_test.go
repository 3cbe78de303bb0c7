package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateRequiresBroker(t *testing.T) {
	c := Config{Topic: "orders/dlq"}
	assert.Error(t, c.Validate())
}

func TestConfigValidateRequiresTopic(t *testing.T) {
	c := Config{Broker: "tcp://localhost:1883"}
	assert.Error(t, c.Validate())
}

func TestConfigValidateAcceptsCompleteConfig(t *testing.T) {
	c := Config{Broker: "tcp://localhost:1883", ClientID: "consumer-1", Topic: "orders/dlq", QoS: 1}
	assert.NoError(t, c.Validate())
}

func TestConvertConfigDecodesFromMap(t *testing.T) {
	raw := map[string]any{
		"broker":    "tcp://localhost:1883",
		"client_id": "consumer-1",
		"topic":     "orders/dlq",
		"qos":       1,
	}
	got, err := convertConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, Config{Broker: "tcp://localhost:1883", ClientID: "consumer-1", Topic: "orders/dlq", QoS: 1}, got)
}
