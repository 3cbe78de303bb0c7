// Package config loads the yaml-driven application configuration that ties
// a consumer.Config to its transport (broker address, TLS) and the
// dead-letter backend it forwards exhausted messages to, the way the
// teacher's internal/config.Config ties a server config to TLS and its mq
// backend set.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/deadletter"
	"github.com/brokerclient/go-consumer/internal/observability"
)

type LogConfig struct {
	Level string `yaml:"level"`
}

func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "INFO"
	}
}

// BrokerConfig is the client-side counterpart of the teacher's FujinConfig:
// where to dial and how long to wait for the handshake, instead of where
// to listen.
type BrokerConfig struct {
	Addr                 string          `yaml:"addr"`
	DialTimeout          time.Duration   `yaml:"dial_timeout"`
	PingInterval         time.Duration   `yaml:"ping_interval"`
	PingTimeout          time.Duration   `yaml:"ping_timeout"`
	TLS                  ClientTLSConfig `yaml:"tls"`
}

func (c *BrokerConfig) SetDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 2 * time.Second
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = 5 * time.Second
	}
}

// DeadLetterBackendConfig names which deadletter/backend/* implementation
// to construct and carries its raw, backend-specific settings, mirroring
// how the teacher's mq.Config picks a protocol and a matching sub-config.
type DeadLetterBackendConfig struct {
	Protocol deadletter.Protocol `yaml:"protocol"`
	Settings map[string]any      `yaml:"settings"`
}

// Config is the top-level application configuration: broker connection,
// consumer session settings, dead-letter routing, and observability.
type Config struct {
	Log        LogConfig                `yaml:"log"`
	Broker     BrokerConfig             `yaml:"broker"`
	Consumer   consumer.Config          `yaml:"consumer"`
	DeadLetter *DeadLetterBackendConfig `yaml:"dead_letter_backend"`
	Observability observability.Config  `yaml:"observability"`
}

func (c *Config) SetDefaults() {
	c.Log.SetDefaults()
	c.Broker.SetDefaults()
}

// Load reads path as YAML into a Config, fills in defaults, and validates
// the embedded consumer.Config.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	c.SetDefaults()

	if err := c.Consumer.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("config: consumer: %w", err)
	}
	if c.Broker.Addr == "" {
		return nil, fmt.Errorf("config: broker.addr not defined")
	}

	return &c, nil
}
