// Package mqtt is the dead-letter Backend that publishes onto an MQTT topic
// via eclipse/paho.mqtt.golang. The teacher's connector/impl/mqtt package
// only ships an init/registration func in this pack, no writer body; this
// backend is grounded directly on paho's own Client.Publish API.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gopkg.in/yaml.v3"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/deadletter"
)

type Config struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt dead-letter backend: broker not defined")
	}
	if c.Topic == "" {
		return fmt.Errorf("mqtt dead-letter backend: topic not defined")
	}
	return nil
}

type Backend struct {
	conf   Config
	client mqtt.Client
	l      *slog.Logger
}

func New(conf Config, l *slog.Logger) (*Backend, error) {
	if l == nil {
		l = slog.Default()
	}
	opts := mqtt.NewClientOptions().AddBroker(conf.Broker).SetClientID(conf.ClientID)
	client := mqtt.NewClient(opts)
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("mqtt dead-letter backend: connect: %w", tok.Error())
	}
	return &Backend{conf: conf, client: client, l: l}, nil
}

// Publish drops properties: plain MQTT 3.1.1 publishes carry no header map.
func (b *Backend) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	tok := b.client.Publish(b.conf.Topic, b.conf.QoS, false, payload)
	done := make(chan struct{})
	go func() { tok.Wait(); close(done) }()
	select {
	case <-done:
		if tok.Error() != nil {
			return fmt.Errorf("mqtt dead-letter backend: publish: %w", tok.Error())
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Backend) Close() error {
	b.client.Disconnect(250)
	return nil
}

func init() {
	deadletter.RegisterBackendFactory(deadletter.MQTT, func(rawConfig any, l *slog.Logger) (deadletter.Backend, error) {
		conf, err := convertConfig(rawConfig)
		if err != nil {
			return nil, err
		}
		if err := conf.Validate(); err != nil {
			return nil, err
		}
		return New(conf, l)
	})
}

func convertConfig(raw any) (Config, error) {
	if conf, ok := raw.(Config); ok {
		return conf, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return Config{}, fmt.Errorf("mqtt dead-letter backend: marshal raw config: %w", err)
	}
	var conf Config
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return Config{}, fmt.Errorf("mqtt dead-letter backend: unmarshal config: %w", err)
	}
	return conf, nil
}
