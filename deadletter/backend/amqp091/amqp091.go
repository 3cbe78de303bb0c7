// Package amqp091 is the dead-letter Backend that publishes onto an AMQP
// 0-9-1 exchange via rabbitmq/amqp091-go. The teacher's connector/impl/amqp091
// package only ships a reader in this pack; the publish side here is
// grounded directly on amqp091-go's own Channel.PublishWithContext API.
package amqp091

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/yaml.v3"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/deadletter"
)

type Config struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("amqp091 dead-letter backend: url not defined")
	}
	if c.RoutingKey == "" {
		return fmt.Errorf("amqp091 dead-letter backend: routing_key not defined")
	}
	return nil
}

type Backend struct {
	conf Config
	conn *amqp.Connection
	ch   *amqp.Channel
	l    *slog.Logger
}

func New(conf Config, l *slog.Logger) (*Backend, error) {
	if l == nil {
		l = slog.Default()
	}
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp091 dead-letter backend: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp091 dead-letter backend: channel: %w", err)
	}
	return &Backend{conf: conf, conn: conn, ch: ch, l: l}, nil
}

func (b *Backend) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	headers := make(amqp.Table, len(properties))
	for k, v := range properties {
		headers[k] = v
	}
	err := b.ch.PublishWithContext(ctx, b.conf.Exchange, b.conf.RoutingKey, false, false, amqp.Publishing{
		Body:      payload,
		MessageId: key,
		Headers:   headers,
	})
	if err != nil {
		return fmt.Errorf("amqp091 dead-letter backend: publish: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	if err := b.ch.Close(); err != nil {
		b.l.Warn("amqp091 dead-letter backend: close channel", "error", err)
	}
	return b.conn.Close()
}

func init() {
	deadletter.RegisterBackendFactory(deadletter.AMQP091, func(rawConfig any, l *slog.Logger) (deadletter.Backend, error) {
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
		return Config{}, fmt.Errorf("amqp091 dead-letter backend: marshal raw config: %w", err)
	}
	var conf Config
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return Config{}, fmt.Errorf("amqp091 dead-letter backend: unmarshal config: %w", err)
	}
	return conf, nil
}
