// Package kafka is the dead-letter Backend that publishes onto a Kafka
// topic via franz-go, grounded on the teacher's connector/impl/kafka
// writer.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"gopkg.in/yaml.v3"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/deadletter"
)

type Config struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka dead-letter backend: brokers not defined")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka dead-letter backend: topic not defined")
	}
	return nil
}

type Backend struct {
	conf Config
	c    *kgo.Client
	l    *slog.Logger
}

func New(conf Config, l *slog.Logger) (*Backend, error) {
	if l == nil {
		l = slog.Default()
	}
	c, err := kgo.NewClient(
		kgo.SeedBrokers(conf.Brokers...),
		kgo.DefaultProduceTopic(conf.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka dead-letter backend: new client: %w", err)
	}
	return &Backend{conf: conf, c: c, l: l}, nil
}

func (b *Backend) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	headers := make([]kgo.RecordHeader, 0, len(properties))
	for k, v := range properties {
		headers = append(headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	done := make(chan error, 1)
	b.c.Produce(ctx, &kgo.Record{
		Topic:   b.conf.Topic,
		Key:     []byte(key),
		Value:   payload,
		Headers: headers,
	}, func(r *kgo.Record, err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("kafka dead-letter backend: produce: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Backend) Close() error {
	b.c.Close()
	return nil
}

func init() {
	deadletter.RegisterBackendFactory(deadletter.Kafka, func(rawConfig any, l *slog.Logger) (deadletter.Backend, error) {
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

// convertConfig round-trips rawConfig through YAML into a typed Config, the
// same trick the teacher's nsq init func uses for its raw broker config.
func convertConfig(raw any) (Config, error) {
	if conf, ok := raw.(Config); ok {
		return conf, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return Config{}, fmt.Errorf("kafka dead-letter backend: marshal raw config: %w", err)
	}
	var conf Config
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return Config{}, fmt.Errorf("kafka dead-letter backend: unmarshal config: %w", err)
	}
	return conf, nil
}
