// Package nsq is the dead-letter Backend that publishes onto an NSQ topic
// via nsqio/go-nsq, grounded on the teacher's connector/impl/nsq init func's
// yaml-roundtrip config conversion.
package nsq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nsqio/go-nsq"
	"gopkg.in/yaml.v3"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/deadletter"
)

type Config struct {
	NSQDAddr string `yaml:"nsqd_addr"`
	Topic    string `yaml:"topic"`
}

func (c *Config) Validate() error {
	if c.NSQDAddr == "" {
		return fmt.Errorf("nsq dead-letter backend: nsqd_addr not defined")
	}
	if c.Topic == "" {
		return fmt.Errorf("nsq dead-letter backend: topic not defined")
	}
	return nil
}

type Backend struct {
	conf     Config
	producer *nsq.Producer
	l        *slog.Logger
}

func New(conf Config, l *slog.Logger) (*Backend, error) {
	if l == nil {
		l = slog.Default()
	}
	producer, err := nsq.NewProducer(conf.NSQDAddr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq dead-letter backend: new producer: %w", err)
	}
	return &Backend{conf: conf, producer: producer, l: l}, nil
}

// Publish drops key and properties: NSQ messages are opaque byte bodies
// with no header map.
func (b *Backend) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	if err := b.producer.Publish(b.conf.Topic, payload); err != nil {
		return fmt.Errorf("nsq dead-letter backend: publish: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.producer.Stop()
	return nil
}

func init() {
	deadletter.RegisterBackendFactory(deadletter.NSQ, func(rawConfig any, l *slog.Logger) (deadletter.Backend, error) {
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
		return Config{}, fmt.Errorf("nsq dead-letter backend: marshal raw config: %w", err)
	}
	var conf Config
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return Config{}, fmt.Errorf("nsq dead-letter backend: unmarshal config: %w", err)
	}
	return conf, nil
}
