// Package nats is the dead-letter Backend that publishes onto a NATS core
// subject via nats.go, grounded on the teacher's connector/impl/nats config
// shape.
package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"gopkg.in/yaml.v3"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/deadletter"
)

type Config struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("nats dead-letter backend: url not defined")
	}
	if c.Subject == "" {
		return fmt.Errorf("nats dead-letter backend: subject not defined")
	}
	return nil
}

type Backend struct {
	conf Config
	nc   *nats.Conn
	l    *slog.Logger
}

func New(conf Config, l *slog.Logger) (*Backend, error) {
	if l == nil {
		l = slog.Default()
	}
	nc, err := nats.Connect(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("nats dead-letter backend: connect: %w", err)
	}
	return &Backend{conf: conf, nc: nc, l: l}, nil
}

// Publish sends payload on the configured subject, carrying key (as the
// "key" header) and properties as NATS message headers.
func (b *Backend) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	msg := &nats.Msg{Subject: b.conf.Subject, Data: payload}
	if key != "" {
		msg.Header = nats.Header{"key": []string{key}}
	}
	for k, v := range properties {
		if msg.Header == nil {
			msg.Header = nats.Header{}
		}
		msg.Header.Set(k, v)
	}
	if err := b.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats dead-letter backend: publish: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.nc.Close()
	return nil
}

func init() {
	deadletter.RegisterBackendFactory(deadletter.NatsCore, func(rawConfig any, l *slog.Logger) (deadletter.Backend, error) {
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
		return Config{}, fmt.Errorf("nats dead-letter backend: marshal raw config: %w", err)
	}
	var conf Config
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return Config{}, fmt.Errorf("nats dead-letter backend: unmarshal config: %w", err)
	}
	return conf, nil
}
