// Package amqp10 is the dead-letter Backend that publishes onto an AMQP 1.0
// target via Azure/go-amqp, grounded on the teacher's connector/impl/amqp10
// reader's dial/session setup, mirrored here for a Sender instead of a
// Receiver.
package amqp10

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/go-amqp"
	"gopkg.in/yaml.v3"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/deadletter"
)

type Config struct {
	Addr   string `yaml:"addr"`
	Target string `yaml:"target"`
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("amqp10 dead-letter backend: addr not defined")
	}
	if c.Target == "" {
		return fmt.Errorf("amqp10 dead-letter backend: target not defined")
	}
	return nil
}

type Backend struct {
	conf    Config
	conn    *amqp.Conn
	session *amqp.Session
	sender  *amqp.Sender
	l       *slog.Logger
}

func New(ctx context.Context, conf Config, l *slog.Logger) (*Backend, error) {
	if l == nil {
		l = slog.Default()
	}
	conn, err := amqp.Dial(ctx, conf.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("amqp10 dead-letter backend: dial: %w", err)
	}
	session, err := conn.NewSession(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp10 dead-letter backend: new session: %w", err)
	}
	sender, err := session.NewSender(ctx, conf.Target, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp10 dead-letter backend: new sender: %w", err)
	}
	return &Backend{conf: conf, conn: conn, session: session, sender: sender, l: l}, nil
}

func (b *Backend) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	msg := &amqp.Message{Data: [][]byte{payload}}
	if key != "" {
		msg.Properties = &amqp.MessageProperties{MessageID: key}
	}
	if len(properties) > 0 {
		msg.ApplicationProperties = make(map[string]any, len(properties))
		for k, v := range properties {
			msg.ApplicationProperties[k] = v
		}
	}
	if err := b.sender.Send(ctx, msg, nil); err != nil {
		return fmt.Errorf("amqp10 dead-letter backend: send: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	ctx := context.Background()
	if err := b.sender.Close(ctx); err != nil {
		b.l.Warn("amqp10 dead-letter backend: close sender", "error", err)
	}
	if err := b.session.Close(ctx); err != nil {
		b.l.Warn("amqp10 dead-letter backend: close session", "error", err)
	}
	return b.conn.Close()
}

func init() {
	deadletter.RegisterBackendFactory(deadletter.AMQP10, func(rawConfig any, l *slog.Logger) (deadletter.Backend, error) {
		conf, err := convertConfig(rawConfig)
		if err != nil {
			return nil, err
		}
		if err := conf.Validate(); err != nil {
			return nil, err
		}
		return New(context.Background(), conf, l)
	})
}

func convertConfig(raw any) (Config, error) {
	if conf, ok := raw.(Config); ok {
		return conf, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return Config{}, fmt.Errorf("amqp10 dead-letter backend: marshal raw config: %w", err)
	}
	var conf Config
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return Config{}, fmt.Errorf("amqp10 dead-letter backend: unmarshal config: %w", err)
	}
	return conf, nil
}
