// Package redisstreams is the dead-letter Backend that XADDs onto a Redis
// stream via redis/rueidis, grounded on the teacher's connector/impl/redis/streams
// config shape and the pubsub writer's rueidis client construction.
package redisstreams

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/rueidis"
	"gopkg.in/yaml.v3"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/deadletter"
)

type Config struct {
	InitAddress []string `yaml:"init_address"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	Stream      string   `yaml:"stream"`
}

func (c *Config) Validate() error {
	if len(c.InitAddress) == 0 {
		return fmt.Errorf("redis streams dead-letter backend: init_address not defined")
	}
	if c.Stream == "" {
		return fmt.Errorf("redis streams dead-letter backend: stream not defined")
	}
	return nil
}

type Backend struct {
	conf   Config
	client rueidis.Client
	l      *slog.Logger
}

func New(conf Config, l *slog.Logger) (*Backend, error) {
	if l == nil {
		l = slog.Default()
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: conf.InitAddress,
		Username:    conf.Username,
		Password:    conf.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("redis streams dead-letter backend: new client: %w", err)
	}
	return &Backend{conf: conf, client: client, l: l}, nil
}

func (b *Backend) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	fields := make([]string, 0, 4+2*len(properties))
	fields = append(fields, "payload", string(payload), "key", key)
	for k, v := range properties {
		fields = append(fields, k, v)
	}
	fv := b.client.B().Xadd().Key(b.conf.Stream).Id("*").FieldValue()
	for i := 0; i+1 < len(fields); i += 2 {
		fv = fv.FieldValue(fields[i], fields[i+1])
	}
	if err := b.client.Do(ctx, fv.Build()).Error(); err != nil {
		return fmt.Errorf("redis streams dead-letter backend: xadd: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.client.Close()
	return nil
}

func init() {
	deadletter.RegisterBackendFactory(deadletter.RedisStreams, func(rawConfig any, l *slog.Logger) (deadletter.Backend, error) {
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
		return Config{}, fmt.Errorf("redis streams dead-letter backend: marshal raw config: %w", err)
	}
	var conf Config
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return Config{}, fmt.Errorf("redis streams dead-letter backend: unmarshal config: %w", err)
	}
	return conf, nil
}
