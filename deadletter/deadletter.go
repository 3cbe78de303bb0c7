// Package deadletter provides the concrete, multi-backend implementation of
// consumer.DeadLetterSink shipped with this module. Construction is kept
// external to consumer (§6): a Backend is picked by protocol name at
// startup and wrapped into a consumer.DeadLetterSink via NewSink, mirroring
// the teacher's writer.RegisterWriterFactory/NewWriter dispatch.
package deadletter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brokerclient/go-consumer/consumer"
)

// Protocol names one of the seven backend implementations this package
// ships. Values match the DOMAIN STACK's dead-letter routing table.
type Protocol string

const (
	Kafka        Protocol = "kafka"
	NatsCore     Protocol = "nats"
	AMQP091      Protocol = "amqp091"
	AMQP10       Protocol = "amqp10"
	RedisStreams Protocol = "redis_streams"
	MQTT         Protocol = "mqtt"
	NSQ          Protocol = "nsq"
)

// Backend publishes a dead-lettered message's raw payload to wherever this
// backend's broker keeps dead letters. Key and properties are folded into
// the outgoing message however each backend's wire format allows; backends
// that can't carry structured headers (bare pub/sub channels) drop them.
type Backend interface {
	Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error
	Close() error
}

// BackendFactoryFunc builds a Backend from a broker-specific config value.
// NewBackend passes rawConfig through unchanged (typically a map decoded
// from YAML); each factory converts it into its backend's own Config type.
type BackendFactoryFunc func(rawConfig any, l *slog.Logger) (Backend, error)

var backendFactories = make(map[Protocol]BackendFactoryFunc)

// RegisterBackendFactory wires a backend implementation's constructor under
// p. Each backend subpackage calls this from an init func, the way the
// teacher's connector/impl/* packages register with writer.RegisterWriterFactory.
func RegisterBackendFactory(p Protocol, factory BackendFactoryFunc) {
	backendFactories[p] = factory
}

// NewBackend dispatches to the factory registered for p. The caller is
// responsible for having imported the matching deadletter/backend/*
// subpackage for its init func to have run.
func NewBackend(p Protocol, rawConfig any, l *slog.Logger) (Backend, error) {
	factory, ok := backendFactories[p]
	if !ok {
		return nil, fmt.Errorf("deadletter: unsupported backend protocol: %s (is its package imported?)", p)
	}
	return factory(rawConfig, l)
}

// sink adapts a Backend to consumer.DeadLetterSink.
type sink struct {
	backend Backend
}

// NewSink wraps backend so it can be passed to consumer.WithDeadLetterSink.
func NewSink(backend Backend) consumer.DeadLetterSink {
	return &sink{backend: backend}
}

func (s *sink) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	return s.backend.Publish(ctx, id, payload, key, properties)
}

// Close releases the underlying backend's resources. Not part of
// consumer.DeadLetterSink; callers that built a Backend directly (rather
// than only holding the consumer.DeadLetterSink interface) should call this
// at application shutdown.
func (s *sink) Close() error {
	return s.backend.Close()
}
