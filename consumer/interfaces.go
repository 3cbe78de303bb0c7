package consumer

import "log/slog"

// Decoder decodes a raw payload into T. The core never inspects payload
// bytes itself beyond handing them to a Decoder (§1).
type Decoder[T any] func(payload []byte) (T, error)

// SchemaProvider resolves the decoder to use for a message, optionally by
// schema version (§1, §4.1.b). See package schema for the shipped
// sonic-backed JSON implementation.
type SchemaProvider[T any] interface {
	BaseDecoder() Decoder[T]
	DecoderForVersion(version []byte) (Decoder[T], bool)
}

// Interceptor is invoked at fixed hook points (§1, §4.1.c "before_consume
// interceptor"). See internal/observability.ConsumerInterceptor for the shipped otel-backed
// implementation.
type Interceptor interface {
	BeforeConsume(topic string, id MessageID)
}

type noopInterceptor struct{}

func (noopInterceptor) BeforeConsume(string, MessageID) {}

// Option configures a Consumer at construction, following the teacher's
// functional-option pattern (client.Option).
type Option[T any] func(*Consumer[T])

func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(c *Consumer[T]) { c.logger = l }
}

func WithSchemaProvider[T any](p SchemaProvider[T]) Option[T] {
	return func(c *Consumer[T]) { c.schema = p }
}

func WithInterceptor[T any](i Interceptor) Option[T] {
	return func(c *Consumer[T]) { c.interceptor = i }
}

func WithStatsRecorder[T any](r StatsRecorder) Option[T] {
	return func(c *Consumer[T]) { c.statsRecorder = r }
}

func WithDeadLetterSink[T any](s DeadLetterSink) Option[T] {
	return func(c *Consumer[T]) { c.dlqSink = s }
}

// WithConsumerName sets the consumer name advertised on Subscribe.
func WithConsumerName[T any](name string) Option[T] {
	return func(c *Consumer[T]) { c.consumerName = name }
}

// MessageListener is a push-mode delivery callback (§5's "push mode" row).
// It runs off the actor loop, on a pooled goroutine, exactly the way the
// teacher's Subscriber runs its Async handler on an ants pool: the actor
// never blocks on application code.
type MessageListener[T any] func(*Message[T])

// WithMessageListener switches the consumer into push mode: every message
// is handed to fn on an ants pool goroutine instead of being queued for
// Receive/BatchReceive. poolSize bounds concurrent in-flight deliveries.
func WithMessageListener[T any](fn MessageListener[T], poolSize int) Option[T] {
	return func(c *Consumer[T]) {
		c.listener = fn
		c.listenerPoolSize = poolSize
	}
}
