package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/brokerclient/go-consumer/consumer"
)

// ConsumerInterceptor implements consumer.Interceptor over the package's
// otel tracer, mirroring how the teacher wraps gateway operations in spans
// rooted at Tracer(). BeforeConsume has no context of its own to carry a
// span through, so it records a zero-duration span per delivery, matching
// the interceptor hook's fire-and-forget contract (§4.1.c).
type ConsumerInterceptor struct{}

func NewConsumerInterceptor() *ConsumerInterceptor {
	return &ConsumerInterceptor{}
}

func (ConsumerInterceptor) BeforeConsume(topic string, id consumer.MessageID) {
	if !TracingEnabled() {
		return
	}
	_, span := Tracer().Start(context.Background(), "consumer.before_consume")
	span.SetAttributes(
		attribute.String("messaging.destination", topic),
		attribute.Int64("messaging.fujin.ledger_id", id.LedgerID),
		attribute.Int64("messaging.fujin.entry_id", id.EntryID),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

var _ consumer.Interceptor = ConsumerInterceptor{}
