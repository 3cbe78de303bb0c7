package consumer

import "context"

// DeadLetterSink publishes a message that has exceeded its redelivery
// bound onto a dead-letter topic. Construction is external to the core
// (§6); see the top-level deadletter package for the concrete,
// multi-backend implementation this module ships.
type DeadLetterSink interface {
	Publish(ctx context.Context, id MessageID, payload []byte, key string, properties map[string]string) error
}

type deadLetterEntry struct {
	payload    []byte
	key        string
	properties map[string]string
}

// deadLetterProcessor buffers messages whose redelivery count has crossed
// MaxRedeliveryCount, forwards them to a DLQ sink, then acks the original
// (§4.7). Disabled mode (the default) buffers nothing and always reports
// "not mine", so RedeliverUnacknowledged and MessageReceived fall through
// to ordinary redelivery.
type deadLetterProcessor struct {
	enabled            bool
	maxRedeliveryCount uint32
	sink               DeadLetterSink

	buffered map[MessageID]deadLetterEntry
}

func newDeadLetterProcessor(enabled bool, maxRedeliveryCount uint32, sink DeadLetterSink) *deadLetterProcessor {
	return &deadLetterProcessor{
		enabled:            enabled,
		maxRedeliveryCount: maxRedeliveryCount,
		sink:               sink,
		buffered:           make(map[MessageID]deadLetterEntry),
	}
}

// MaybeBuffer records raw for later DLQ forwarding if its redelivery count
// has crossed the configured bound. Returns true if it was buffered.
func (p *deadLetterProcessor) MaybeBuffer(id MessageID, redeliveryCount uint32, payload, key []byte, properties map[string]string) bool {
	if !p.enabled || redeliveryCount < p.maxRedeliveryCount {
		return false
	}
	p.buffered[id] = deadLetterEntry{
		payload:    payload,
		key:        string(key),
		properties: properties,
	}
	return true
}

// IsBuffered reports whether id has crossed the redelivery bound and is
// waiting to be forwarded, without triggering the forward itself.
func (p *deadLetterProcessor) IsBuffered(id MessageID) bool {
	if !p.enabled {
		return false
	}
	_, ok := p.buffered[id]
	return ok
}

// ProcessMessages reports whether id is buffered for dead-lettering; if so
// it publishes to the sink and acks the source via ackFn, then drops the
// buffered entry (§4.7).
func (p *deadLetterProcessor) ProcessMessages(ctx context.Context, id MessageID, ackFn func(MessageID) error) (bool, error) {
	if !p.enabled {
		return false, nil
	}
	entry, ok := p.buffered[id]
	if !ok {
		return false, nil
	}

	if err := p.sink.Publish(ctx, id, entry.payload, entry.key, entry.properties); err != nil {
		return true, err
	}
	if err := ackFn(id); err != nil {
		return true, err
	}
	delete(p.buffered, id)
	return true, nil
}

// Clear drops every buffered entry without forwarding (§4.1 step 3, on
// ConnectionOpened).
func (p *deadLetterProcessor) Clear() {
	p.buffered = make(map[MessageID]deadLetterEntry)
}

func (p *deadLetterProcessor) Close() {
	p.Clear()
}
