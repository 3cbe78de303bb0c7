package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDLQSink struct {
	published []MessageID
	err       error
}

func (s *fakeDLQSink) Publish(ctx context.Context, id MessageID, payload []byte, key string, properties map[string]string) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, id)
	return nil
}

func TestDeadLetterProcessorDisabledNeverBuffers(t *testing.T) {
	p := newDeadLetterProcessor(false, 3, &fakeDLQSink{})
	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}

	assert.False(t, p.MaybeBuffer(id, 10, []byte("payload"), nil, nil))

	handled, err := p.ProcessMessages(context.Background(), id, func(MessageID) error { return nil })
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestDeadLetterProcessorBuffersOnlyAtOrAboveThreshold(t *testing.T) {
	p := newDeadLetterProcessor(true, 3, &fakeDLQSink{})
	below := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	at := MessageID{LedgerID: 1, EntryID: 2, BatchIndex: -1}

	assert.False(t, p.MaybeBuffer(below, 2, []byte("payload"), nil, nil))
	assert.True(t, p.MaybeBuffer(at, 3, []byte("payload"), nil, nil))
}

func TestDeadLetterProcessorProcessMessagesPublishesAndAcks(t *testing.T) {
	sink := &fakeDLQSink{}
	p := newDeadLetterProcessor(true, 1, sink)
	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	p.MaybeBuffer(id, 1, []byte("payload"), []byte("key"), map[string]string{"a": "b"})

	var acked MessageID
	handled, err := p.ProcessMessages(context.Background(), id, func(got MessageID) error {
		acked = got
		return nil
	})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, id, acked)
	assert.Equal(t, []MessageID{id}, sink.published)

	// entry is dropped after successful processing, second call reports not-mine
	handled, err = p.ProcessMessages(context.Background(), id, func(MessageID) error { return nil })
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestDeadLetterProcessorProcessMessagesReportsPublishError(t *testing.T) {
	sink := &fakeDLQSink{err: errors.New("broker unavailable")}
	p := newDeadLetterProcessor(true, 1, sink)
	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	p.MaybeBuffer(id, 1, []byte("payload"), nil, nil)

	handled, err := p.ProcessMessages(context.Background(), id, func(MessageID) error { return nil })
	assert.True(t, handled)
	assert.Error(t, err)
}

func TestDeadLetterProcessorIsBufferedReflectsMaybeBufferAndProcessMessages(t *testing.T) {
	p := newDeadLetterProcessor(true, 1, &fakeDLQSink{})
	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}

	assert.False(t, p.IsBuffered(id))

	p.MaybeBuffer(id, 1, []byte("payload"), nil, nil)
	assert.True(t, p.IsBuffered(id))

	_, err := p.ProcessMessages(context.Background(), id, func(MessageID) error { return nil })
	require.NoError(t, err)
	assert.False(t, p.IsBuffered(id))
}

func TestDeadLetterProcessorIsBufferedFalseWhenDisabled(t *testing.T) {
	p := newDeadLetterProcessor(false, 1, &fakeDLQSink{})
	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}

	p.MaybeBuffer(id, 1, []byte("payload"), nil, nil)
	assert.False(t, p.IsBuffered(id))
}

func TestDeadLetterProcessorClearDropsBufferedWithoutForwarding(t *testing.T) {
	sink := &fakeDLQSink{}
	p := newDeadLetterProcessor(true, 1, sink)
	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	p.MaybeBuffer(id, 1, []byte("payload"), nil, nil)

	p.Clear()

	handled, err := p.ProcessMessages(context.Background(), id, func(MessageID) error { return nil })
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, sink.published)
}
