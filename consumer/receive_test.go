package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRedeliverCnx struct {
	flowPermits      []int32
	redeliverBatches [][]MessageID
}

func (f *fakeRedeliverCnx) AddConsumer(ConsumerID, ConsumerOps) {}
func (f *fakeRedeliverCnx) RemoveConsumer(ConsumerID)           {}

func (f *fakeRedeliverCnx) SendSubscribe(context.Context, SubscribeRequest) (SubscribeResponse, error) {
	return SubscribeResponse{}, nil
}

func (f *fakeRedeliverCnx) SendFlow(ConsumerID, int32) error { return nil }

func (f *fakeRedeliverCnx) SendAck(ConsumerID, []PendingAck) error { return nil }

func (f *fakeRedeliverCnx) SendRedeliverUnacknowledged(id ConsumerID, ids []MessageID) error {
	f.redeliverBatches = append(f.redeliverBatches, ids)
	return nil
}

func (f *fakeRedeliverCnx) SendRedeliverAllUnacknowledged(ConsumerID) error { return nil }

func (f *fakeRedeliverCnx) SendSeekByMsgID(context.Context, ConsumerID, MessageID) error { return nil }

func (f *fakeRedeliverCnx) SendSeekByTimestamp(context.Context, ConsumerID, uint64) error { return nil }

func (f *fakeRedeliverCnx) SendGetLastMessageID(context.Context, ConsumerID) (MessageID, error) {
	return MessageID{}, nil
}

func (f *fakeRedeliverCnx) SendCloseConsumer(context.Context, ConsumerID) error { return nil }
func (f *fakeRedeliverCnx) SendUnsubscribe(context.Context, ConsumerID) error   { return nil }
func (f *fakeRedeliverCnx) IsReady() bool                                      { return true }

func newTestConsumer(receiverQueueSize int32) (*Consumer[string], *fakeRedeliverCnx) {
	cnx := &fakeRedeliverCnx{}
	c := &Consumer[string]{
		conf:            Config{BatchReceivePolicy: BatchReceivePolicy{MaxNumMessages: 100, MaxNumBytes: 1 << 20}},
		sub:             &subscriptionState{lastDequeuedMessageID: Earliest},
		dlq:             newDeadLetterProcessor(false, 0, nil),
		openBatchAckers: make(map[batchEntryKey]*BatchAcker),
		flow:            newFlowController(receiverQueueSize),
		acks:            newAckGroupingTracker(cnxAckSender{cnx: cnx}, false),
		cnx:             cnx,
		statsRecorder:   noopStatsRecorder{},
		logger:          testLogger(),
		mailbox:         make(chan func(), 8),
		done:            make(chan struct{}),
	}
	return c, cnx
}

func TestDrainQueueAsBatchStopsAtMaxNumMessages(t *testing.T) {
	c, _ := newTestConsumer(100)
	c.conf.BatchReceivePolicy = BatchReceivePolicy{MaxNumMessages: 2, MaxNumBytes: 1 << 20}
	c.queue.push(newTestMessage(MessageID{EntryID: 1, BatchIndex: -1}, []byte("a")))
	c.queue.push(newTestMessage(MessageID{EntryID: 2, BatchIndex: -1}, []byte("b")))
	c.queue.push(newTestMessage(MessageID{EntryID: 3, BatchIndex: -1}, []byte("c")))

	got := c.drainQueueAsBatch()

	assert.Equal(t, 2, got.Len())
	assert.Equal(t, 1, c.queue.len())
}

func TestDrainQueueAsBatchStopsAtMaxNumBytes(t *testing.T) {
	c, _ := newTestConsumer(100)
	c.conf.BatchReceivePolicy = BatchReceivePolicy{MaxNumMessages: 100, MaxNumBytes: 5}
	c.queue.push(newTestMessage(MessageID{EntryID: 1, BatchIndex: -1}, []byte("aaa")))
	c.queue.push(newTestMessage(MessageID{EntryID: 2, BatchIndex: -1}, []byte("bbb")))

	got := c.drainQueueAsBatch()

	assert.Equal(t, 1, got.Len())
	assert.Equal(t, 1, c.queue.len())
}

func TestDrainQueueAsBatchAlwaysTakesAtLeastOneMessage(t *testing.T) {
	c, _ := newTestConsumer(100)
	c.conf.BatchReceivePolicy = BatchReceivePolicy{MaxNumMessages: 100, MaxNumBytes: 1}
	c.queue.push(newTestMessage(MessageID{EntryID: 1, BatchIndex: -1}, []byte("aaaa")))

	got := c.drainQueueAsBatch()

	assert.Equal(t, 1, got.Len())
	assert.Zero(t, c.queue.len())
}

func TestDeliverOrEnqueueCreditsFlowOnDirectHandoffToWaiter(t *testing.T) {
	c, _ := newTestConsumer(100)
	waiter := make(chan receiveResult[string], 1)
	c.singleWaiters = append(c.singleWaiters, waiter)

	msg := newTestMessage(MessageID{EntryID: 1, BatchIndex: -1}, []byte("a"))
	c.deliverOrEnqueue(msg)

	result := <-waiter
	require.NoError(t, result.err)
	assert.Same(t, msg, result.msg)
	assert.Equal(t, MessageID{EntryID: 1, BatchIndex: -1}, c.sub.lastDequeuedMessageID)
	// receiverQueueSize=100, threshold=50: one credited permit isn't enough
	// to trigger a Flow send yet, but it must have been counted at all.
	assert.EqualValues(t, 1, c.flow.consumed)
}
