package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredecessorIndividualDecrementsEntry(t *testing.T) {
	im := IdentifiedMessageID{
		ID:   MessageID{LedgerID: 1, EntryID: 5, Partition: 2, BatchIndex: 3},
		Kind: KindIndividual,
	}
	got := predecessor(im)
	assert.Equal(t, MessageID{LedgerID: 1, EntryID: 4, Partition: 2, BatchIndex: 3}, got)
}

func TestPredecessorCumulativeMidBatchDecrementsBatchIndex(t *testing.T) {
	im := IdentifiedMessageID{
		ID:   MessageID{LedgerID: 1, EntryID: 5, Partition: 0, BatchIndex: 2},
		Kind: KindCumulative,
	}
	got := predecessor(im)
	assert.Equal(t, MessageID{LedgerID: 1, EntryID: 5, Partition: 0, BatchIndex: 1}, got)
}

func TestPredecessorCumulativeBatchStartFallsBackToPriorEntry(t *testing.T) {
	im := IdentifiedMessageID{
		ID:   MessageID{LedgerID: 1, EntryID: 5, Partition: 0, BatchIndex: 0},
		Kind: KindCumulative,
	}
	got := predecessor(im)
	assert.Equal(t, MessageID{LedgerID: 1, EntryID: 4, Partition: 0, BatchIndex: -1}, got)
}

func TestClearReceiverQueueDuringSeekWins(t *testing.T) {
	target := MessageID{LedgerID: 9, EntryID: 9, BatchIndex: -1}
	c := &Consumer[string]{
		conf: Config{Mode: SubscriptionNonDurable},
		sub:  &subscriptionState{duringSeek: &target, lastDequeuedMessageID: Earliest},
	}

	got := c.clearReceiverQueue()
	assert.Equal(t, target, *got)
	assert.Nil(t, c.sub.duringSeek)
}

func TestClearReceiverQueueDurableKeepsStartMessageID(t *testing.T) {
	start := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	c := &Consumer[string]{
		conf: Config{Mode: SubscriptionDurable},
		sub:  &subscriptionState{startMessageID: &start, lastDequeuedMessageID: Earliest},
	}

	got := c.clearReceiverQueue()
	assert.Same(t, &start, got)
}

func TestClearReceiverQueueNonDurableWithQueuedHeadReturnsPredecessor(t *testing.T) {
	c := &Consumer[string]{
		conf: Config{Mode: SubscriptionNonDurable},
		sub:  &subscriptionState{lastDequeuedMessageID: Earliest},
	}
	head := newTestMessage(MessageID{LedgerID: 1, EntryID: 5, BatchIndex: -1}, []byte("a"))
	c.queue.push(head)

	got := c.clearReceiverQueue()
	assert.Equal(t, MessageID{LedgerID: 1, EntryID: 4, BatchIndex: -1}, *got)
	assert.Zero(t, c.queue.len())
}

func TestClearReceiverQueueNonDurableEmptyQueueFallsBackToLastDequeued(t *testing.T) {
	last := MessageID{LedgerID: 1, EntryID: 3, BatchIndex: -1}
	c := &Consumer[string]{
		conf: Config{Mode: SubscriptionNonDurable},
		sub:  &subscriptionState{lastDequeuedMessageID: last},
	}

	got := c.clearReceiverQueue()
	assert.Equal(t, last, *got)
}

func TestClearReceiverQueueNonDurableEmptyQueueNoHistoryReturnsStart(t *testing.T) {
	start := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	c := &Consumer[string]{
		conf: Config{Mode: SubscriptionNonDurable},
		sub:  &subscriptionState{startMessageID: &start, lastDequeuedMessageID: Earliest},
	}

	got := c.clearReceiverQueue()
	assert.Same(t, &start, got)
}
