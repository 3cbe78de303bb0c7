package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAckSender struct {
	sent [][]PendingAck
	err  error
}

func (f *fakeAckSender) SendAck(acks []PendingAck) error {
	f.sent = append(f.sent, acks)
	return f.err
}

func TestAckGroupingTrackerDisabledSendsImmediately(t *testing.T) {
	sender := &fakeAckSender{}
	tr := newAckGroupingTracker(sender, false)

	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	require.NoError(t, tr.Add(id, AckIndividual))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []PendingAck{{ID: id, Type: AckIndividual}}, sender.sent[0])
}

func TestAckGroupingTrackerEnabledBuffersUntilFlush(t *testing.T) {
	sender := &fakeAckSender{}
	tr := newAckGroupingTracker(sender, true)

	id1 := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	id2 := MessageID{LedgerID: 1, EntryID: 2, BatchIndex: -1}
	require.NoError(t, tr.Add(id1, AckIndividual))
	require.NoError(t, tr.Add(id2, AckCumulative))

	assert.Empty(t, sender.sent)
	assert.True(t, tr.IsDuplicate(id1))

	require.NoError(t, tr.Flush())
	require.Len(t, sender.sent, 1)
	assert.ElementsMatch(t, []PendingAck{{ID: id1, Type: AckIndividual}, {ID: id2, Type: AckCumulative}}, sender.sent[0])

	// second flush with nothing pending is a no-op
	require.NoError(t, tr.Flush())
	assert.Len(t, sender.sent, 1)
}

func TestAckGroupingTrackerRemembersFlushedForDuplicateDetection(t *testing.T) {
	sender := &fakeAckSender{}
	tr := newAckGroupingTracker(sender, true)

	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	require.NoError(t, tr.Add(id, AckIndividual))
	require.NoError(t, tr.Flush())

	assert.True(t, tr.IsDuplicate(id))
}

func TestAckGroupingTrackerClearDropsPendingAndFlushed(t *testing.T) {
	sender := &fakeAckSender{}
	tr := newAckGroupingTracker(sender, true)

	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	require.NoError(t, tr.Add(id, AckIndividual))
	require.NoError(t, tr.Flush())
	require.True(t, tr.IsDuplicate(id))

	tr.Clear()
	assert.False(t, tr.IsDuplicate(id))
}

func TestAckGroupingTrackerCloseFlushesThenClears(t *testing.T) {
	sender := &fakeAckSender{}
	tr := newAckGroupingTracker(sender, true)

	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	require.NoError(t, tr.Add(id, AckIndividual))

	require.NoError(t, tr.Close())
	assert.Len(t, sender.sent, 1)
	assert.False(t, tr.IsDuplicate(id))
}
