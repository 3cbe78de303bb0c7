package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnackedTrackerBucketCount(t *testing.T) {
	tr := newUnackedTracker(30*time.Second, 10*time.Second, nil)
	assert.Len(t, tr.buckets, 3)
}

func TestUnackedTrackerSingleBucketWhenTickTimeZero(t *testing.T) {
	tr := newUnackedTracker(10*time.Second, 0, nil)
	assert.Len(t, tr.buckets, 1)
}

func TestUnackedTrackerTickRedeliversExpiredBucket(t *testing.T) {
	var redelivered []MessageID
	tr := newUnackedTracker(20*time.Millisecond, 10*time.Millisecond, func(ids []MessageID) {
		redelivered = append(redelivered, ids...)
	})

	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	tr.Add(id)
	assert.Equal(t, 1, tr.Len())

	tr.Tick()
	assert.Empty(t, redelivered, "id should still be tracked after one tick of a two-bucket window")

	tr.Tick()
	require.Len(t, redelivered, 1)
	assert.Equal(t, id, redelivered[0])
	assert.Zero(t, tr.Len())
}

func TestUnackedTrackerRemoveClearsTracking(t *testing.T) {
	var redelivered []MessageID
	tr := newUnackedTracker(20*time.Millisecond, 10*time.Millisecond, func(ids []MessageID) {
		redelivered = append(redelivered, ids...)
	})

	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	tr.Add(id)
	tr.Remove(id)

	tr.Tick()
	tr.Tick()
	assert.Empty(t, redelivered)
}

func TestUnackedTrackerRemoveUntilRemovesCumulatively(t *testing.T) {
	tr := newUnackedTracker(time.Second, 0, nil)

	id1 := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	id2 := MessageID{LedgerID: 1, EntryID: 2, BatchIndex: -1}
	id3 := MessageID{LedgerID: 1, EntryID: 3, BatchIndex: -1}
	tr.Add(id1)
	tr.Add(id2)
	tr.Add(id3)

	tr.RemoveUntil(id2)
	assert.Equal(t, 1, tr.Len())
}

func TestUnackedTrackerCloseIsIdempotentAndStopsTicking(t *testing.T) {
	var redelivered []MessageID
	tr := newUnackedTracker(10*time.Millisecond, 10*time.Millisecond, func(ids []MessageID) {
		redelivered = append(redelivered, ids...)
	})

	id := MessageID{LedgerID: 1, EntryID: 1, BatchIndex: -1}
	tr.Add(id)
	tr.Close()
	tr.Close()

	tr.Tick()
	assert.Empty(t, redelivered)
	assert.Zero(t, tr.Len())
}
