package consumer

import "time"

// RedeliverFunc is invoked with ids whose ack-timeout bucket has just
// rotated out (§4.4). It should post RedeliverUnacknowledged to the
// session actor; the tracker itself never sends wire frames.
type RedeliverFunc func(ids []MessageID)

// unackedTracker partitions tracked ids into time buckets of width
// tickWidth (ack_timeout_tick_time, or ack_timeout itself when the tick is
// 0, giving a single bucket). On each Tick, the bucket that rotates out of
// the window is handed to onTimeout. add/remove/removeUntil/clear/close are
// idempotent, matching the spec's public contract.
type unackedTracker struct {
	tickWidth time.Duration
	buckets   []map[MessageID]struct{}
	cur       int
	location  map[MessageID]int
	onTimeout RedeliverFunc
	closed    bool
}

// newUnackedTracker builds a tracker with numBuckets == ceil(ackTimeout /
// tickWidth), at least 1. ackTimeout <= 0 disables tracking: NewConsumer
// then constructs no tracker and leaves Consumer.unacked nil.
func newUnackedTracker(ackTimeout, tickTime time.Duration, onTimeout RedeliverFunc) *unackedTracker {
	width := tickTime
	if width <= 0 {
		width = ackTimeout
	}
	if width <= 0 {
		width = ackTimeout
	}
	n := 1
	if width > 0 && ackTimeout > width {
		n = int((ackTimeout + width - 1) / width)
	}
	if n < 1 {
		n = 1
	}

	buckets := make([]map[MessageID]struct{}, n)
	for i := range buckets {
		buckets[i] = make(map[MessageID]struct{})
	}

	return &unackedTracker{
		tickWidth: width,
		buckets:   buckets,
		location:  make(map[MessageID]int),
		onTimeout: onTimeout,
	}
}

func (t *unackedTracker) Add(id MessageID) {
	if t.closed {
		return
	}
	if bi, ok := t.location[id]; ok {
		delete(t.buckets[bi], id)
	}
	t.buckets[t.cur][id] = struct{}{}
	t.location[id] = t.cur
}

func (t *unackedTracker) Remove(id MessageID) {
	bi, ok := t.location[id]
	if !ok {
		return
	}
	delete(t.buckets[bi], id)
	delete(t.location, id)
}

// RemoveUntil removes every tracked id <= cutoff (a cumulative ack).
func (t *unackedTracker) RemoveUntil(cutoff MessageID) {
	for id := range t.location {
		if id.LessOrEqual(cutoff) {
			t.Remove(id)
		}
	}
}

// Tick rotates the bucket window by one tickWidth, handing off ids in the
// bucket that just fell out of the window to onTimeout.
func (t *unackedTracker) Tick() {
	if t.closed || len(t.buckets) == 0 {
		return
	}

	next := (t.cur + 1) % len(t.buckets)
	expired := t.buckets[next]
	t.buckets[next] = make(map[MessageID]struct{})
	t.cur = next

	if len(expired) == 0 {
		return
	}
	ids := make([]MessageID, 0, len(expired))
	for id := range expired {
		ids = append(ids, id)
		delete(t.location, id)
	}
	if t.onTimeout != nil {
		t.onTimeout(ids)
	}
}

func (t *unackedTracker) Clear() {
	for i := range t.buckets {
		t.buckets[i] = make(map[MessageID]struct{})
	}
	t.location = make(map[MessageID]int)
}

func (t *unackedTracker) Close() {
	if t.closed {
		return
	}
	t.Clear()
	t.closed = true
}

func (t *unackedTracker) Len() int { return len(t.location) }
