package consumer

// AckType distinguishes an ack of exactly one id from a cumulative ack of
// everything at-or-before an id.
type AckType int

const (
	AckIndividual AckType = iota
	AckCumulative
)

type PendingAck struct {
	ID   MessageID
	Type AckType
}

// AckSender is the narrow slice of ClientCnx the ack grouping tracker
// needs: send a batched (or singleton) Ack frame on the current connection.
type AckSender interface {
	SendAck(acks []PendingAck) error
}

// ackGroupingTracker coalesces individual acks into a periodic batched Ack
// frame (§4.3). Grouping is enabled when acknowledgements_group_time > 0;
// when it is disabled every ack is sent immediately (a direct
// passthrough). The tracker does not distinguish persistent from
// non-persistent topics: only the group time decides.
type ackGroupingTracker struct {
	sender  AckSender
	enabled bool

	pending  map[MessageID]AckType
	flushed  map[MessageID]struct{} // ids acked in recent flushes (at most maxFlushHistory), for duplicate detection
	order    []MessageID            // insertion order backing `flushed`, bounded
	maxFlushHistory int
}

func newAckGroupingTracker(sender AckSender, enabled bool) *ackGroupingTracker {
	return &ackGroupingTracker{
		sender:          sender,
		enabled:         enabled,
		pending:         make(map[MessageID]AckType),
		flushed:         make(map[MessageID]struct{}),
		maxFlushHistory: 10000,
	}
}

// Add records an ack. If grouping is disabled it is sent immediately.
func (t *ackGroupingTracker) Add(id MessageID, typ AckType) error {
	if !t.enabled {
		return t.sender.SendAck([]PendingAck{{ID: id, Type: typ}})
	}
	t.pending[id] = typ
	return nil
}

// IsDuplicate reports whether id is already pending ack or was acked in a
// recent flush (§4.1.b step 1, duplicate filter).
func (t *ackGroupingTracker) IsDuplicate(id MessageID) bool {
	if _, ok := t.pending[id]; ok {
		return true
	}
	_, ok := t.flushed[id]
	return ok
}

// Flush sends every pending ack as one batched frame (tick-driven, or
// forced on seek/close per §4.1.d/g).
func (t *ackGroupingTracker) Flush() error {
	if len(t.pending) == 0 {
		return nil
	}

	acks := make([]PendingAck, 0, len(t.pending))
	for id, typ := range t.pending {
		acks = append(acks, PendingAck{ID: id, Type: typ})
	}

	if err := t.sender.SendAck(acks); err != nil {
		return err
	}

	for id := range t.pending {
		t.markFlushed(id)
	}
	t.pending = make(map[MessageID]AckType)
	return nil
}

func (t *ackGroupingTracker) markFlushed(id MessageID) {
	if _, ok := t.flushed[id]; ok {
		return
	}
	t.flushed[id] = struct{}{}
	t.order = append(t.order, id)
	if len(t.order) > t.maxFlushHistory {
		drop := t.order[0]
		t.order = t.order[1:]
		delete(t.flushed, drop)
	}
}

// Clear drops all pending and remembered-flushed state, used on seek
// (§4.1.d, "Flush the ack grouping tracker and clear it").
func (t *ackGroupingTracker) Clear() {
	t.pending = make(map[MessageID]AckType)
	t.flushed = make(map[MessageID]struct{})
	t.order = nil
}

// Close flushes any pending acks and releases tracker state (§9 open
// question: an explicit flush-then-close is the recommended, unambiguous
// behavior since the source is silent on it).
func (t *ackGroupingTracker) Close() error {
	err := t.Flush()
	t.Clear()
	return err
}
