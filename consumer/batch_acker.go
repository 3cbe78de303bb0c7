package consumer

import "sync"

// BatchAcker is the shared, interior-mutable bitmap covering every
// sub-message of one broker entry (§4.6, §9 "batch acker sharing"). All
// Messages sharing one entry hold a pointer to the same BatchAcker; it is
// meaningful only while at least one sub-message is still outstanding.
type BatchAcker struct {
	mu sync.Mutex

	entryID    MessageID // the base id (BatchIndex == -1) of the covered entry
	bits       []bool    // bits[i] == true means sub-message i is still unacked
	outstanding int

	prevBatchCumulativelyAcked bool
}

// NewBatchAcker allocates a bitmap for an entry with n sub-messages.
func NewBatchAcker(entryID MessageID, n int) *BatchAcker {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = true
	}
	return &BatchAcker{
		entryID:     entryID,
		bits:        bits,
		outstanding: n,
	}
}

// Outstanding returns the number of sub-messages not yet acked.
func (a *BatchAcker) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outstanding
}

// AckIndividual clears bit i and reports whether every sub-message of the
// entry has now been acked (outstanding == 0), in which case the caller
// should drop its reference to the acker.
func (a *BatchAcker) AckIndividual(i int32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i < 0 || int(i) >= len(a.bits) {
		return a.outstanding == 0
	}
	if a.bits[i] {
		a.bits[i] = false
		a.outstanding--
	}
	return a.outstanding == 0
}

// AckGroup clears bits [0..=i], implementing a cumulative ack within the
// batch. It returns whether the previous-batch crossover ack (§4.6) still
// needs to be issued, and flips prevBatchCumulativelyAcked if so.
func (a *BatchAcker) AckGroup(i int32) (needsPrevBatchAck bool, prevBatchTarget MessageID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for j := int32(0); j <= i && int(j) < len(a.bits); j++ {
		if a.bits[j] {
			a.bits[j] = false
			a.outstanding--
		}
	}

	if !a.prevBatchCumulativelyAcked && i < int32(len(a.bits))-1 {
		// partial cumulative ack within the batch: the previous entry's
		// last sub-message needs its own cumulative ack, once.
		a.prevBatchCumulativelyAcked = true
		return true, prevBatchMessageID(a.entryID)
	}

	return false, MessageID{}
}

// prevBatchMessageID returns the id of the last sub-message of the entry
// preceding cur's entry (§4.6). Since the number of sub-messages in the
// preceding entry is unknown to the acker, callers only need this as the
// target of a cumulative ack, where any BatchIndex on that prior entry is
// accepted by the broker as "all of it".
func prevBatchMessageID(cur MessageID) MessageID {
	return cur.priorEntry()
}
