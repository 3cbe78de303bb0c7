package consumer

import "fmt"

// MessageID is the ordering key for a delivered message: a totally ordered
// tuple over (LedgerID, EntryID, Partition, BatchIndex). BatchIndex == -1
// denotes a non-batched entry.
type MessageID struct {
	LedgerID   int64
	EntryID    int64
	Partition  int32
	BatchIndex int32
}

// Earliest is the sentinel id preceding every real id.
var Earliest = MessageID{LedgerID: -1, EntryID: -1, Partition: -1, BatchIndex: -1}

// Latest is the sentinel id following every real id.
var Latest = MessageID{LedgerID: 1<<63 - 1, EntryID: 1<<63 - 1, Partition: -1, BatchIndex: -1}

// Compare orders ids lexicographically on (LedgerID, EntryID, BatchIndex),
// matching the wire semantics: partition never participates, since a
// MessageID is only ever compared within one partition's stream.
func (a MessageID) Compare(b MessageID) int {
	if a.LedgerID != b.LedgerID {
		return cmpInt64(a.LedgerID, b.LedgerID)
	}
	if a.EntryID != b.EntryID {
		return cmpInt64(a.EntryID, b.EntryID)
	}
	return cmpInt32(a.BatchIndex, b.BatchIndex)
}

func (a MessageID) Less(b MessageID) bool         { return a.Compare(b) < 0 }
func (a MessageID) LessOrEqual(b MessageID) bool  { return a.Compare(b) <= 0 }
func (a MessageID) Greater(b MessageID) bool      { return a.Compare(b) > 0 }
func (a MessageID) GreaterOrEqual(b MessageID) bool { return a.Compare(b) >= 0 }
func (a MessageID) Equal(b MessageID) bool        { return a.Compare(b) == 0 }

func (a MessageID) String() string {
	return fmt.Sprintf("(%d:%d:%d:%d)", a.LedgerID, a.EntryID, a.Partition, a.BatchIndex)
}

// SameEntry reports whether a and b address the same broker entry
// (ledger, entry), ignoring batch index.
func (a MessageID) SameEntry(b MessageID) bool {
	return a.LedgerID == b.LedgerID && a.EntryID == b.EntryID
}

// priorEntry returns the id of the entry immediately preceding a's entry,
// with BatchIndex -1. Used to compute cumulative-ack crossovers between
// batches (§4.6).
func (a MessageID) priorEntry() MessageID {
	return MessageID{
		LedgerID:   a.LedgerID,
		EntryID:    a.EntryID - 1,
		Partition:  a.Partition,
		BatchIndex: -1,
	}
}

// IDKind distinguishes a plain, non-batched delivery from one that is part
// of a batch and shares a BatchAcker with its siblings.
type IDKind int

const (
	KindIndividual IDKind = iota
	KindCumulative
)

// IdentifiedMessageID pairs a MessageID with its kind and, for batched
// deliveries, the shared acker covering the rest of the entry.
type IdentifiedMessageID struct {
	ID     MessageID
	Kind   IDKind
	Acker  *BatchAcker // non-nil iff Kind == KindCumulative
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
