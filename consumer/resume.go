package consumer

// clearReceiverQueue implements §4.1.a: decide what resume MessageID to
// tell the broker on (re)subscribe, then empty the queue.
//
// Rule order:
//  1. If the queue is non-empty, remember the head id, discard the rest.
//  2. If duringSeek holds a value, it wins (cleared after use).
//  3. Durable subscriptions: return startMessageID unchanged, broker owns
//     the cursor.
//  4. Otherwise, if there was a remembered head, return its predecessor.
//  5. Otherwise, if lastDequeuedMessageID != Earliest, return it.
//  6. Otherwise, return startMessageID (possibly nil).
func (c *Consumer[T]) clearReceiverQueue() *MessageID {
	var head *Message[T]
	if h, ok := c.queue.pop(); ok {
		head = h
	}
	c.queue.clear()

	if c.sub.duringSeek != nil {
		target := *c.sub.duringSeek
		c.sub.duringSeek = nil
		return &target
	}

	if c.conf.durable() {
		return c.sub.startMessageID
	}

	if head != nil {
		p := predecessor(head.ID)
		return &p
	}

	if !c.sub.lastDequeuedMessageID.Equal(Earliest) {
		id := c.sub.lastDequeuedMessageID
		return &id
	}

	return c.sub.startMessageID
}

// predecessor returns the id immediately preceding im, so that
// resubscribing from it re-delivers im onward.
//
// §9 open question: the source's rule for Cumulative(0, _) would produce
// Cumulative(-1, _), which is not a meaningful sub-index. We resolve this
// by falling through to the "prior entry, last sub-message" case, i.e.
// treating index 0 the same as the Individual case on the previous entry.
func predecessor(im IdentifiedMessageID) MessageID {
	id := im.ID
	if im.Kind == KindCumulative {
		if id.BatchIndex > 0 {
			return MessageID{
				LedgerID:   id.LedgerID,
				EntryID:    id.EntryID,
				Partition:  id.Partition,
				BatchIndex: id.BatchIndex - 1,
			}
		}
		return MessageID{
			LedgerID:   id.LedgerID,
			EntryID:    id.EntryID - 1,
			Partition:  id.Partition,
			BatchIndex: -1,
		}
	}

	return MessageID{
		LedgerID:   id.LedgerID,
		EntryID:    id.EntryID - 1,
		Partition:  id.Partition,
		BatchIndex: id.BatchIndex,
	}
}
