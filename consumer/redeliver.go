package consumer

import "context"

// doRedeliver implements the selective branch of §4.1.e: purge any
// contiguous queue head covered by ids, crediting their permits back, then
// split the rest between ids that have crossed the dead-letter bound
// (forwarded to the sink and acked instead of redelivered) and the ones
// still sent to the broker, chunked to at most 1000 ids per frame.
func (c *Consumer[T]) doRedeliver(ids []MessageID) {
	if len(ids) == 0 || c.cnx == nil {
		return
	}

	set := make(map[MessageID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	removed := c.queue.removeContiguousHead(func(id MessageID) bool {
		_, ok := set[id]
		return ok
	})
	c.creditFlow(int32(removed))

	toRedeliver := make([]MessageID, 0, len(ids))
	for _, id := range ids {
		if c.dlq.IsBuffered(id) {
			c.forwardDeadLetterAsync(id)
			continue
		}
		toRedeliver = append(toRedeliver, id)
	}
	if len(toRedeliver) == 0 {
		return
	}

	const maxPerFrame = 1000
	pending := toRedeliver
	for len(pending) > 0 {
		n := maxPerFrame
		if n > len(pending) {
			n = len(pending)
		}
		if err := c.cnx.SendRedeliverUnacknowledged(c.id, pending[:n]); err != nil {
			c.logger.Warn("redeliver send failed", "error", err)
			return
		}
		pending = pending[n:]
	}
}

// forwardDeadLetterAsync publishes a buffered dead-letter entry off the
// actor loop (it may block on network I/O), then posts the resulting ack
// back onto the mailbox (§4.7). The message was already delivered to the
// application at receive time, so this credits no permit of its own.
func (c *Consumer[T]) forwardDeadLetterAsync(id MessageID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.conf.OperationTimeout)
		defer cancel()

		ackFn := func(id MessageID) error {
			done := make(chan error, 1)
			c.enqueue(func() {
				err := c.ackByRawID(id)
				if err == nil {
					delete(c.dlq.buffered, id)
				}
				done <- err
			})
			return <-done
		}

		if _, err := c.dlq.ProcessMessages(ctx, id, ackFn); err != nil {
			c.logger.Warn("dead letter forward failed", "id", id.String(), "error", err)
		}
	}()
}

// doRedeliverAll implements the full-clear branch of §4.1.e: drop the
// entire incoming queue, credit its permits back, clear unacked tracking,
// and ask the broker to redeliver everything outstanding.
func (c *Consumer[T]) doRedeliverAll() error {
	if c.cnx == nil {
		return ErrNotConnected
	}
	n := c.queue.clear()
	c.creditFlow(int32(n))
	if c.unacked != nil {
		c.unacked.Clear()
	}
	return c.cnx.SendRedeliverAllUnacknowledged(c.id)
}
