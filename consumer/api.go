package consumer

import (
	"context"
	"time"
)

// Receive blocks until a message is available, ctx is cancelled, or the
// consumer closes (§4.1.c).
func (c *Consumer[T]) Receive(ctx context.Context) (*Message[T], error) {
	reply := make(chan receiveResult[T], 1)

	c.enqueue(func() {
		if c.isClosed() {
			reply <- receiveResult[T]{err: ErrAlreadyClosed}
			return
		}
		if m, ok := c.queue.pop(); ok {
			c.sub.lastDequeuedMessageID = m.ID.ID
			c.creditFlow(1)
			reply <- receiveResult[T]{msg: m}
			return
		}
		c.singleWaiters = append(c.singleWaiters, reply)
	})

	select {
	case res := <-reply:
		return res.msg, res.err
	case <-ctx.Done():
		c.enqueue(func() { c.removeSingleWaiter(reply) })
		return nil, ctx.Err()
	}
}

func (c *Consumer[T]) removeSingleWaiter(target chan receiveResult[T]) {
	for i, w := range c.singleWaiters {
		if w == target {
			c.singleWaiters = append(c.singleWaiters[:i], c.singleWaiters[i+1:]...)
			return
		}
	}
}

// BatchReceive blocks until the batch-receive policy's threshold is met or
// its timeout elapses, whichever comes first (§4.1.c).
func (c *Consumer[T]) BatchReceive(ctx context.Context) (Messages[T], error) {
	reply := make(chan batchReceiveResult[T], 1)

	c.enqueue(func() {
		if c.isClosed() {
			reply <- batchReceiveResult[T]{err: ErrAlreadyClosed}
			return
		}
		if c.queue.len() >= c.conf.BatchReceivePolicy.MaxNumMessages ||
			c.queue.byteLen() >= c.conf.BatchReceivePolicy.MaxNumBytes {
			reply <- batchReceiveResult[T]{msgs: c.drainQueueAsBatch()}
			return
		}

		w := &batchWaiter[T]{reply: reply}
		w.timer = time.AfterFunc(c.conf.BatchReceivePolicy.Timeout, func() {
			c.enqueue(func() { c.sendBatchByTimeout(w) })
		})
		c.batchWaiters = append(c.batchWaiters, w)
	})

	select {
	case res := <-reply:
		return res.msgs, res.err
	case <-ctx.Done():
		c.enqueue(func() { c.cancelBatchWaiter(reply) })
		return Messages[T]{}, ctx.Err()
	}
}

func (c *Consumer[T]) cancelBatchWaiter(target chan batchReceiveResult[T]) {
	for i, w := range c.batchWaiters {
		if w.reply == target {
			w.cancel()
			c.batchWaiters = append(c.batchWaiters[:i], c.batchWaiters[i+1:]...)
			return
		}
	}
}

// Acknowledge acks a single message individually (§4.6).
func (c *Consumer[T]) Acknowledge(id IdentifiedMessageID) error {
	return c.doSync(func() error { return c.ackIndividual(id) })
}

// AcknowledgeCumulative acks id and everything preceding it (§4.6).
func (c *Consumer[T]) AcknowledgeCumulative(id IdentifiedMessageID) error {
	return c.doSync(func() error { return c.ackCumulative(id) })
}

// NegativeAcknowledge schedules id for redelivery after
// NegativeAckRedeliveryDelay (§4.5).
func (c *Consumer[T]) NegativeAcknowledge(id MessageID) error {
	return c.doSync(func() error {
		c.negAck.Add(id, time.Now())
		if c.unacked != nil {
			c.unacked.Remove(id)
		}
		return nil
	})
}

// RedeliverUnacknowledged requests redelivery of exactly ids. On a
// subscription type other than Shared/KeyShared this degrades to
// RedeliverAllUnacknowledged, since ordered subscription types cannot
// selectively redeliver mid-stream (§4.1.e).
func (c *Consumer[T]) RedeliverUnacknowledged(ids []MessageID) error {
	return c.doSync(func() error {
		if c.conf.Type != SubscriptionShared && c.conf.Type != SubscriptionKeyShared {
			c.logger.Warn("selective redelivery unsupported for this subscription type, redelivering all")
			return c.doRedeliverAll()
		}
		c.doRedeliver(ids)
		return nil
	})
}

// RedeliverAllUnacknowledged requests redelivery of every unacked message
// currently outstanding (§4.1.e).
func (c *Consumer[T]) RedeliverAllUnacknowledged() error {
	return c.doSync(func() error { return c.doRedeliverAll() })
}

// SeekAsync repositions the subscription cursor (§4.1.d). It returns once
// the broker has answered the seek request (or ctx is done); the new
// resume point takes effect on the next resubscribe.
func (c *Consumer[T]) SeekAsync(ctx context.Context, target SeekTarget) error {
	return c.doSync(func() error { return c.doSeek(ctx, target) })
}

// HasMessageAvailable reports whether at least one more message exists
// beyond what has already been dequeued (§4.1.f). When the queue is empty
// and no fresher broker high-water mark is already known, it performs a
// GetLastMessageID round trip before answering.
func (c *Consumer[T]) HasMessageAvailable(ctx context.Context) (bool, error) {
	type result struct {
		ok  bool
		err error
	}
	reply := make(chan result, 1)

	c.enqueue(func() {
		if c.isClosed() {
			reply <- result{err: ErrAlreadyClosed}
			return
		}
		if c.queue.len() > 0 {
			reply <- result{ok: true}
			return
		}
		if c.hasMoreMessages() {
			reply <- result{ok: true}
			return
		}
		if c.cnx == nil {
			reply <- result{ok: false}
			return
		}

		cnx, id := c.cnx, c.id
		go func() {
			last, err := cnx.SendGetLastMessageID(ctx, id)
			if err != nil {
				reply <- result{err: err}
				return
			}
			c.enqueue(func() {
				c.noteLastMessageIDInBroker(last)
				reply <- result{ok: c.hasMoreMessages()}
			})
		}()
	})

	select {
	case r := <-reply:
		return r.ok, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// GetStats returns a point-in-time snapshot (§6).
func (c *Consumer[T]) GetStats() (Stats, error) {
	reply := make(chan Stats, 1)
	c.enqueue(func() {
		reply <- c.stats.snapshot(c.flow.receiverQueueSize - c.flow.consumed)
	})
	select {
	case s := <-reply:
		return s, nil
	case <-c.done:
		return Stats{}, ErrAlreadyClosed
	}
}

// Close tears the consumer down without removing the subscription from the
// broker (§4.1.g).
func (c *Consumer[T]) Close(ctx context.Context) error {
	return c.stopConsumer(ctx, false)
}

// Unsubscribe tears the consumer down and additionally deletes the
// subscription from the broker (§4.1.g).
func (c *Consumer[T]) Unsubscribe(ctx context.Context) error {
	return c.stopConsumer(ctx, true)
}

// doSync runs fn on the actor loop and waits for it to finish, translating
// closed-consumer races into ErrAlreadyClosed.
func (c *Consumer[T]) doSync(fn func() error) error {
	reply := make(chan error, 1)
	select {
	case c.mailbox <- func() {
		if c.isClosed() {
			reply <- ErrAlreadyClosed
			return
		}
		reply <- fn()
	}:
	case <-c.done:
		return ErrAlreadyClosed
	}
	return <-reply
}
