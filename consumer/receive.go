package consumer

// deliverOrEnqueue implements the §4.1.c fast path: if a Receive caller is
// already waiting, hand the message straight to it; otherwise it joins the
// incoming queue for a later Receive/BatchReceive call to pick up. After
// enqueueing it also tries to satisfy the oldest pending batch waiter.
func (c *Consumer[T]) deliverOrEnqueue(msg *Message[T]) {
	if c.listener != nil {
		c.sub.lastDequeuedMessageID = msg.ID.ID
		listener := c.listener
		c.creditFlow(1)
		if err := c.listenerPool.Submit(func() { listener(msg) }); err != nil {
			c.logger.Warn("listener pool submit failed", "error", err)
		}
		return
	}

	if len(c.singleWaiters) > 0 {
		w := c.singleWaiters[0]
		c.singleWaiters = c.singleWaiters[1:]
		c.sub.lastDequeuedMessageID = msg.ID.ID
		c.creditFlow(1)
		w <- receiveResult[T]{msg: msg}
		close(w)
		return
	}
	c.queue.push(msg)
	c.drainBatchWaiters()
}

// drainBatchWaiters satisfies any batch waiter whose threshold
// (max_num_messages / max_num_bytes) the queue now meets.
func (c *Consumer[T]) drainBatchWaiters() {
	for len(c.batchWaiters) > 0 {
		w := c.batchWaiters[0]
		if w.cancelled {
			c.batchWaiters = c.batchWaiters[1:]
			continue
		}
		if c.queue.len() == 0 {
			return
		}
		if c.queue.len() < c.conf.BatchReceivePolicy.MaxNumMessages &&
			c.queue.byteLen() < c.conf.BatchReceivePolicy.MaxNumBytes {
			return
		}
		c.batchWaiters = c.batchWaiters[1:]
		w.cancel()
		w.reply <- batchReceiveResult[T]{msgs: c.drainQueueAsBatch()}
	}
}

// SendBatchByTimeout fires when a batch waiter's timer elapses (§4.1.c):
// whatever is in the queue right now, even an empty batch, is returned.
func (c *Consumer[T]) sendBatchByTimeout(w *batchWaiter[T]) {
	if w.cancelled {
		return
	}
	idx := -1
	for i, ww := range c.batchWaiters {
		if ww == w {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	c.batchWaiters = append(c.batchWaiters[:idx], c.batchWaiters[idx+1:]...)
	w.cancel()
	w.reply <- batchReceiveResult[T]{msgs: c.drainQueueAsBatch()}
}

// drainQueueAsBatch implements §4.1.c's batch drain: pop messages in order,
// stopping (without popping) once the next peeked message would push the
// batch past max_num_messages or max_num_bytes. The remainder stays queued
// for the next Receive/BatchReceive call.
func (c *Consumer[T]) drainQueueAsBatch() Messages[T] {
	policy := c.conf.BatchReceivePolicy
	var out Messages[T]
	for {
		m, ok := c.queue.peek()
		if !ok {
			break
		}
		if out.Len() > 0 &&
			(out.Len()+1 > policy.MaxNumMessages || out.Bytes()+len(m.PayloadBytes) > policy.MaxNumBytes) {
			break
		}
		c.queue.pop()
		c.sub.lastDequeuedMessageID = m.ID.ID
		c.creditFlow(1)
		out.Add(m)
	}
	return out
}

// drainWaiters flushes every pending Receive/BatchReceive caller with err,
// used on disconnect (so callers don't hang past OperationTimeout waiting
// on a queue that will never fill from this connection) and on close.
func (c *Consumer[T]) drainWaiters(err error) {
	for _, w := range c.singleWaiters {
		w <- receiveResult[T]{err: err}
		close(w)
	}
	c.singleWaiters = nil

	for _, w := range c.batchWaiters {
		if w.cancelled {
			continue
		}
		w.cancel()
		w.reply <- batchReceiveResult[T]{err: err}
	}
	c.batchWaiters = nil
}

func (c *Consumer[T]) creditFlow(n int32) {
	if n <= 0 || c.cnx == nil {
		return
	}
	if toSend, ok := c.flow.increase(n); ok {
		if err := c.cnx.SendFlow(c.id, toSend); err != nil {
			c.logger.Warn("flow send failed", "error", err)
		}
	}
}
