package consumer

import "context"

// doSeek implements §4.1.d: flush and clear the ack grouping tracker,
// clear the incoming queue, mark duringSeek so the next resubscribe's
// clearReceiverQueue treats the target as the resume point, and forward
// the request. Seek never forces a reconnect.
func (c *Consumer[T]) doSeek(ctx context.Context, target SeekTarget) error {
	if c.cnx == nil {
		return ErrNotConnected
	}
	if target.Timestamp == nil && target.ID == nil {
		return newErr(ErrKindUnknown, "seek target must set exactly one of Timestamp or ID", nil)
	}

	if err := c.acks.Close(); err != nil {
		c.logger.Warn("ack flush before seek failed", "error", err)
	}
	n := c.queue.clear()
	c.creditFlow(int32(n))

	if target.ID != nil {
		id := *target.ID
		c.sub.duringSeek = &id
		return c.cnx.SendSeekByMsgID(ctx, c.id, id)
	}

	// A timestamp-based seek's resulting id is not known until the broker
	// replies with the next delivery; duringSeek stays nil. Either way the
	// tail-prefix filter in handleMessageReceived only sees the new resume
	// point once clearReceiverQueue folds duringSeek into start_message_id
	// on the next ConnectionOpened -- seeking never forces a reconnect.
	return c.cnx.SendSeekByTimestamp(ctx, c.id, *target.Timestamp)
}
