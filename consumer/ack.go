package consumer

// ackIndividual records id as acked, stops tracking it for redelivery, and
// updates stats (§4.6). Batched ids clear their bit in the shared
// BatchAcker; the acker is dropped once every sub-message of its entry has
// been acked.
func (c *Consumer[T]) ackIndividual(im IdentifiedMessageID) error {
	if im.Kind == KindCumulative && im.Acker != nil {
		im.Acker.AckIndividual(im.ID.BatchIndex)
		c.releaseBatchAckerIfDone(im.ID, im.Acker)
	}

	if err := c.acks.Add(im.ID, AckIndividual); err != nil {
		return err
	}
	if c.unacked != nil {
		c.unacked.Remove(im.ID)
	}
	c.statsRecorder.IncAcksSent()
	c.stats.onAckSent()
	return nil
}

// ackCumulative acks id and everything before it (§4.6).
func (c *Consumer[T]) ackCumulative(im IdentifiedMessageID) error {
	if im.Kind == KindCumulative && im.Acker != nil {
		needsPrev, prevTarget := im.Acker.AckGroup(im.ID.BatchIndex)
		if needsPrev {
			if err := c.acks.Add(prevTarget, AckCumulative); err != nil {
				return err
			}
			if c.unacked != nil {
				c.unacked.RemoveUntil(prevTarget)
			}
		}
		c.releaseBatchAckerIfDone(im.ID, im.Acker)
	}

	if err := c.acks.Add(im.ID, AckCumulative); err != nil {
		return err
	}
	if c.unacked != nil {
		c.unacked.RemoveUntil(im.ID)
	}
	c.statsRecorder.IncAcksSent()
	c.stats.onAckSent()
	return nil
}

// ackByRawID acks a plain MessageID with no batch context, used by the
// dead-letter processor's forward-then-ack path (§4.7) where only the raw
// id is known.
func (c *Consumer[T]) ackByRawID(id MessageID) error {
	return c.ackIndividual(IdentifiedMessageID{ID: id, Kind: KindIndividual})
}

// onAckTimeout is the unackedTracker's RedeliverFunc: ids whose ack
// deadline just elapsed are redelivered exactly as an explicit
// RedeliverUnacknowledged call would (§4.4).
func (c *Consumer[T]) onAckTimeout(ids []MessageID) {
	if len(ids) == 0 || !c.isReady() {
		return
	}
	c.logger.Debug("ack timeout, redelivering", "count", len(ids))
	c.doRedeliver(ids)
}
