package consumer

// hasMoreMessages implements §4.1.f: true if the incoming queue is
// non-empty, or if the broker's last known message id in the topic is
// strictly ahead of what has already been dequeued.
func (c *Consumer[T]) hasMoreMessages() bool {
	if c.queue.len() > 0 {
		return true
	}
	return c.sub.lastMessageIDInBroker.Greater(c.sub.lastDequeuedMessageID)
}

// noteLastMessageIDInBroker records the broker's high-water mark, as
// reported by a GetLastMessageID round trip. Kept separate from ordinary
// delivery bookkeeping since it is queried, not pushed.
func (c *Consumer[T]) noteLastMessageIDInBroker(id MessageID) {
	if id.Greater(c.sub.lastMessageIDInBroker) {
		c.sub.lastMessageIDInBroker = id
	}
}
