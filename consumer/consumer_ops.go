package consumer

// consumerOpsAdapter implements ConsumerOps for one Consumer, marshaling
// every wire-callback onto the actor's mailbox so ClientCnx's own
// goroutine(s) never touch actor state directly (§5 "the only mutation
// performed on it by the consumer is add_consumer/remove_consumer").
type consumerOpsAdapter[T any] struct {
	c *Consumer[T]
}

func (a consumerOpsAdapter[T]) HandleMessage(raw RawMessage) {
	a.c.enqueue(func() { a.c.handleMessageReceived(raw) })
}

func (a consumerOpsAdapter[T]) HandleActiveConsumerChanged(active bool) {
	a.c.enqueue(func() { a.c.activeConsumer = active })
}

func (a consumerOpsAdapter[T]) HandleReachedEndOfTopic() {
	a.c.enqueue(func() { a.c.reachedEndOfTopic = true })
}

func (a consumerOpsAdapter[T]) HandleConnectionClosed() {
	a.c.enqueue(func() {
		if c := a.c; !c.isClosed() {
			c.logger.Warn("connection closed by peer", "topic", c.conf.Topic)
			c.reconnectLater()
		}
	})
}
