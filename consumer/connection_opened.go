package consumer

import (
	"context"
	"time"
)

// handleConnectionOpened implements §4.1.a: register on the fresh cnx,
// compute the resume point, send Subscribe, and on success arm flow
// control; runs entirely on the actor loop.
func (c *Consumer[T]) handleConnectionOpened(ctx context.Context, cnx ClientCnx) {
	if c.isClosed() {
		return
	}

	resume := c.clearReceiverQueue()
	c.sub.startMessageID = resume
	c.dlq.Clear()
	c.drainWaiters(ErrNotConnected)

	cnx.AddConsumer(c.id, consumerOpsAdapter[T]{c: c})
	c.cnx = cnx
	c.acks.sender = cnxAckSender{cnx: cnx, id: c.id}

	rollback := time.Duration(0)
	if c.sub.initialStartMessageID != nil && resume != nil && resume.Equal(*c.sub.initialStartMessageID) {
		rollback = c.conf.StartMessageRollbackDuration
	}

	req := SubscribeRequest{
		Topic:                 c.conf.Topic,
		Subscription:          c.conf.SubscriptionName,
		ConsumerID:            c.id,
		ConsumerName:          c.consumerName,
		SubType:               c.conf.Type,
		InitialPosition:       c.conf.InitialPosition,
		ReadCompacted:         c.conf.ReadCompacted,
		StartMessageID:        resume,
		Durable:               c.conf.durable(),
		StartRollbackDuration: rollback,
		KeySharedPolicy:       c.conf.KeySharedPolicy,
	}

	subCtx, cancel := context.WithTimeout(ctx, c.conf.OperationTimeout)
	defer cancel()

	resp, err := cnx.SendSubscribe(subCtx, req)
	if err != nil {
		c.handleSubscribeFailure(err)
		return
	}
	if !resp.OK {
		c.handleSubscribeError(resp.Error)
		return
	}

	c.state = StateReady
	c.backoff.Reset()
	c.resolveSubscribe(nil)

	if toSend, ok := c.flow.initialFlow(); ok {
		if err := cnx.SendFlow(c.id, toSend); err != nil {
			c.logger.Warn("initial flow send failed", "error", err)
		}
	}
}

func (c *Consumer[T]) handleSubscribeFailure(err error) {
	if time.Now().Before(c.subscribeDeadline) {
		c.logger.Debug("subscribe failed, retrying", "error", err)
		c.reconnectLater()
		return
	}
	c.failPermanently(newErr(ErrKindTimeout, "subscribe timed out", err))
}

func (c *Consumer[T]) handleSubscribeError(brokerErr *Error) {
	if brokerErr == nil {
		brokerErr = newBrokerErr(0, "unknown subscribe error")
	}
	if brokerErrRetriable(brokerErr.BrokerCode) && time.Now().Before(c.subscribeDeadline) {
		c.logger.Debug("subscribe rejected, retrying", "code", brokerErr.BrokerCode)
		c.reconnectLater()
		return
	}
	c.failPermanently(brokerErr)
}

func (c *Consumer[T]) handleConnectionFailed(err error) {
	if c.isClosed() {
		return
	}
	if time.Now().After(c.subscribeDeadline) && !c.subscribeResolved {
		c.failPermanently(newErr(ErrKindTimeout, "subscribe timed out", err))
		return
	}
	c.logger.Debug("connection attempt failed", "error", err)
	c.state = StateReconnecting
}

// failPermanently transitions to StateFailed, resolves subscribeDone with
// the terminal error, and drains every waiter.
func (c *Consumer[T]) failPermanently(err error) {
	c.state = StateFailed
	c.closedFlag.Store(true)
	c.resolveSubscribe(err)
	c.drainWaiters(err)
	c.stopAllTickers()
}
