package consumer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// stopConsumer implements §4.1.g. Collaborator shutdown runs concurrently
// via errgroup, since ack flush, unacked-tracker teardown, and negative-ack
// teardown are independent of each other; failures are logged, not
// propagated, since close is best-effort (§7).
func (c *Consumer[T]) stopConsumer(ctx context.Context, unsubscribe bool) error {
	reply := make(chan error, 1)

	select {
	case c.mailbox <- func() { reply <- c.doStop(ctx, unsubscribe) }:
	case <-c.done:
		return nil
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer[T]) doStop(ctx context.Context, unsubscribe bool) error {
	if c.isClosed() {
		return nil
	}
	c.state = StateClosing

	var g errgroup.Group
	g.Go(func() error { return c.acks.Close() })
	g.Go(func() error {
		if c.unacked != nil {
			c.unacked.Close()
		}
		return nil
	})
	g.Go(func() error {
		c.negAck.Close()
		return nil
	})
	g.Go(func() error {
		c.dlq.Close()
		return nil
	})
	if c.listenerPool != nil {
		g.Go(func() error {
			c.listenerPool.Release()
			return nil
		})
	}

	var brokerErr error
	if c.cnx != nil {
		if unsubscribe {
			brokerErr = c.cnx.SendUnsubscribe(ctx, c.id)
		} else {
			brokerErr = c.cnx.SendCloseConsumer(ctx, c.id)
		}
		c.cnx.RemoveConsumer(c.id)
	}

	if err := g.Wait(); err != nil {
		c.logger.Warn("collaborator shutdown reported an error", "error", err)
	}

	c.drainWaiters(ErrAlreadyClosed)
	c.stopAllTickers()
	c.state = StateClosed
	c.closedFlag.Store(true)

	if c.removeSelf != nil {
		c.removeSelf()
	}
	close(c.done)

	return brokerErr
}
