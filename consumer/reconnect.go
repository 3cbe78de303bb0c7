package consumer

import (
	"context"
	"time"
)

// reconnectLoop is the background goroutine that owns dialing. It never
// touches actor state directly: every outcome (success or failure) is
// posted to the mailbox as a closure, preserving the single-writer
// property (§2, §5 "connection pool + lookup service collaborator").
func (c *Consumer[T]) reconnectLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-c.reconnectSignal:
		}

		if c.closedSnapshot() {
			return
		}

		cnx, err := c.provider.GetConnection(ctx, c.conf.Topic)
		if err != nil {
			c.enqueue(func() { c.handleConnectionFailed(err) })
			c.waitBeforeRetry(ctx)
			continue
		}

		c.enqueue(func() { c.handleConnectionOpened(ctx, cnx) })
	}
}

func (c *Consumer[T]) waitBeforeRetry(ctx context.Context) {
	if c.backoff.Wait(ctx, c.done) {
		c.scheduleReconnect()
	}
}

// scheduleReconnect requests a fresh connect attempt, coalescing with any
// already-pending request.
func (c *Consumer[T]) scheduleReconnect() {
	select {
	case c.reconnectSignal <- struct{}{}:
	default:
	}
}

// reconnectLater is called from within the actor (§4.1.a step on
// retriable Subscribe failure): drop the dead connection and ask
// reconnectLoop for a fresh attempt right away. No backoff delay is applied
// here; reconnectLoop waits on the backoff only after GetConnection itself
// fails.
func (c *Consumer[T]) reconnectLater() {
	if c.isClosed() {
		return
	}
	c.state = StateReconnecting
	c.cnx = nil
	c.scheduleReconnect()
}

// startTickers wires every timer-driven concern the actor owns:
// ack-group flush, unacked-tracker rotation, negative-ack drain, and a
// stats tick — one shared goroutine per concern, each posting a command
// closure into the mailbox rather than touching state itself (§9 "no
// dedicated timer thread per tracker").
func (c *Consumer[T]) startTickers() {
	if c.conf.AcknowledgementsGroupTime > 0 {
		c.addTicker(c.conf.AcknowledgementsGroupTime, func() {
			c.enqueue(c.tickFlushAcks)
		})
	}
	if c.unacked != nil {
		c.addTicker(c.unacked.tickWidth, func() {
			c.enqueue(c.tickUnacked)
		})
	}
	c.addTicker(negAckDrainInterval, func() {
		c.enqueue(c.tickNegAck)
	})
}

const negAckDrainInterval = 1 * time.Second

func (c *Consumer[T]) addTicker(period time.Duration, onTick func()) {
	if period <= 0 {
		return
	}
	t := time.NewTicker(period)
	c.tickers = append(c.tickers, t)
	go func() {
		for {
			select {
			case <-t.C:
				onTick()
			case <-c.stopTickers:
				return
			}
		}
	}()
}

func (c *Consumer[T]) stopAllTickers() {
	close(c.stopTickers)
	for _, t := range c.tickers {
		t.Stop()
	}
}

func (c *Consumer[T]) tickFlushAcks() {
	if !c.isReady() {
		return
	}
	if err := c.acks.Flush(); err != nil {
		c.logger.Warn("ack flush failed", "error", err)
	}
}

func (c *Consumer[T]) tickUnacked() {
	if c.unacked != nil {
		c.unacked.Tick()
	}
}

func (c *Consumer[T]) tickNegAck() {
	if !c.isReady() {
		return
	}
	due := c.negAck.DrainDue(time.Now())
	if len(due) > 0 {
		c.doRedeliver(due)
	}
}
