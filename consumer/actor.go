package consumer

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Consumer is the per-partition session actor (§2, §4.1). All mutable
// state lives behind mailbox: every input — broker frames, application
// calls, timer ticks, connection-state transitions — is a closure posted
// to mailbox and run serially by the loop goroutine. Public methods never
// touch actor-owned fields directly.
type Consumer[T any] struct {
	conf         Config
	id           ConsumerID
	consumerName string
	provider     ConnectionProvider
	removeSelf   func()

	logger        *slog.Logger
	schema        SchemaProvider[T]
	interceptor   Interceptor
	statsRecorder StatsRecorder
	dlqSink       DeadLetterSink

	mailbox    chan func()
	done       chan struct{}
	closedFlag atomic.Bool

	reconnectSignal chan struct{}
	backoff         *reconnectBackoff

	tickers []*time.Ticker
	stopTickers chan struct{}

	subscribeDone     chan error
	subscribeResolved bool
	subscribeDeadline time.Time

	// actor-owned state: touched only from the loop goroutine.
	state ConnectionState
	cnx   ClientCnx
	sub   *subscriptionState

	queue         incomingQueue[T]
	singleWaiters []chan receiveResult[T]
	batchWaiters  []*batchWaiter[T]

	flow    *flowController
	acks    *ackGroupingTracker
	unacked *unackedTracker
	negAck  *negativeAckTracker
	dlq     *deadLetterProcessor

	openBatchAckers map[batchEntryKey]*BatchAcker

	listener         MessageListener[T]
	listenerPoolSize int
	listenerPool     *ants.Pool

	stats statCounters

	activeConsumer    bool
	reachedEndOfTopic bool
}

// NewConsumer creates the actor, starts its loop, and blocks until the
// initial Subscribe round-trip resolves (or ctx / subscribe_timeout
// expires) — mirroring the teacher's ConnectSubscriber, which dials and
// completes its handshake before returning a usable value (§3
// "Lifecycle").
func NewConsumer[T any](
	ctx context.Context,
	conf Config,
	provider ConnectionProvider,
	id ConsumerID,
	removeSelf func(),
	opts ...Option[T],
) (*Consumer[T], error) {
	if err := conf.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	c := &Consumer[T]{
		conf:         conf,
		id:           id,
		consumerName: conf.SubscriptionName,
		provider:     provider,
		removeSelf:   removeSelf,
		logger:       slog.Default(),
		interceptor:  noopInterceptor{},
		mailbox:      make(chan func(), 256),
		done:         make(chan struct{}),
		reconnectSignal: make(chan struct{}, 1),
		backoff:      newReconnectBackoff(100*time.Millisecond, 30*time.Second),
		stopTickers:  make(chan struct{}),
		subscribeDone: make(chan error, 1),
		state:        StateConnecting,
		sub:          newSubscriptionState(conf.StartMessageID),
		flow:            newFlowController(conf.ReceiverQueueSize),
		negAck:          newNegativeAckTracker(conf.NegativeAckRedeliveryDelay),
		openBatchAckers: make(map[batchEntryKey]*BatchAcker),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.schema == nil {
		c.schema = zeroValueSchemaProvider[T]{}
	}
	if c.statsRecorder == nil {
		c.statsRecorder = noopStatsRecorder{}
	}

	if c.listener != nil {
		size := c.listenerPoolSize
		if size <= 0 {
			size = 32
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return nil, newErr(ErrKindUnknown, "create listener pool", err)
		}
		c.listenerPool = pool
	}

	c.acks = newAckGroupingTracker(nil, conf.AcknowledgementsGroupTime > 0)
	if conf.AckTimeout > 0 {
		c.unacked = newUnackedTracker(conf.AckTimeout, conf.AckTimeoutTickTime, c.onAckTimeout)
	}
	c.dlq = newDeadLetterProcessor(conf.DeadLetter.Enabled, conf.DeadLetter.MaxRedeliveryCount, c.dlqSink)

	if conf.Mode == SubscriptionNonDurable && conf.StartMessageID == nil {
		c.logger.Warn("start messageId is missing", "topic", conf.Topic, "subscription", conf.SubscriptionName)
	}

	c.subscribeDeadline = time.Now().Add(conf.OperationTimeout)

	go c.run()
	go c.reconnectLoop(ctx)
	c.startTickers()

	// kick the first connect attempt
	select {
	case c.reconnectSignal <- struct{}{}:
	default:
	}

	select {
	case err := <-c.subscribeDone:
		if err != nil {
			return nil, err
		}
		return c, nil
	case <-ctx.Done():
		go c.Close(context.Background())
		return nil, ctx.Err()
	}
}

// run is the single-writer actor loop (§2, §9).
func (c *Consumer[T]) run() {
	for {
		select {
		case fn := <-c.mailbox:
			fn()
		case <-c.done:
			// drain remaining posted work with AlreadyClosed semantics is
			// unnecessary: closed public methods already short-circuit
			// before enqueueing once c.done is observed closed.
			return
		}
	}
}

// enqueue posts fn to the actor loop, or drops it (logging) if the actor
// has already terminated.
func (c *Consumer[T]) enqueue(fn func()) {
	select {
	case c.mailbox <- fn:
	case <-c.done:
		c.logger.Debug("dropped command after close")
	}
}

// resolveSubscribe fulfills subscribe_tsc at most once (§5).
func (c *Consumer[T]) resolveSubscribe(err error) {
	if c.subscribeResolved {
		return
	}
	c.subscribeResolved = true
	c.subscribeDone <- err
}

func (c *Consumer[T]) isReady() bool {
	return c.state == StateReady && c.cnx != nil
}

func (c *Consumer[T]) isClosed() bool {
	return c.state.isTerminal()
}

// closedSnapshot is safe to call from goroutines other than the actor loop
// (reconnectLoop, tickers): closedFlag is set exactly once, from inside the
// actor, when the consumer reaches a terminal state (Close/Unsubscribe, or
// a permanent subscribe failure).
func (c *Consumer[T]) closedSnapshot() bool {
	return c.closedFlag.Load()
}
