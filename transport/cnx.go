package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/internal/pool"
	"github.com/brokerclient/go-consumer/wire"
)

// BrokerCnx implements consumer.ClientCnx over one *Conn, opening one
// stream per registered consumer id, mirroring the teacher's one
// subscriber-per-stream model.
type BrokerCnx struct {
	conn   *Conn
	logger *slog.Logger

	mu        sync.RWMutex
	consumers map[consumer.ConsumerID]*consumerSession
}

type consumerSession struct {
	str *quic.Stream
	ops consumer.ConsumerOps

	writeMu sync.Mutex

	replyCh  chan frame
	closedCh chan struct{}
}

type frame struct {
	header  wire.Header
	payload []byte
}

func NewBrokerCnx(conn *Conn, logger *slog.Logger) *BrokerCnx {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrokerCnx{
		conn:      conn,
		logger:    logger,
		consumers: make(map[consumer.ConsumerID]*consumerSession),
	}
}

func (b *BrokerCnx) IsReady() bool { return !b.conn.closed.Load() }

// AddConsumer opens a fresh stream for id and starts its read loop.
// SendSubscribe is expected to be called immediately after, on the same
// stream, per §4.1.a's "register on cnx" step.
func (b *BrokerCnx) AddConsumer(id consumer.ConsumerID, ops consumer.ConsumerOps) {
	str, err := b.conn.OpenStream(context.Background())
	if err != nil {
		b.logger.Warn("open consumer stream failed", "id", id, "error", err)
		return
	}

	sess := &consumerSession{
		str:      str,
		ops:      ops,
		replyCh:  make(chan frame, 1),
		closedCh: make(chan struct{}),
	}

	b.mu.Lock()
	b.consumers[id] = sess
	b.mu.Unlock()

	go b.readLoop(id, sess)
}

func (b *BrokerCnx) RemoveConsumer(id consumer.ConsumerID) {
	b.mu.Lock()
	sess, ok := b.consumers[id]
	delete(b.consumers, id)
	b.mu.Unlock()
	if !ok {
		return
	}
	close(sess.closedCh)
	sess.str.Close()
}

func (b *BrokerCnx) session(id consumer.ConsumerID) (*consumerSession, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sess, ok := b.consumers[id]
	return sess, ok
}

// readLoop parses one frame at a time off sess's stream. Message pushes
// are dispatched straight to ops; every other frame is handed to whichever
// Send* call is currently awaiting a reply on this session (the actor
// issues at most one outstanding synchronous request per consumer at a
// time, so a single-slot channel is sufficient).
func (b *BrokerCnx) readLoop(id consumer.ConsumerID, sess *consumerSession) {
	hdrBuf := pool.Get(wire.HeaderLen)
	defer pool.Put(hdrBuf)

	for {
		select {
		case <-sess.closedCh:
			return
		default:
		}

		n, err := sess.str.Read(hdrBuf[:wire.HeaderLen])
		if err != nil || n < wire.HeaderLen {
			select {
			case <-sess.closedCh:
			default:
				sess.ops.HandleConnectionClosed()
			}
			return
		}

		hdr, err := wire.DecodeHeader(hdrBuf[:wire.HeaderLen])
		if err != nil {
			b.logger.Warn("decode header failed", "id", id, "error", err)
			continue
		}

		payload := pool.Get(int(hdr.PayloadLen))[:hdr.PayloadLen]
		if hdr.PayloadLen > 0 {
			if _, err := sess.str.Read(payload); err != nil {
				pool.Put(payload)
				sess.ops.HandleConnectionClosed()
				return
			}
		}

		switch wire.RespCode(hdr.Op) {
		case wire.RespMessage:
			raw, err := decodeRawMessage(payload)
			pool.Put(payload)
			if err != nil {
				b.logger.Warn("decode message failed", "id", id, "error", err)
				continue
			}
			sess.ops.HandleMessage(raw)
		case wire.RespDisconnect:
			pool.Put(payload)
			sess.ops.HandleConnectionClosed()
			return
		default:
			select {
			case sess.replyCh <- frame{header: hdr, payload: payload}:
			default:
				pool.Put(payload)
			}
		}
	}
}

// awaitReply blocks for the next non-push frame on sess, honoring ctx.
func (b *BrokerCnx) awaitReply(ctx context.Context, sess *consumerSession) (frame, error) {
	select {
	case f := <-sess.replyCh:
		return f, nil
	case <-sess.closedCh:
		return frame{}, ErrConnClosed
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}

func (b *BrokerCnx) send(sess *consumerSession, op wire.OpCode, id consumer.ConsumerID, payload []byte) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	buf := pool.Get(wire.HeaderLen + len(payload))
	defer pool.Put(buf)
	buf = wire.EncodeHeader(buf, byte(op), uint64(id), uint32(len(payload)))
	buf = append(buf, payload...)

	sess.str.SetWriteDeadline(time.Now().Add(10 * time.Second))
	defer sess.str.SetWriteDeadline(time.Time{})

	if _, err := sess.str.Write(buf); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

func (b *BrokerCnx) SendFlow(id consumer.ConsumerID, permits int32) error {
	sess, ok := b.session(id)
	if !ok {
		return ErrConnClosed
	}
	payload := binary.BigEndian.AppendUint32(nil, uint32(permits))
	return b.send(sess, wire.OpFlow, id, payload)
}

func (b *BrokerCnx) SendRedeliverUnacknowledged(id consumer.ConsumerID, ids []consumer.MessageID) error {
	sess, ok := b.session(id)
	if !ok {
		return ErrConnClosed
	}
	return b.send(sess, wire.OpRedeliverUnacked, id, encodeMessageIDs(ids))
}

func (b *BrokerCnx) SendRedeliverAllUnacknowledged(id consumer.ConsumerID) error {
	sess, ok := b.session(id)
	if !ok {
		return ErrConnClosed
	}
	return b.send(sess, wire.OpRedeliverAllUnacked, id, nil)
}
