package transport

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/internal/pool"
	"github.com/brokerclient/go-consumer/wire"
)

func (b *BrokerCnx) SendSubscribe(ctx context.Context, req consumer.SubscribeRequest) (consumer.SubscribeResponse, error) {
	sess, ok := b.session(req.ConsumerID)
	if !ok {
		return consumer.SubscribeResponse{}, ErrConnClosed
	}
	if err := b.send(sess, wire.OpSubscribe, req.ConsumerID, encodeSubscribeRequest(req)); err != nil {
		return consumer.SubscribeResponse{}, err
	}

	f, err := b.awaitReply(ctx, sess)
	if err != nil {
		return consumer.SubscribeResponse{}, err
	}
	defer func() {
		if f.payload != nil {
			pool.Put(f.payload)
		}
	}()

	switch wire.RespCode(f.header.Op) {
	case wire.RespSubscribeOK:
		return consumer.SubscribeResponse{OK: true}, nil
	case wire.RespSubscribeErr:
		code, msg := decodeBrokerError(f.payload)
		return consumer.SubscribeResponse{OK: false, Error: &consumer.Error{Kind: consumer.ErrKindBroker, BrokerCode: code, Message: msg}}, nil
	default:
		return consumer.SubscribeResponse{}, fmt.Errorf("transport: unexpected subscribe reply opcode %d", f.header.Op)
	}
}

func (b *BrokerCnx) SendAck(id consumer.ConsumerID, acks []consumer.PendingAck) error {
	sess, ok := b.session(id)
	if !ok {
		return ErrConnClosed
	}
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(acks)))
	for _, a := range acks {
		buf = encodeMessageID(buf, a.ID)
		buf = append(buf, byte(a.Type))
	}
	return b.send(sess, wire.OpAck, id, buf)
}

func (b *BrokerCnx) SendSeekByMsgID(ctx context.Context, id consumer.ConsumerID, target consumer.MessageID) error {
	sess, ok := b.session(id)
	if !ok {
		return ErrConnClosed
	}
	if err := b.send(sess, wire.OpSeekByMsgID, id, encodeMessageID(nil, target)); err != nil {
		return err
	}
	_, err := b.awaitReply(ctx, sess)
	return err
}

func (b *BrokerCnx) SendSeekByTimestamp(ctx context.Context, id consumer.ConsumerID, ts uint64) error {
	sess, ok := b.session(id)
	if !ok {
		return ErrConnClosed
	}
	payload := binary.BigEndian.AppendUint64(nil, ts)
	if err := b.send(sess, wire.OpSeekByTimestamp, id, payload); err != nil {
		return err
	}
	_, err := b.awaitReply(ctx, sess)
	return err
}

func (b *BrokerCnx) SendGetLastMessageID(ctx context.Context, id consumer.ConsumerID) (consumer.MessageID, error) {
	sess, ok := b.session(id)
	if !ok {
		return consumer.MessageID{}, ErrConnClosed
	}
	if err := b.send(sess, wire.OpGetLastMessageID, id, nil); err != nil {
		return consumer.MessageID{}, err
	}
	f, err := b.awaitReply(ctx, sess)
	if err != nil {
		return consumer.MessageID{}, err
	}
	defer pool.Put(f.payload)
	return decodeMessageID(f.payload)
}

func (b *BrokerCnx) SendCloseConsumer(ctx context.Context, id consumer.ConsumerID) error {
	sess, ok := b.session(id)
	if !ok {
		return nil
	}
	if err := b.send(sess, wire.OpCloseConsumer, id, nil); err != nil {
		return err
	}
	_, err := b.awaitReply(ctx, sess)
	return err
}

func (b *BrokerCnx) SendUnsubscribe(ctx context.Context, id consumer.ConsumerID) error {
	sess, ok := b.session(id)
	if !ok {
		return nil
	}
	if err := b.send(sess, wire.OpUnsubscribe, id, nil); err != nil {
		return err
	}
	_, err := b.awaitReply(ctx, sess)
	return err
}

func decodeBrokerError(payload []byte) (int32, string) {
	if len(payload) < 4 {
		return 0, "malformed broker error"
	}
	code := int32(binary.BigEndian.Uint32(payload))
	return code, string(payload[4:])
}
