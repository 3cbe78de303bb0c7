package consumer

import (
	"context"
	"time"
)

// ConsumerID is the broker-visible identifier for one subscribe session.
type ConsumerID uint64

// ConsumerOps is the vtable a ClientCnx invokes on inbound frames for one
// registered consumer (§5 "the only mutation performed on it by the
// consumer is add_consumer/remove_consumer").
type ConsumerOps interface {
	HandleMessage(raw RawMessage)
	HandleActiveConsumerChanged(active bool)
	HandleReachedEndOfTopic()
	HandleConnectionClosed()
}

// SchemaInfo is passed through to Subscribe; the core treats it as opaque
// beyond forwarding it (the schema layer owns decoding, §1).
type SchemaInfo struct {
	Name       string
	Type       string
	Properties map[string]string
}

// SubscribeRequest carries every field the wire protocol's Subscribe
// command needs (§6).
type SubscribeRequest struct {
	Topic                 string
	Subscription          string
	ConsumerID            ConsumerID
	RequestID             uint64
	ConsumerName          string
	SubType               SubscriptionType
	InitialPosition       InitialPosition
	ReadCompacted         bool
	StartMessageID        *MessageID
	Durable               bool
	StartRollbackDuration time.Duration
	CreateTopicIfMissing  bool
	KeySharedPolicy       *KeySharedPolicy
	SchemaInfo            *SchemaInfo
}

type SubscribeResponse struct {
	OK    bool
	Error *Error
}

// ClientCnx is the persistent, multiplexed framed connection to a broker
// node (§1, out of core scope beyond this interface: it is obtained and
// reacquired via the connection pool + lookup service collaborator). See
// package transport for the concrete quic-go backed implementation.
type ClientCnx interface {
	AddConsumer(id ConsumerID, ops ConsumerOps)
	RemoveConsumer(id ConsumerID)

	SendSubscribe(ctx context.Context, req SubscribeRequest) (SubscribeResponse, error)
	SendFlow(id ConsumerID, permits int32) error
	SendAck(id ConsumerID, acks []PendingAck) error
	SendRedeliverUnacknowledged(id ConsumerID, ids []MessageID) error
	SendRedeliverAllUnacknowledged(id ConsumerID) error
	SendSeekByMsgID(ctx context.Context, id ConsumerID, target MessageID) error
	SendSeekByTimestamp(ctx context.Context, id ConsumerID, ts uint64) error
	SendGetLastMessageID(ctx context.Context, id ConsumerID) (MessageID, error)
	SendCloseConsumer(ctx context.Context, id ConsumerID) error
	SendUnsubscribe(ctx context.Context, id ConsumerID) error

	IsReady() bool
}

// ConnectionProvider is the connection pool + lookup service collaborator
// (§1): given a topic, it yields a ClientCnx, reacquiring one on failure.
type ConnectionProvider interface {
	GetConnection(ctx context.Context, topic string) (ClientCnx, error)
}

// cnxAckSender adapts a ClientCnx + ConsumerID pair to the narrower
// AckSender the ack grouping tracker depends on.
type cnxAckSender struct {
	cnx ClientCnx
	id  ConsumerID
}

func (a cnxAckSender) SendAck(acks []PendingAck) error {
	return a.cnx.SendAck(a.id, acks)
}
