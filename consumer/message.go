package consumer

import "sync"

// Message is the application-visible delivery. Decoding into T is deferred
// until Value() is first called, and the result is memoized, so a batch's
// shared payload buffer can be released per sub-message independently
// (§9 "deferred decoding").
type Message[T any] struct {
	ID             IdentifiedMessageID
	Key            string
	KeyIsBase64    bool
	Properties     map[string]string
	SchemaVersion  []byte
	SequenceID     uint64
	PayloadBytes   []byte
	RedeliveryCount uint32

	decodeOnce sync.Once
	decodeFn   func([]byte) (T, error)
	decoded    T
	decodeErr  error
}

// NewMessage builds a Message whose Value() lazily invokes decode.
func NewMessage[T any](id IdentifiedMessageID, payload []byte, decode func([]byte) (T, error)) *Message[T] {
	return &Message[T]{
		ID:           id,
		PayloadBytes: payload,
		decodeFn:     decode,
	}
}

// Value decodes the payload on first access and memoizes the result.
func (m *Message[T]) Value() (T, error) {
	m.decodeOnce.Do(func() {
		m.decoded, m.decodeErr = m.decodeFn(m.PayloadBytes)
	})
	return m.decoded, m.decodeErr
}

// Messages is a batch-receive bundle in delivery order.
type Messages[T any] struct {
	items []*Message[T]
	bytes int
}

func (m *Messages[T]) Add(msg *Message[T]) {
	m.items = append(m.items, msg)
	m.bytes += len(msg.PayloadBytes)
}

func (m *Messages[T]) Len() int { return len(m.items) }
func (m *Messages[T]) Bytes() int { return m.bytes }
func (m *Messages[T]) At(i int) *Message[T] { return m.items[i] }
func (m *Messages[T]) All() []*Message[T] { return m.items }

// RawMessage is the opaque, framing-stripped delivery handed up by the wire
// codec (§1, §3). The consumer never parses wire bytes itself: for a
// batched entry (Metadata.HasBatch), the codec has already split Payload
// into SubPayloads via its batch envelope decoder, one slice per
// sub-message in delivery order. Key/Properties/SequenceID above describe
// the entry as a whole; sub-message metadata is opaque past the envelope
// split (wire.DecodeBatchEnvelope), so sub-messages inherit them.
type RawMessage struct {
	ID              MessageID
	Payload         []byte
	SubPayloads     [][]byte
	Metadata        RawMessageMetadata
	ChecksumValid   bool
	RedeliveryCount uint32
	Key             string
	KeyIsBase64     bool
	Properties      map[string]string
	SequenceID      uint64
}

type RawMessageMetadata struct {
	NumMessages      int
	HasBatch         bool
	Compression      CompressionType
	UncompressedSize uint32
	SchemaVersion    []byte
}

type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionLZ4
	CompressionZstd
	CompressionSnappy
)

// SingleMessageMetadata describes one sub-message inside a batched entry,
// as handed back by the wire codec's batch envelope decoder.
type SingleMessageMetadata struct {
	PayloadOffset int
	PayloadLen    int
	Key           string
	KeyIsBase64   bool
	Properties    map[string]string
	SequenceID    uint64
}
