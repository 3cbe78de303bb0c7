package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/brokerclient/go-consumer/consumer"
	"github.com/brokerclient/go-consumer/wire"
)

func encodeMessageID(buf []byte, id consumer.MessageID) []byte {
	buf = binary.BigEndian.AppendUint64(buf, uint64(id.LedgerID))
	buf = binary.BigEndian.AppendUint64(buf, uint64(id.EntryID))
	buf = binary.BigEndian.AppendUint32(buf, uint32(id.Partition))
	buf = binary.BigEndian.AppendUint32(buf, uint32(id.BatchIndex))
	return buf
}

const messageIDLen = 8 + 8 + 4 + 4

func decodeMessageID(buf []byte) (consumer.MessageID, error) {
	if len(buf) < messageIDLen {
		return consumer.MessageID{}, fmt.Errorf("transport: short message id: %d bytes", len(buf))
	}
	return consumer.MessageID{
		LedgerID:   int64(binary.BigEndian.Uint64(buf[0:8])),
		EntryID:    int64(binary.BigEndian.Uint64(buf[8:16])),
		Partition:  int32(binary.BigEndian.Uint32(buf[16:20])),
		BatchIndex: int32(binary.BigEndian.Uint32(buf[20:24])),
	}, nil
}

func encodeMessageIDs(ids []consumer.MessageID) []byte {
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(ids)))
	for _, id := range ids {
		buf = encodeMessageID(buf, id)
	}
	return buf
}

func encodeString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// encodeSubscribeRequest lays out req in the order §6 lists its fields.
func encodeSubscribeRequest(req consumer.SubscribeRequest) []byte {
	buf := make([]byte, 0, 128+len(req.Topic)+len(req.Subscription))
	buf = encodeString(buf, req.Topic)
	buf = encodeString(buf, req.Subscription)
	buf = encodeString(buf, req.ConsumerName)
	buf = append(buf, byte(req.SubType))
	buf = append(buf, byte(req.InitialPosition))
	buf = append(buf, boolToByte(req.ReadCompacted))
	buf = append(buf, boolToByte(req.Durable))
	buf = binary.BigEndian.AppendUint64(buf, uint64(req.StartRollbackDuration))

	hasStart := req.StartMessageID != nil
	buf = append(buf, boolToByte(hasStart))
	if hasStart {
		buf = encodeMessageID(buf, *req.StartMessageID)
	}

	return buf
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// decodeRawMessage parses a RESP_MESSAGE push frame's payload into a
// consumer.RawMessage. Layout: id, compression type, uncompressed size,
// message count, length-prefixed checksum-framed payload, then key,
// sequence id and redelivery count; the frame carries no properties. A
// batched entry's decompressed body is further split via
// wire.DecodeBatchEnvelope into RawMessage.SubPayloads; a malformed
// envelope is reported as a checksum failure so the actor discards the
// whole entry rather than delivering a partial batch.
func decodeRawMessage(payload []byte) (consumer.RawMessage, error) {
	if len(payload) < messageIDLen {
		return consumer.RawMessage{}, fmt.Errorf("transport: short message frame")
	}
	id, err := decodeMessageID(payload)
	if err != nil {
		return consumer.RawMessage{}, err
	}
	off := messageIDLen

	if off+1 > len(payload) {
		return consumer.RawMessage{}, fmt.Errorf("transport: truncated message frame")
	}
	compression := consumer.CompressionType(payload[off])
	off++

	if off+4 > len(payload) {
		return consumer.RawMessage{}, fmt.Errorf("transport: truncated uncompressed size")
	}
	uncompressedSize := binary.BigEndian.Uint32(payload[off:])
	off += 4

	if off+4 > len(payload) {
		return consumer.RawMessage{}, fmt.Errorf("transport: truncated num messages")
	}
	numMessages := int(binary.BigEndian.Uint32(payload[off:]))
	off += 4

	if off+4 > len(payload) {
		return consumer.RawMessage{}, fmt.Errorf("transport: truncated payload length")
	}
	framedLen := int(binary.BigEndian.Uint32(payload[off:]))
	off += 4
	if off+framedLen > len(payload) {
		return consumer.RawMessage{}, fmt.Errorf("transport: truncated payload")
	}
	framed := payload[off : off+framedLen]
	off += framedLen

	body, checksumOK := wire.ValidateChecksum(framed)
	body, decompressErr := wire.Decompress(compression, uncompressedSize, body)
	// body still aliases the caller's pooled read buffer; clone it so the
	// buffer can be returned to the pool as soon as this frame is decoded.
	if decompressErr == nil {
		body = append([]byte(nil), body...)
	}

	var subPayloads [][]byte
	if decompressErr == nil && numMessages > 1 {
		_, subs, batchErr := wire.DecodeBatchEnvelope(body)
		if batchErr != nil {
			checksumOK = false
		} else {
			subPayloads = subs
		}
	}

	if off+4 > len(payload) {
		return consumer.RawMessage{}, fmt.Errorf("transport: truncated key")
	}
	keyLen := int(binary.BigEndian.Uint32(payload[off:]))
	off += 4
	key := string(payload[off : off+keyLen])
	off += keyLen

	if off+8 > len(payload) {
		return consumer.RawMessage{}, fmt.Errorf("transport: truncated sequence id")
	}
	seqID := binary.BigEndian.Uint64(payload[off:])
	off += 8

	if off+4 > len(payload) {
		return consumer.RawMessage{}, fmt.Errorf("transport: truncated redelivery count")
	}
	redeliveryCount := binary.BigEndian.Uint32(payload[off:])

	raw := consumer.RawMessage{
		ID:              id,
		Payload:         body,
		SubPayloads:     subPayloads,
		ChecksumValid:   checksumOK && decompressErr == nil,
		RedeliveryCount: redeliveryCount,
		Key:             key,
		SequenceID:      seqID,
		Metadata: consumer.RawMessageMetadata{
			NumMessages:      numMessages,
			HasBatch:         numMessages > 1,
			Compression:      compression,
			UncompressedSize: uncompressedSize,
		},
	}
	return raw, nil
}
