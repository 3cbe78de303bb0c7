package consumer

import "time"

type batchEntryKey struct {
	ledgerID, entryID int64
}

// batchAckerFor returns the shared BatchAcker for id's entry, creating one
// on the first sub-message observed and dropping it once the last
// outstanding sub-message has been accounted for (§4.6, §9 "batch acker
// sharing").
func (c *Consumer[T]) batchAckerFor(id MessageID, numMessages int) *BatchAcker {
	key := batchEntryKey{id.LedgerID, id.EntryID}
	if a, ok := c.openBatchAckers[key]; ok {
		return a
	}
	a := NewBatchAcker(id, numMessages)
	c.openBatchAckers[key] = a
	return a
}

func (c *Consumer[T]) releaseBatchAckerIfDone(id MessageID, a *BatchAcker) {
	if a.Outstanding() == 0 {
		delete(c.openBatchAckers, batchEntryKey{id.LedgerID, id.EntryID})
	}
}

// isPriorToStart reports whether id is a tail-prefix of start: the same
// broker entry, at or before start's sub-index (§4.1.b). reset_include_head
// picks the boundary: false treats the resume point itself as already
// consumed (<=), true excludes it so it is redelivered (<).
func isPriorToStart(id MessageID, start *MessageID, includeHead bool) bool {
	if start == nil || !id.SameEntry(*start) {
		return false
	}
	if includeHead {
		return id.BatchIndex < start.BatchIndex
	}
	return id.BatchIndex <= start.BatchIndex
}

// handleMessageReceived implements §4.1.b: checksum check, duplicate
// filter, tail-prefix skip against the resume point, then either splits a
// batched entry into its sub-messages or delivers raw as a single message.
func (c *Consumer[T]) handleMessageReceived(raw RawMessage) {
	if c.isClosed() {
		return
	}

	if !raw.ChecksumValid {
		c.logger.Warn("checksum mismatch, discarding", "id", raw.ID.String())
		c.statsRecorder.IncReceiveFailed()
		c.stats.onReceiveFailed()
		c.negAck.Add(raw.ID, time.Now())
		c.creditFlow(1)
		return
	}

	c.noteLastMessageIDInBroker(raw.ID)

	if c.acks.IsDuplicate(raw.ID) {
		c.creditFlow(1)
		return
	}

	if raw.Metadata.HasBatch && raw.Metadata.NumMessages > 1 && len(raw.SubPayloads) > 0 {
		c.handleBatchedEntry(raw)
		return
	}

	if isPriorToStart(raw.ID, c.sub.startMessageID, c.conf.ResetIncludeHead) {
		c.creditFlow(1)
		return
	}

	im := IdentifiedMessageID{ID: raw.ID, Kind: KindIndividual}
	c.deliverDecoded(im, raw.Payload, raw)
}

// handleBatchedEntry implements the batched half of §4.1.b/§4.6: one
// Message per sub-message, sharing a BatchAcker sized to the whole entry.
// A sub-message that is a tail-prefix of the resume point is skipped and
// its permit credited back, but still clears its acker bit so the entry's
// acker can be released once every sub-message has been accounted for.
func (c *Consumer[T]) handleBatchedEntry(raw RawMessage) {
	acker := c.batchAckerFor(raw.ID, len(raw.SubPayloads))
	for i, payload := range raw.SubPayloads {
		subID := raw.ID
		subID.BatchIndex = int32(i)

		if isPriorToStart(subID, c.sub.startMessageID, c.conf.ResetIncludeHead) {
			acker.AckIndividual(int32(i))
			c.creditFlow(1)
			continue
		}

		im := IdentifiedMessageID{ID: subID, Kind: KindCumulative, Acker: acker}
		c.deliverDecoded(im, payload, raw)
	}
	c.releaseBatchAckerIfDone(raw.ID, acker)
}

// deliverDecoded finishes §4.1.b for one message (a whole entry or one
// sub-message of a batch): unacked tracking, dead-letter eligibility
// bookkeeping, decoding, interceptor/stats, then hand-off to a waiter or
// the incoming queue. A message crossing the dead-letter bound is still
// delivered so the application can Acknowledge/NegativeAcknowledge it as
// usual; the actual DLQ publish is deferred to its next redelivery
// (§4.1.e's doRedeliver), so it is forwarded exactly once.
func (c *Consumer[T]) deliverDecoded(im IdentifiedMessageID, payload []byte, raw RawMessage) {
	if c.unacked != nil {
		c.unacked.Add(im.ID)
	}

	c.dlq.MaybeBuffer(im.ID, raw.RedeliveryCount, payload, []byte(raw.Key), raw.Properties)

	decode := c.resolveDecoder(raw.Metadata.SchemaVersion)
	msg := NewMessage[T](im, payload, decode)
	msg.Key = raw.Key
	msg.KeyIsBase64 = raw.KeyIsBase64
	msg.Properties = raw.Properties
	msg.SchemaVersion = raw.Metadata.SchemaVersion
	msg.SequenceID = raw.SequenceID
	msg.RedeliveryCount = raw.RedeliveryCount

	c.interceptor.BeforeConsume(c.conf.Topic, im.ID)
	c.statsRecorder.IncMsgsReceived(len(payload))
	c.stats.onMessage(len(payload))

	c.deliverOrEnqueue(msg)
}

func (c *Consumer[T]) resolveDecoder(schemaVersion []byte) func([]byte) (T, error) {
	if len(schemaVersion) > 0 {
		if d, ok := c.schema.DecoderForVersion(schemaVersion); ok {
			return d
		}
	}
	return c.schema.BaseDecoder()
}
