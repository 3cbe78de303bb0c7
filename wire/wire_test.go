package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerclient/go-consumer/consumer"
)

func TestHeaderRoundTrip(t *testing.T) {
	buf := EncodeHeader(nil, byte(OpSubscribe), 42, 1024)
	require.Len(t, buf, HeaderLen)

	hdr, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(OpSubscribe), hdr.Op)
	assert.EqualValues(t, 42, hdr.ConsumerID)
	assert.EqualValues(t, 1024, hdr.PayloadLen)
}

func TestDecodeHeaderShortBuffer(t *testing.T) {
	_, err := DecodeHeader([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestChecksumRoundTrip(t *testing.T) {
	payload := []byte("hello, broker")
	framed := AppendChecksum(append([]byte(nil), payload...))

	got, ok := ValidateChecksum(framed)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestChecksumDetectsCorruption(t *testing.T) {
	payload := []byte("hello, broker")
	framed := AppendChecksum(append([]byte(nil), payload...))
	framed[0] ^= 0xFF

	_, ok := ValidateChecksum(framed)
	assert.False(t, ok)
}

func TestValidateChecksumRejectsShortFrame(t *testing.T) {
	_, ok := ValidateChecksum([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestDecodeBatchEnvelopeSplitsSubMessages(t *testing.T) {
	buf := appendSubMessage(nil, nil, []byte("first"))
	buf = appendSubMessage(buf, nil, []byte("second"))

	metas, payloads, err := DecodeBatchEnvelope(buf)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	require.Len(t, payloads, 2)
	assert.Equal(t, []byte("first"), payloads[0])
	assert.Equal(t, []byte("second"), payloads[1])
}

func TestDecodeBatchEnvelopeRejectsTruncatedInput(t *testing.T) {
	_, _, err := DecodeBatchEnvelope([]byte{0, 0, 0, 10})
	assert.Error(t, err)
}

func TestDecompressPassesThroughUncompressed(t *testing.T) {
	payload := []byte("payload")
	out, err := Decompress(consumer.CompressionNone, uint32(len(payload)), payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecompressRejectsUnsupportedCompression(t *testing.T) {
	_, err := Decompress(consumer.CompressionLZ4, 0, nil)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func appendSubMessage(buf []byte, meta, payload []byte) []byte {
	buf = appendUint32(buf, uint32(len(meta)))
	buf = append(buf, meta...)
	buf = appendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
