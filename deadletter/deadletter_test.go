package deadletter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerclient/go-consumer/consumer"
)

type fakeBackend struct {
	published []fakePublish
	closed    bool
}

type fakePublish struct {
	id         consumer.MessageID
	payload    []byte
	key        string
	properties map[string]string
}

func (b *fakeBackend) Publish(ctx context.Context, id consumer.MessageID, payload []byte, key string, properties map[string]string) error {
	b.published = append(b.published, fakePublish{id, payload, key, properties})
	return nil
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

func TestNewBackendReturnsErrorForUnregisteredProtocol(t *testing.T) {
	_, err := NewBackend(Protocol("does-not-exist"), nil, slog.Default())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "is its package imported?")
}

func TestRegisterBackendFactoryAndNewBackendDispatch(t *testing.T) {
	backend := &fakeBackend{}
	const proto = Protocol("test-fake")
	RegisterBackendFactory(proto, func(rawConfig any, l *slog.Logger) (Backend, error) {
		return backend, nil
	})

	got, err := NewBackend(proto, nil, slog.Default())
	require.NoError(t, err)
	assert.Same(t, backend, got)
}

func TestSinkPublishDelegatesToBackend(t *testing.T) {
	backend := &fakeBackend{}
	sink := NewSink(backend)

	id := consumer.MessageID{LedgerID: 1, EntryID: 2, BatchIndex: -1}
	err := sink.Publish(context.Background(), id, []byte("payload"), "key", map[string]string{"a": "b"})
	require.NoError(t, err)

	require.Len(t, backend.published, 1)
	assert.Equal(t, id, backend.published[0].id)
	assert.Equal(t, []byte("payload"), backend.published[0].payload)
	assert.Equal(t, "key", backend.published[0].key)
	assert.Equal(t, map[string]string{"a": "b"}, backend.published[0].properties)
}

func TestSinkCloseDelegatesToBackend(t *testing.T) {
	backend := &fakeBackend{}
	sink := NewSink(backend).(*sink)

	require.NoError(t, sink.Close())
	assert.True(t, backend.closed)
}
