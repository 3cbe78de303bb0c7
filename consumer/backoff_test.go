package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectBackoffNextStaysWithinConfiguredBounds(t *testing.T) {
	b := newReconnectBackoff(10*time.Millisecond, 50*time.Millisecond)
	for i := 0; i < 10; i++ {
		d := b.Next()
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 50*time.Millisecond)
	}
}

func TestReconnectBackoffResetRestartsSchedule(t *testing.T) {
	b := newReconnectBackoff(10*time.Millisecond, 50*time.Millisecond)
	for i := 0; i < 5; i++ {
		b.Next()
	}
	b.Reset()
	d := b.Next()
	assert.LessOrEqual(t, d, 20*time.Millisecond)
}

func TestReconnectBackoffWaitReturnsFalseOnMandatoryStop(t *testing.T) {
	b := newReconnectBackoff(time.Hour, time.Hour)
	stop := make(chan struct{})
	close(stop)

	ok := b.Wait(context.Background(), stop)
	assert.False(t, ok)
}

func TestReconnectBackoffWaitReturnsFalseOnContextCancel(t *testing.T) {
	b := newReconnectBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := b.Wait(ctx, make(chan struct{}))
	assert.False(t, ok)
}

func TestReconnectBackoffWaitReturnsTrueWhenDelayElapses(t *testing.T) {
	b := newReconnectBackoff(time.Millisecond, 5*time.Millisecond)
	ok := b.Wait(context.Background(), make(chan struct{}))
	assert.True(t, ok)
}
