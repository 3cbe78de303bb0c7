package consumer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlowControllerSendsAtHalfQueue(t *testing.T) {
	f := newFlowController(1000)

	toSend, shouldSend := f.increase(400)
	assert.False(t, shouldSend)
	assert.Zero(t, toSend)

	toSend, shouldSend = f.increase(100)
	assert.True(t, shouldSend)
	assert.EqualValues(t, 500, toSend)
}

func TestFlowControllerResetsAfterSend(t *testing.T) {
	f := newFlowController(100)

	_, shouldSend := f.increase(50)
	assert.True(t, shouldSend)
	assert.Zero(t, f.consumed)

	toSend, shouldSend := f.increase(10)
	assert.False(t, shouldSend)
	assert.Zero(t, toSend)
}

func TestFlowControllerIgnoresNonPositiveDelta(t *testing.T) {
	f := newFlowController(100)

	toSend, shouldSend := f.increase(0)
	assert.False(t, shouldSend)
	assert.Zero(t, toSend)

	toSend, shouldSend = f.increase(-5)
	assert.False(t, shouldSend)
	assert.Zero(t, toSend)
}

func TestFlowControllerInitialFlowRequestsFullQueue(t *testing.T) {
	f := newFlowController(64)
	toSend, shouldSend := f.initialFlow()
	assert.True(t, shouldSend)
	assert.EqualValues(t, 64, toSend)
}

func TestFlowControllerInitialFlowDisabledWhenQueueSizeZero(t *testing.T) {
	f := newFlowController(0)
	_, shouldSend := f.initialFlow()
	assert.False(t, shouldSend)
}
