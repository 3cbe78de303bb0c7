package consumer

// flowController tracks permits consumed by the application and tells the
// caller when to emit a Flow frame (§4.2). It holds no goroutine of its
// own; increase() is called from the actor loop, which owns the invariant
// 0 <= consumed <= receiverQueueSize.
type flowController struct {
	receiverQueueSize int32
	consumed          int32
}

func newFlowController(receiverQueueSize int32) *flowController {
	return &flowController{receiverQueueSize: receiverQueueSize}
}

// increase adds delta permits consumed by the application. It returns the
// number of permits to send in a Flow frame, and true if a Flow should be
// emitted (consumed crossed half of the receiver queue size).
func (f *flowController) increase(delta int32) (toSend int32, shouldSend bool) {
	if delta <= 0 {
		return 0, false
	}
	f.consumed += delta
	if f.receiverQueueSize > 0 && f.consumed >= f.receiverQueueSize/2 {
		toSend = f.consumed
		f.consumed = 0
		return toSend, true
	}
	return 0, false
}

// initialFlow returns the permits to request right after a successful
// subscribe (§4.1 step 5): the full receiver queue size, if any.
func (f *flowController) initialFlow() (toSend int32, shouldSend bool) {
	if f.receiverQueueSize > 0 {
		return f.receiverQueueSize, true
	}
	return 0, false
}
