package consumer

import "time"

// SeekTarget is either a broker timestamp or a specific MessageID (§4).
type SeekTarget struct {
	Timestamp *uint64
	ID        *MessageID
}

type receiveResult[T any] struct {
	msg *Message[T]
	err error
}

type batchReceiveResult[T any] struct {
	msgs Messages[T]
	err  error
}

type batchWaiter[T any] struct {
	reply     chan batchReceiveResult[T]
	timer     *time.Timer
	cancelled bool
}

func (w *batchWaiter[T]) cancel() {
	w.cancelled = true
	if w.timer != nil {
		w.timer.Stop()
	}
}
