package transport

import "errors"

var (
	ErrConnClosed = errors.New("transport: connection closed")
	ErrTimeout    = errors.New("transport: timeout")
)
