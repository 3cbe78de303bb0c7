package consumer

import "fmt"

// zeroValueSchemaProvider is the fallback used when no SchemaProvider option
// is given: it refuses to decode, forcing callers who want a typed value to
// either configure package schema's sonic-backed provider or a custom one.
// Consumers that only read raw bytes (T = []byte) never call Value().
type zeroValueSchemaProvider[T any] struct{}

func (zeroValueSchemaProvider[T]) BaseDecoder() Decoder[T] {
	return func(payload []byte) (T, error) {
		var zero T
		return zero, fmt.Errorf("consumer: no schema provider configured")
	}
}

func (zeroValueSchemaProvider[T]) DecoderForVersion(version []byte) (Decoder[T], bool) {
	return nil, false
}
