// Package schema provides the default JSON schema provider shipped with
// this module, backed by bytedance/sonic for the same speed rationale the
// teacher applies to its wire path (client/msg.go's raw []byte pass-through
// is the closest analog: this package is what call sites reach for once
// they want a typed value instead of raw bytes).
package schema

import (
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/brokerclient/go-consumer/consumer"
)

// JSONProvider decodes payloads as JSON into T using sonic. It supports
// per-schema-version overrides for callers migrating a topic's payload
// shape without breaking older consumers still on the wire.
type JSONProvider[T any] struct {
	mu       sync.RWMutex
	base     consumer.Decoder[T]
	versions map[string]consumer.Decoder[T]
}

// NewJSONProvider builds a provider whose base decoder unmarshals JSON
// directly into T via sonic's ConfigDefault API.
func NewJSONProvider[T any]() *JSONProvider[T] {
	return &JSONProvider[T]{
		base: func(payload []byte) (T, error) {
			var v T
			if err := sonic.Unmarshal(payload, &v); err != nil {
				return v, fmt.Errorf("schema: json decode: %w", err)
			}
			return v, nil
		},
		versions: make(map[string]consumer.Decoder[T]),
	}
}

// RegisterVersion adds a decoder used only for messages tagged with the
// given schema version, letting a consumer transparently read old and new
// payload shapes off the same topic.
func (p *JSONProvider[T]) RegisterVersion(version string, decode consumer.Decoder[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.versions[version] = decode
}

// BaseDecoder satisfies consumer.SchemaProvider.
func (p *JSONProvider[T]) BaseDecoder() consumer.Decoder[T] {
	return p.base
}

// DecoderForVersion satisfies consumer.SchemaProvider.
func (p *JSONProvider[T]) DecoderForVersion(version []byte) (consumer.Decoder[T], bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.versions[string(version)]
	return d, ok
}
