package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONProviderBaseDecoderUnmarshals(t *testing.T) {
	p := NewJSONProvider[widget]()
	v, err := p.BaseDecoder()([]byte(`{"name":"bolt","count":3}`))
	require.NoError(t, err)
	assert.Equal(t, widget{Name: "bolt", Count: 3}, v)
}

func TestJSONProviderBaseDecoderRejectsInvalidJSON(t *testing.T) {
	p := NewJSONProvider[widget]()
	_, err := p.BaseDecoder()([]byte(`not json`))
	assert.Error(t, err)
}

func TestJSONProviderDecoderForVersionMissReturnsFalse(t *testing.T) {
	p := NewJSONProvider[widget]()
	_, ok := p.DecoderForVersion([]byte("v2"))
	assert.False(t, ok)
}

func TestJSONProviderRegisterVersionOverridesDecode(t *testing.T) {
	p := NewJSONProvider[widget]()
	p.RegisterVersion("v2", func(payload []byte) (widget, error) {
		return widget{Name: "from-v2", Count: -1}, nil
	})

	d, ok := p.DecoderForVersion([]byte("v2"))
	require.True(t, ok)
	v, err := d([]byte(`{"name":"ignored"}`))
	require.NoError(t, err)
	assert.Equal(t, widget{Name: "from-v2", Count: -1}, v)

	_, ok = p.DecoderForVersion([]byte("v1"))
	assert.False(t, ok)
}
