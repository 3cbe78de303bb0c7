package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTLSConfigParseDisabledReturnsNil(t *testing.T) {
	c := ClientTLSConfig{Enabled: false}
	conf, err := c.Parse()
	require.NoError(t, err)
	assert.Nil(t, conf)
}

func TestClientTLSConfigParseEnabledWithoutCAOrCertReturnsBareConfig(t *testing.T) {
	c := ClientTLSConfig{Enabled: true, ServerName: "broker.internal"}
	conf, err := c.Parse()
	require.NoError(t, err)
	require.NotNil(t, conf)
	assert.Equal(t, "broker.internal", conf.ServerName)
	assert.Nil(t, conf.RootCAs)
	assert.Empty(t, conf.Certificates)
	assert.Contains(t, conf.NextProtos, "fujin")
}

func TestClientTLSConfigParseReturnsErrorForMissingCAFile(t *testing.T) {
	c := ClientTLSConfig{Enabled: true, CACertPEMPath: filepath.Join(t.TempDir(), "missing.pem")}
	_, err := c.Parse()
	assert.Error(t, err)
}

func TestClientTLSConfigParseReturnsErrorForInvalidCAPEM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a pem"), 0o600))

	c := ClientTLSConfig{Enabled: true, CACertPEMPath: path}
	_, err := c.Parse()
	assert.Error(t, err)
}
