package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ClientTLSConfig is the dial-side counterpart of the teacher's server TLS
// config (config/tls/config.go): a root CA bundle plus an optional client
// certificate for mTLS, instead of a server cert/key pair.
type ClientTLSConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ServerName     string `yaml:"server_name"`
	CACertPEMPath  string `yaml:"ca_cert_pem_path"`
	ClientCertPath string `yaml:"client_cert_pem_path"`
	ClientKeyPath  string `yaml:"client_key_pem_path"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

func (c *ClientTLSConfig) Parse() (*tls.Config, error) {
	if !c.Enabled {
		return nil, nil
	}

	conf := &tls.Config{
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.InsecureSkipVerify,
		NextProtos:         []string{"fujin"},
	}

	if c.CACertPEMPath != "" {
		pem, err := os.ReadFile(c.CACertPEMPath)
		if err != nil {
			return nil, fmt.Errorf("read ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("parse ca cert: no certificates found in %s", c.CACertPEMPath)
		}
		conf.RootCAs = pool
	}

	if c.ClientCertPath != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCertPath, c.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load client key pair: %w", err)
		}
		conf.Certificates = []tls.Certificate{cert}
	}

	return conf, nil
}
