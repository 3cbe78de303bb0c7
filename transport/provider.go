package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brokerclient/go-consumer/consumer"
)

// LookupFunc resolves a topic to the broker address that currently owns
// it. The core treats this as external (§1's "connection pool + lookup
// service collaborator" is out of core scope); a static single-broker
// lookup is provided via NewStaticLookup for the common case.
type LookupFunc func(ctx context.Context, topic string) (addr string, err error)

func NewStaticLookup(addr string) LookupFunc {
	return func(context.Context, string) (string, error) { return addr, nil }
}

// Provider implements consumer.ConnectionProvider: one dialed *Conn per
// broker address, reused across consumers on the same broker, redialed on
// demand when a stale one is discovered closed.
type Provider struct {
	lookup   LookupFunc
	tlsConf  *tls.Config
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[string]*BrokerCnx
}

func NewProvider(lookup LookupFunc, tlsConf *tls.Config, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		lookup:  lookup,
		tlsConf: tlsConf,
		logger:  logger,
		conns:   make(map[string]*BrokerCnx),
	}
}

func (p *Provider) GetConnection(ctx context.Context, topic string) (consumer.ClientCnx, error) {
	addr, err := p.lookup(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("transport: lookup %s: %w", topic, err)
	}

	p.mu.Lock()
	if cnx, ok := p.conns[addr]; ok && cnx.IsReady() {
		p.mu.Unlock()
		return cnx, nil
	}
	p.mu.Unlock()

	conn, err := DialConn(ctx, addr, p.tlsConf, p.logger)
	if err != nil {
		return nil, err
	}
	cnx := NewBrokerCnx(conn, p.logger)

	p.mu.Lock()
	p.conns[addr] = cnx
	p.mu.Unlock()

	return cnx, nil
}

// Close tears down every dialed connection, for use at application
// shutdown once every consumer built from this provider has closed.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for addr, cnx := range p.conns {
		if err := cnx.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, addr)
	}
	return firstErr
}
