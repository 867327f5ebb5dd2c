package directory

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"ldapfs/internal/logging"

	"github.com/go-ldap/ldap/v3"
)

var poolLogger = logging.GetLogger().WithPrefix("pool")

// ErrPoolClosed is returned by Get after Close has been called.
var ErrPoolClosed = errors.New("session pool closed")

// PoolOptions bounds the pool. Size caps the number of in-flight queries
// against one server; Timeout applies to dialing, binding and every query.
type PoolOptions struct {
	Size    int
	Timeout time.Duration
}

// Pool is a bounded pool of bind sessions to a single server. A session is
// borrowed exclusively for one query and returned on completion; LDAP
// connections are not assumed safe for concurrent use. Sessions are dialed
// lazily on first demand.
type Pool struct {
	server Server
	opts   PoolOptions
	slots  chan struct{} // admission control, one token per in-flight session

	mu     sync.Mutex
	idle   []*ldap.Conn
	closed bool
}

// NewPool creates a session pool for the given server.
func NewPool(server Server, opts PoolOptions) *Pool {
	if opts.Size <= 0 {
		opts.Size = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Pool{
		server: server,
		opts:   opts,
		slots:  make(chan struct{}, opts.Size),
	}
}

// Get borrows a session, dialing a new one if no idle session is available.
// It blocks while the pool is at capacity until a slot frees or ctx ends.
func (p *Pool) Get(ctx context.Context) (*ldap.Conn, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.slots
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	conn, err := p.dial()
	if err != nil {
		<-p.slots
		return nil, err
	}
	return conn, nil
}

// Put returns a borrowed session. Sessions that failed at the network level
// are discarded so the next Get dials fresh.
func (p *Pool) Put(conn *ldap.Conn, err error) {
	defer func() { <-p.slots }()

	if conn == nil {
		return
	}
	if err != nil && ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
		poolLogger.Debug("Discarding session to %s after network error: %v", p.server.URL(), err)
		conn.Close()
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return
	}
	p.idle = append(p.idle, conn)
	p.mu.Unlock()
}

// Close tears down all idle sessions. Borrowed sessions are closed as they
// are returned.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for _, conn := range p.idle {
		conn.Close()
	}
	p.idle = nil
}

func (p *Pool) dial() (*ldap.Conn, error) {
	poolLogger.Debug("Dialing %s", p.server.URL())
	conn, err := ldap.DialURL(p.server.URL(),
		ldap.DialWithDialer(&net.Dialer{Timeout: p.opts.Timeout}))
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(p.opts.Timeout)

	if p.server.BindDN != "" {
		if err := conn.Bind(p.server.BindDN, p.server.BindPassword); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}
