package directory

import (
	"context"
	"errors"
	"fmt"

	"ldapfs/internal/logging"

	"github.com/go-ldap/ldap/v3"
)

var (
	clientLogger = logging.GetLogger().WithPrefix("ldap")

	// ErrNoSuchEntry indicates the requested entry does not exist, or
	// vanished between resolution steps.
	ErrNoSuchEntry = errors.New("no such entry")

	// ErrUnavailable indicates a connection, bind or timeout failure.
	ErrUnavailable = errors.New("directory unavailable")
)

// presentFilter matches every entry; scoping is done by search scope, not
// by filter.
const presentFilter = "(objectClass=*)"

// Server identifies one configured LDAP server and its bind credentials.
type Server struct {
	Host         string
	Port         int
	BindDN       string
	BindPassword string
}

// URL returns the ldap:// URL for the server.
func (s Server) URL() string {
	return fmt.Sprintf("ldap://%s:%d", s.Host, s.Port)
}

// Client is the protocol surface consumed by the filesystem core. Both
// queries are scoped to exactly one entry or one level; nothing recursive.
// Failures are distinguishable via ErrNoSuchEntry and ErrUnavailable.
type Client interface {
	// FetchEntry retrieves the entry at dn with its attributes.
	FetchEntry(ctx context.Context, dn string) (*Entry, error)

	// SearchChildren retrieves the immediate children of dn, names only.
	SearchChildren(ctx context.Context, dn string) ([]*Entry, error)

	// Close tears down all sessions held for this server.
	Close()
}

type ldapClient struct {
	server Server
	pool   *Pool
	log    *logging.Logger
}

// NewClient returns a Client for the given server backed by a bounded
// session pool.
func NewClient(server Server, opts PoolOptions) Client {
	return &ldapClient{
		server: server,
		pool:   NewPool(server, opts),
		log:    clientLogger,
	}
}

func (c *ldapClient) FetchEntry(ctx context.Context, dn string) (*Entry, error) {
	c.log.Debug("Fetching entry dn=%q from %s", dn, c.server.URL())

	var entry *Entry
	err := c.withSession(ctx, func(conn *ldap.Conn) error {
		req := ldap.NewSearchRequest(
			dn,
			ldap.ScopeBaseObject, ldap.NeverDerefAliases, 0, 0, false,
			presentFilter,
			[]string{"*"},
			nil,
		)
		res, err := conn.Search(req)
		if err != nil {
			return err
		}
		if len(res.Entries) == 0 {
			return fmt.Errorf("%w: dn=%q", ErrNoSuchEntry, dn)
		}
		entry = fromWireEntry(res.Entries[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (c *ldapClient) SearchChildren(ctx context.Context, dn string) ([]*Entry, error) {
	c.log.Debug("Searching children of dn=%q on %s", dn, c.server.URL())

	var children []*Entry
	err := c.withSession(ctx, func(conn *ldap.Conn) error {
		req := ldap.NewSearchRequest(
			dn,
			ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
			presentFilter,
			// "1.1" requests no attributes; a listing needs names only
			[]string{"1.1"},
			nil,
		)
		res, err := conn.Search(req)
		if err != nil {
			return err
		}
		children = make([]*Entry, 0, len(res.Entries))
		for _, le := range res.Entries {
			children = append(children, fromWireEntry(le))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (c *ldapClient) Close() {
	c.log.Debug("Closing sessions to %s", c.server.URL())
	c.pool.Close()
}

// withSession borrows a session for exactly one query and maps protocol
// errors into the package's error kinds.
func (c *ldapClient) withSession(ctx context.Context, fn func(*ldap.Conn) error) error {
	conn, err := c.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	err = fn(conn)
	c.pool.Put(conn, err)
	return mapProtocolError(err)
}

// mapProtocolError funnels go-ldap errors into ErrNoSuchEntry or
// ErrUnavailable so callers never see wire-level error codes.
func mapProtocolError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoSuchEntry):
		return err
	case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject):
		return fmt.Errorf("%w: %v", ErrNoSuchEntry, err)
	case ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidDNSyntax):
		// A name that cannot be a DN cannot name an entry.
		return fmt.Errorf("%w: %v", ErrNoSuchEntry, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// fromWireEntry converts a go-ldap entry, preserving attribute order.
func fromWireEntry(le *ldap.Entry) *Entry {
	e := &Entry{DN: le.DN}
	if rdn, err := FirstRDN(le.DN); err == nil {
		e.RDN = rdn
	} else {
		clientLogger.Warn("Unparseable DN from server: %q: %v", le.DN, err)
		e.RDN = le.DN
	}
	e.Attributes = make([]Attribute, 0, len(le.Attributes))
	for _, a := range le.Attributes {
		e.Attributes = append(e.Attributes, Attribute{Name: a.Name, Values: a.Values})
	}
	return e
}
