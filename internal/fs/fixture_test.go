package fs

import (
	"context"
	"fmt"
	"testing"

	"ldapfs/internal/directory"
)

// fakeClient is an in-memory directory.Client serving a fixed tree.
type fakeClient struct {
	entries  map[string]*directory.Entry   // dn -> entry
	children map[string][]*directory.Entry // dn -> immediate children
	fail     error                         // when set, every query fails with it
}

func (f *fakeClient) FetchEntry(_ context.Context, dn string) (*directory.Entry, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	e, ok := f.entries[dn]
	if !ok {
		return nil, fmt.Errorf("%w: dn=%q", directory.ErrNoSuchEntry, dn)
	}
	return e, nil
}

func (f *fakeClient) SearchChildren(_ context.Context, dn string) ([]*directory.Entry, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if _, ok := f.entries[dn]; !ok {
		return nil, fmt.Errorf("%w: dn=%q", directory.ErrNoSuchEntry, dn)
	}
	return f.children[dn], nil
}

func (f *fakeClient) Close() {}

func (f *fakeClient) add(parentDN, dn, rdn string, attrs ...directory.Attribute) *directory.Entry {
	e := &directory.Entry{DN: dn, RDN: rdn, Attributes: attrs}
	f.entries[dn] = e
	if parentDN != "" {
		f.children[parentDN] = append(f.children[parentDN], e)
	}
	return e
}

const (
	corpBase = "dc=example,dc=com"
	demoBase = "dc=demo,dc=test"
)

// newTestClient builds the fixture tree:
//
//	corp (dc=example,dc=com)
//	├── ou=people
//	│   ├── uid=alice            cn, objectClass, uid
//	│   ├── uid=bob              (twice: ambiguous siblings)
//	│   └── uid=bob
//	├── cn=intranet%2Fweb        relative name containing '/'
//	└── ou=conflict              attribute "shared" and child named "shared"
//	demo (dc=demo,dc=test)       cn, objectClass; child ou=people
func newTestClient() *fakeClient {
	fc := &fakeClient{
		entries:  make(map[string]*directory.Entry),
		children: make(map[string][]*directory.Entry),
	}

	fc.add("", corpBase, "dc=example",
		directory.Attribute{Name: "dc", Values: []string{"example"}},
		directory.Attribute{Name: "objectClass", Values: []string{"top", "domain"}},
	)
	fc.add(corpBase, "ou=people,"+corpBase, "ou=people",
		directory.Attribute{Name: "ou", Values: []string{"people"}},
		directory.Attribute{Name: "objectClass", Values: []string{"top", "organizationalUnit"}},
	)
	fc.add("ou=people,"+corpBase, "uid=alice,ou=people,"+corpBase, "uid=alice",
		directory.Attribute{Name: "cn", Values: []string{"Alice Liddell"}},
		directory.Attribute{Name: "objectClass", Values: []string{"top", "person"}},
		directory.Attribute{Name: "uid", Values: []string{"alice"}},
	)
	// Sibling collision: same relative name, distinct entries.
	fc.add("ou=people,"+corpBase, "uid=bob,ou=people,"+corpBase, "uid=bob")
	fc.add("ou=people,"+corpBase, "uid=BOB,ou=people,"+corpBase, "uid=bob")

	fc.add(corpBase, "cn=intranet/web,"+corpBase, "cn=intranet/web",
		directory.Attribute{Name: "cn", Values: []string{"intranet/web"}},
	)

	fc.add(corpBase, "ou=conflict,"+corpBase, "ou=conflict",
		directory.Attribute{Name: "ou", Values: []string{"conflict"}},
		directory.Attribute{Name: "shared", Values: []string{"attribute wins"}},
	)
	fc.add("ou=conflict,"+corpBase, "shared,ou=conflict,"+corpBase, "shared")

	fc.add("", demoBase, "dc=demo",
		directory.Attribute{Name: "cn", Values: []string{"demo"}},
		directory.Attribute{Name: "objectClass", Values: []string{"top", "domain"}},
	)
	fc.add(demoBase, "ou=people,"+demoBase, "ou=people",
		directory.Attribute{Name: "ou", Values: []string{"people"}},
	)

	return fc
}

// newTestFS builds a filesystem over the fixture tree with two mounts.
func newTestFS(t *testing.T) (*LdapFS, *fakeClient) {
	t.Helper()

	fc := newTestClient()
	registry, err := NewRegistry([]*Mount{
		{Name: "corp", BaseDN: corpBase, Client: fc},
		{Name: "demo", BaseDN: demoBase, Client: fc},
	})
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	return NewLdapFS(registry), fc
}
