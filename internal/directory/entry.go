// Package directory implements the LDAP collaborator: bind sessions to the
// configured servers and the two query shapes the filesystem core consumes,
// a single-entry fetch and a one-level children search.
package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Attribute is one named attribute of an entry. Values are opaque byte
// strings carried exactly as received from the wire; order is preserved.
type Attribute struct {
	Name   string
	Values []string
}

// Entry is a single directory entry: its full DN, its own relative name,
// and its attributes in server order. Attribute names within one entry are
// unique by protocol invariant; this is assumed, not enforced.
type Entry struct {
	DN         string
	RDN        string
	Attributes []Attribute
}

// Lookup returns the values of the named attribute, preserving order.
func (e *Entry) Lookup(name string) ([]string, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Values, true
		}
	}
	return nil, false
}

// Names returns the attribute names in server order.
func (e *Entry) Names() []string {
	names := make([]string, len(e.Attributes))
	for i, a := range e.Attributes {
		names[i] = a.Name
	}
	return names
}

// FirstRDN extracts the leading relative name of a DN, e.g.
// "uid=alice" from "uid=alice,ou=people,dc=example,dc=com".
// Multi-valued RDNs keep their "+" form.
func FirstRDN(dn string) (string, error) {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN %q: %w", dn, err)
	}
	if len(parsed.RDNs) == 0 {
		return "", fmt.Errorf("empty DN %q", dn)
	}
	parts := make([]string, len(parsed.RDNs[0].Attributes))
	for i, ava := range parsed.RDNs[0].Attributes {
		parts[i] = ava.Type + "=" + ava.Value
	}
	return strings.Join(parts, "+"), nil
}

// ChildDN composes the DN of a child entry from its relative name and its
// parent's DN.
func ChildDN(rdn, parentDN string) string {
	if parentDN == "" {
		return rdn
	}
	return rdn + "," + parentDN
}

// ValidateDN reports whether dn is syntactically a valid distinguished name.
func ValidateDN(dn string) error {
	if _, err := ldap.ParseDN(dn); err != nil {
		return fmt.Errorf("invalid DN %q: %w", dn, err)
	}
	return nil
}
