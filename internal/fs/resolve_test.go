package fs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ldapfs/internal/directory"
)

func TestResolveVariants(t *testing.T) {
	vfs, _ := newTestFS(t)
	ctx := context.Background()

	tests := []struct {
		name string
		path string
		kind NodeKind
		dn   string
		attr string
	}{
		{
			name: "root",
			path: "/",
			kind: KindRoot,
		},
		{
			name: "mount root",
			path: "/corp",
			kind: KindMountRoot,
			dn:   corpBase,
		},
		{
			name: "entry directory",
			path: "/corp/ou=people",
			kind: KindEntryDir,
			dn:   "ou=people," + corpBase,
		},
		{
			name: "nested entry directory",
			path: "/corp/ou=people/uid=alice",
			kind: KindEntryDir,
			dn:   "uid=alice,ou=people," + corpBase,
		},
		{
			name: "attribute file",
			path: "/corp/ou=people/uid=alice/cn",
			kind: KindAttrFile,
			dn:   "uid=alice,ou=people," + corpBase,
			attr: "cn",
		},
		{
			name: "aggregate file",
			path: "/corp/ou=people/.attributes",
			kind: KindAggregateFile,
			dn:   "ou=people," + corpBase,
		},
		{
			name: "aggregate of mount root",
			path: "/demo/.attributes",
			kind: KindAggregateFile,
			dn:   demoBase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := vfs.resolver.Resolve(ctx, NewFSPath(tt.path))
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.path, err)
			}
			if node.Kind != tt.kind {
				t.Errorf("Expected kind %d, got %d", tt.kind, node.Kind)
			}
			if node.DN != tt.dn {
				t.Errorf("Expected dn %q, got %q", tt.dn, node.DN)
			}
			if node.Attr != tt.attr {
				t.Errorf("Expected attr %q, got %q", tt.attr, node.Attr)
			}
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	vfs, _ := newTestFS(t)
	ctx := context.Background()

	tests := []struct {
		name string
		path string
	}{
		{name: "unknown mount", path: "/nosuch"},
		{name: "unknown child", path: "/corp/ou=nosuch"},
		{name: "unknown attribute", path: "/corp/ou=people/uid=alice/mail"},
		{name: "missing intermediate segment", path: "/corp/ou=nosuch/uid=alice"},
		{name: "descending into a file", path: "/corp/ou=people/.attributes/cn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := vfs.resolver.Resolve(ctx, NewFSPath(tt.path))
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Resolve(%q): expected ErrNotFound, got %v", tt.path, err)
			}
		})
	}
}

func TestResolveAmbiguousSiblings(t *testing.T) {
	vfs, _ := newTestFS(t)

	// Two siblings under ou=people share the relative name uid=bob; the
	// resolver must refuse rather than pick one.
	_, err := vfs.resolver.Resolve(context.Background(), NewFSPath("/corp/ou=people/uid=bob"))
	if !errors.Is(err, ErrAmbiguousEntry) {
		t.Errorf("Expected ErrAmbiguousEntry, got %v", err)
	}
}

func TestResolveAttributePrecedence(t *testing.T) {
	vfs, _ := newTestFS(t)

	// "shared" names both an attribute of ou=conflict and one of its
	// children; the attribute wins.
	node, err := vfs.resolver.Resolve(context.Background(), NewFSPath("/corp/ou=conflict/shared"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if node.Kind != KindAttrFile {
		t.Errorf("Expected attribute file, got kind %d", node.Kind)
	}
	if node.Attr != "shared" {
		t.Errorf("Expected attr %q, got %q", "shared", node.Attr)
	}
}

func TestResolveRoundTrip(t *testing.T) {
	vfs, _ := newTestFS(t)
	ctx := context.Background()

	// Every reachable entry resolves back to its own DN via the path
	// built from its chain of escaped relative names.
	tests := []struct {
		path string
		dn   string
	}{
		{path: "/corp", dn: corpBase},
		{path: "/corp/ou=people", dn: "ou=people," + corpBase},
		{path: "/corp/ou=people/uid=alice", dn: "uid=alice,ou=people," + corpBase},
		{path: "/corp/" + EscapeName("cn=intranet/web"), dn: "cn=intranet/web," + corpBase},
		{path: "/demo/ou=people", dn: "ou=people," + demoBase},
	}

	for _, tt := range tests {
		node, err := vfs.resolver.Resolve(ctx, NewFSPath(tt.path))
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", tt.path, err)
			continue
		}
		if node.DN != tt.dn {
			t.Errorf("Resolve(%q) = %q, expected %q", tt.path, node.DN, tt.dn)
		}
	}
}

func TestResolveUpstreamFailure(t *testing.T) {
	vfs, fc := newTestFS(t)
	fc.fail = fmt.Errorf("%w: connection reset", directory.ErrUnavailable)

	_, err := vfs.resolver.Resolve(context.Background(), NewFSPath("/corp/ou=people"))
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}
