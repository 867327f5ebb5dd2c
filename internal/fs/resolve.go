package fs

import (
	"context"
	"fmt"

	"ldapfs/internal/directory"
	"ldapfs/internal/logging"
)

// NodeKind tags the variant of a resolved filesystem object.
type NodeKind int

const (
	// KindRoot is the filesystem root listing the mount roots
	KindRoot NodeKind = iota
	// KindMountRoot is the directory of a mount's base entry
	KindMountRoot
	// KindEntryDir is the directory of an entry below a mount root
	KindEntryDir
	// KindAttrFile is one attribute of an entry
	KindAttrFile
	// KindAggregateFile is the synthetic .attributes file of an entry
	KindAggregateFile
)

// VfsNode is the tagged result of path resolution. Exactly one variant
// corresponds to any resolvable path. Nodes carry identity only (mount,
// DN, attribute name); entry data is fetched fresh by each filesystem
// call, never retained.
type VfsNode struct {
	Kind  NodeKind
	Mount *Mount // nil only for KindRoot
	DN    string // the entry's DN; the base DN for KindMountRoot
	Attr  string // attribute name, set only for KindAttrFile
}

// IsDir reports whether the node is listed and descended into as a
// directory.
func (n *VfsNode) IsDir() bool {
	switch n.Kind {
	case KindRoot, KindMountRoot, KindEntryDir:
		return true
	default:
		return false
	}
}

// Resolver maps filesystem paths onto directory entries. Resolution is
// stateless: each call walks from a mount root, issuing one one-level
// query per segment.
type Resolver struct {
	registry *Registry
	provider *Provider
	log      *logging.Logger
}

// NewResolver creates a resolver over the given registry and provider.
func NewResolver(registry *Registry, provider *Provider) *Resolver {
	return &Resolver{
		registry: registry,
		provider: provider,
		log:      logging.GetLogger().WithPrefix("resolver"),
	}
}

// Resolve maps a full path to its VfsNode. Intermediate segments must
// resolve to entries; a file variant mid-path fails NotFound since files
// have no children.
func (r *Resolver) Resolve(ctx context.Context, path *FSPath) (*VfsNode, error) {
	node := &VfsNode{Kind: KindRoot}
	for i := 0; i < path.Len(); i++ {
		if !node.IsDir() {
			return nil, NewError(OpResolve, path.String(),
				fmt.Errorf("%w: %q is not a directory", ErrNotFound, path.Segment(i-1)))
		}
		child, err := r.ResolveChild(ctx, node, path.Segment(i))
		if err != nil {
			return nil, err
		}
		node = child
	}
	return node, nil
}

// ResolveChild resolves a single name under a directory node. The name is
// matched in order against: the aggregate file name, an attribute of the
// entry, a child entry's relative name. A name that is both an attribute
// and a child resolves to the attribute; the collision is logged as a
// consistency warning, not an error.
func (r *Resolver) ResolveChild(ctx context.Context, dir *VfsNode, name string) (*VfsNode, error) {
	r.log.Trace("Resolving %q under kind=%d dn=%q", name, dir.Kind, dir.DN)

	if dir.Kind == KindRoot {
		mount, ok := r.registry.Lookup(name)
		if !ok {
			return nil, NewError(OpResolve, "/"+name,
				fmt.Errorf("%w: no mount named %q", ErrNotFound, name))
		}
		return &VfsNode{Kind: KindMountRoot, Mount: mount, DN: mount.BaseDN}, nil
	}

	if name == AggregateName {
		return &VfsNode{Kind: KindAggregateFile, Mount: dir.Mount, DN: dir.DN}, nil
	}

	entry, err := r.provider.Entry(ctx, dir.Mount, dir.DN)
	if err != nil {
		return nil, err
	}

	rdn := UnescapeName(name)

	if _, ok := entry.Lookup(name); ok {
		if child, cerr := r.matchChild(ctx, dir, rdn); cerr == nil && child != nil {
			r.log.Warn("Name %q under dn=%q is both an attribute and a child entry; attribute takes precedence",
				name, dir.DN)
		}
		return &VfsNode{Kind: KindAttrFile, Mount: dir.Mount, DN: dir.DN, Attr: name}, nil
	}

	child, err := r.matchChild(ctx, dir, rdn)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, NewError(OpResolve, dir.DN,
			fmt.Errorf("%w: no attribute or child %q", ErrNotFound, name))
	}
	return &VfsNode{Kind: KindEntryDir, Mount: dir.Mount, DN: child.DN}, nil
}

// matchChild finds the child of dir whose relative name equals rdn.
// Returns nil when absent. Two siblings sharing the name is a
// protocol-layer anomaly and fails ErrAmbiguousEntry rather than silently
// picking one.
func (r *Resolver) matchChild(ctx context.Context, dir *VfsNode, rdn string) (*directory.Entry, error) {
	children, err := r.provider.Children(ctx, dir.Mount, dir.DN)
	if err != nil {
		return nil, err
	}

	var found *directory.Entry
	for _, child := range children {
		if child.RDN != rdn {
			continue
		}
		if found != nil {
			return nil, NewError(OpResolve, dir.DN,
				fmt.Errorf("%w: %q names both %q and %q", ErrAmbiguousEntry, rdn, found.DN, child.DN))
		}
		found = child
	}
	return found, nil
}
