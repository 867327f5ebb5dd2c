package fs

import (
	"fmt"

	"ldapfs/internal/directory"
	"ldapfs/internal/logging"
)

var mountLogger = logging.GetLogger().WithPrefix("mount")

// Mount is one configured mount root: the visible name it is exposed
// under, the base DN of the subtree, and the client bound to the owning
// server. Mounts are created once at startup and never change.
type Mount struct {
	Name   string
	BaseDN string
	Client directory.Client
}

// Registry holds the configured mount roots and exposes them as the top
// level of the tree. Visible names are pairwise unique; a duplicate is a
// configuration failure that prevents mounting.
type Registry struct {
	mounts []*Mount
	byName map[string]*Mount
}

// NewRegistry validates the mount set and builds the registry.
func NewRegistry(mounts []*Mount) (*Registry, error) {
	byName := make(map[string]*Mount, len(mounts))
	for _, m := range mounts {
		if _, dup := byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMount, m.Name)
		}
		byName[m.Name] = m
		mountLogger.Debug("Registered mount %q -> %q", m.Name, m.BaseDN)
	}
	return &Registry{mounts: mounts, byName: byName}, nil
}

// Roots returns the mount roots in configuration order.
func (r *Registry) Roots() []*Mount {
	return r.mounts
}

// Lookup finds a mount root by its visible name.
func (r *Registry) Lookup(name string) (*Mount, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Close tears down every mount's directory client.
func (r *Registry) Close() {
	for _, m := range r.mounts {
		if m.Client != nil {
			m.Client.Close()
		}
	}
}
