package fs

import (
	"context"
	"errors"
	"fmt"

	"ldapfs/internal/directory"
	"ldapfs/internal/logging"
)

// Provider fetches one entry's attributes or its immediate children
// through the mount's directory client, translating collaborator failures
// into the filesystem taxonomy. It holds no cache; every call goes to the
// server.
type Provider struct {
	log *logging.Logger
}

// NewProvider creates the entry provider.
func NewProvider() *Provider {
	return &Provider{log: logging.GetLogger().WithPrefix("provider")}
}

// Entry fetches the entry at dn with its attributes.
func (p *Provider) Entry(ctx context.Context, m *Mount, dn string) (*directory.Entry, error) {
	entry, err := m.Client.FetchEntry(ctx, dn)
	if err != nil {
		p.log.Debug("Fetch failed for dn=%q on mount %q: %v", dn, m.Name, err)
		return nil, NewError(OpFetch, dn, mapDirectoryError(err))
	}
	return entry, nil
}

// Children fetches the immediate children of dn, one level deep only.
func (p *Provider) Children(ctx context.Context, m *Mount, dn string) ([]*directory.Entry, error) {
	children, err := m.Client.SearchChildren(ctx, dn)
	if err != nil {
		p.log.Debug("Children search failed for dn=%q on mount %q: %v", dn, m.Name, err)
		return nil, NewError(OpSearch, dn, mapDirectoryError(err))
	}
	return children, nil
}

// mapDirectoryError keeps a vanished entry distinguishable from transient
// failure: absence is NotFound, everything else is Upstream.
func mapDirectoryError(err error) error {
	if errors.Is(err, directory.ErrNoSuchEntry) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
