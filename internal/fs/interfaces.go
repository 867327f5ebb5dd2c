package fs

import (
	fusefs "bazil.org/fuse/fs"
)

// Compile-time checks that the node set implements the FUSE surface:
// stat, lookup, listing and reading, plus the rejected mutating verbs.
var (
	_ fusefs.FS = (*LdapFS)(nil)

	_ fusefs.Node               = (*Dir)(nil)
	_ fusefs.NodeStringLookuper = (*Dir)(nil)
	_ fusefs.HandleReadDirAller = (*Dir)(nil)
	_ fusefs.NodeMkdirer        = (*Dir)(nil)
	_ fusefs.NodeCreater        = (*Dir)(nil)
	_ fusefs.NodeRemover        = (*Dir)(nil)
	_ fusefs.NodeRenamer        = (*Dir)(nil)
	_ fusefs.NodeSymlinker      = (*Dir)(nil)
	_ fusefs.NodeSetattrer      = (*Dir)(nil)

	_ fusefs.Node          = (*File)(nil)
	_ fusefs.NodeOpener    = (*File)(nil)
	_ fusefs.NodeSetattrer = (*File)(nil)

	_ fusefs.Handle         = (*FileHandle)(nil)
	_ fusefs.HandleReader   = (*FileHandle)(nil)
	_ fusefs.HandleWriter   = (*FileHandle)(nil)
	_ fusefs.HandleReleaser = (*FileHandle)(nil)
)
