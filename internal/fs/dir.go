package fs

import (
	"context"
	"os"

	"ldapfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var dirLogger = logging.GetLogger().WithPrefix("dir")

// DirSize is the conventional stat size reported for directories.
const DirSize = 4096

// Dir is a directory node: the filesystem root, a mount root, or an entry
// directory. It carries identity only; listings and child lookups query
// the directory server fresh on every call.
type Dir struct {
	fs   *LdapFS
	node *VfsNode
	path *FSPath
}

// Attr implements the Node interface, returning directory attributes.
// Directories are read+execute only.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("Getting attributes for directory: %q", d.path.String())

	a.Mode = os.ModeDir | 0o555
	a.Size = DirSize
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid
	return nil
}

// Lookup implements the NodeStringLookuper interface, resolving one name
// under this directory.
func (d *Dir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	dirLogger.Debug("Looking up %q in %q", name, d.path.String())

	node, err := d.fs.resolver.ResolveChild(ctx, d.node, name)
	if err != nil {
		dirLogger.Debug("Lookup of %q in %q failed: %v", name, d.path.String(), err)
		return nil, ToFuseError(err)
	}

	childPath := d.path.Child(name)
	if node.IsDir() {
		return &Dir{fs: d.fs, node: node, path: childPath}, nil
	}
	return &File{fs: d.fs, node: node, path: childPath}, nil
}

// ReadDirAll implements the HandleReadDirAller interface. A directory
// lists its child entries' relative names, the entry's attribute names and
// the aggregate file, each exactly once. The aggregate name shadows
// everything; an attribute shadows a same-named child.
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("Reading directory contents: %q", d.path.String())

	entries := []fuse.Dirent{
		{Name: ".", Type: fuse.DT_Dir},
		{Name: "..", Type: fuse.DT_Dir},
	}

	if d.node.Kind == KindRoot {
		for _, m := range d.fs.registry.Roots() {
			entries = append(entries, fuse.Dirent{Name: m.Name, Type: fuse.DT_Dir})
		}
		return entries, nil
	}

	entry, err := d.fs.provider.Entry(ctx, d.node.Mount, d.node.DN)
	if err != nil {
		dirLogger.Debug("Readdir of %q failed: %v", d.path.String(), err)
		return nil, ToFuseError(err)
	}
	children, err := d.fs.provider.Children(ctx, d.node.Mount, d.node.DN)
	if err != nil {
		dirLogger.Debug("Readdir of %q failed: %v", d.path.String(), err)
		return nil, ToFuseError(err)
	}

	seen := map[string]bool{AggregateName: true}
	entries = append(entries, fuse.Dirent{Name: AggregateName, Type: fuse.DT_File})

	for _, name := range entry.Names() {
		if seen[name] {
			dirLogger.Warn("Attribute %q of dn=%q shadowed by the aggregate file", name, d.node.DN)
			continue
		}
		seen[name] = true
		entries = append(entries, fuse.Dirent{Name: name, Type: fuse.DT_File})
	}

	for _, child := range children {
		name := EscapeName(child.RDN)
		if seen[name] {
			dirLogger.Warn("Child %q of dn=%q shadowed by a same-named attribute", child.DN, d.node.DN)
			continue
		}
		seen[name] = true
		entries = append(entries, fuse.Dirent{Name: name, Type: fuse.DT_Dir})
	}

	dirLogger.Debug("Directory %q contains %d entries", d.path.String(), len(entries))
	return entries, nil
}

// The filesystem is strictly read-only: every mutating verb fails EROFS,
// never a soft failure.

// Mkdir implements the NodeMkdirer interface, rejecting the call.
func (d *Dir) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	return nil, d.rejectMutation("mkdir", req.Name)
}

// Create implements the NodeCreater interface, rejecting the call.
func (d *Dir) Create(_ context.Context, req *fuse.CreateRequest, _ *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	err := d.rejectMutation("create", req.Name)
	return nil, nil, err
}

// Remove implements the NodeRemover interface, rejecting the call.
func (d *Dir) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	return d.rejectMutation("remove", req.Name)
}

// Rename implements the NodeRenamer interface, rejecting the call.
func (d *Dir) Rename(_ context.Context, req *fuse.RenameRequest, _ fusefs.Node) error {
	return d.rejectMutation("rename", req.OldName)
}

// Symlink implements the NodeSymlinker interface, rejecting the call.
func (d *Dir) Symlink(_ context.Context, req *fuse.SymlinkRequest) (fusefs.Node, error) {
	return nil, d.rejectMutation("symlink", req.NewName)
}

// Setattr implements the NodeSetattrer interface, rejecting the call.
func (d *Dir) Setattr(_ context.Context, _ *fuse.SetattrRequest, _ *fuse.SetattrResponse) error {
	return d.rejectMutation("setattr", "")
}

func (d *Dir) rejectMutation(verb, name string) error {
	target := d.path.String()
	if name != "" {
		target = d.path.Child(name).String()
	}
	dirLogger.Debug("Rejected %s on read-only filesystem: %q", verb, target)
	return ToFuseError(NewError(OpMutate, target, ErrReadOnly))
}
