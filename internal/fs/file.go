package fs

import (
	"context"

	"ldapfs/internal/directory"
	"ldapfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var fileLogger = logging.GetLogger().WithPrefix("file")

// File is an attribute file or the aggregate file of an entry. Like Dir it
// carries identity only; the entry is re-fetched on every stat and open so
// no content survives between filesystem calls.
type File struct {
	fs   *LdapFS
	node *VfsNode
	path *FSPath
}

// fetchEntry gets the owning entry fresh from the directory.
func (f *File) fetchEntry(ctx context.Context) (*directory.Entry, error) {
	return f.fs.provider.Entry(ctx, f.node.Mount, f.node.DN)
}

// size computes the rendered byte length from name and value lengths
// without building the content.
func (f *File) size(entry *directory.Entry) (int64, error) {
	switch f.node.Kind {
	case KindAttrFile:
		values, ok := entry.Lookup(f.node.Attr)
		if !ok {
			// Attribute vanished between resolution and stat.
			return 0, NewError(OpGetattr, f.path.String(), ErrNotFound)
		}
		return LineSize(f.node.Attr, values), nil
	default:
		return AggregateSize(entry), nil
	}
}

// render builds the file content.
func (f *File) render(entry *directory.Entry) ([]byte, error) {
	switch f.node.Kind {
	case KindAttrFile:
		values, ok := entry.Lookup(f.node.Attr)
		if !ok {
			return nil, NewError(OpOpen, f.path.String(), ErrNotFound)
		}
		return RenderLine(f.node.Attr, values), nil
	default:
		return RenderAggregate(entry), nil
	}
}

// Attr implements the Node interface. Files are read-only; the reported
// size is the exact rendered byte length.
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	fileLogger.Trace("Getting attributes for file: %q", f.path.String())

	entry, err := f.fetchEntry(ctx)
	if err != nil {
		fileLogger.Debug("Stat of %q failed: %v", f.path.String(), err)
		return ToFuseError(err)
	}
	size, err := f.size(entry)
	if err != nil {
		return ToFuseError(err)
	}

	a.Mode = 0o444
	a.Size = safeInt64ToUint64(size)
	a.Uid = f.fs.uid
	a.Gid = f.fs.gid
	a.BlockSize = 4096
	a.Blocks = safeInt64ToUint64((size + 511) / 512)
	return nil
}

// Open implements the NodeOpener interface. Only read access is granted;
// any mutating open flag fails EROFS. The rendered content is captured in
// the handle so reads over one handle are self-consistent.
func (f *File) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	fileLogger.Debug("Opening file %q with flags %v", f.path.String(), req.Flags)

	if !req.Flags.IsReadOnly() || req.Flags&fuse.OpenTruncate != 0 {
		fileLogger.Debug("Rejected write-mode open of %q", f.path.String())
		return nil, ToFuseError(NewError(OpOpen, f.path.String(), ErrReadOnly))
	}

	entry, err := f.fetchEntry(ctx)
	if err != nil {
		fileLogger.Debug("Open of %q failed: %v", f.path.String(), err)
		return nil, ToFuseError(err)
	}
	content, err := f.render(entry)
	if err != nil {
		return nil, ToFuseError(err)
	}

	// Content is rendered per open, never cached; bypass the page cache so
	// a reopen always sees fresh directory data.
	resp.Flags |= fuse.OpenDirectIO

	return &FileHandle{content: content, path: f.path.String()}, nil
}

// Setattr implements the NodeSetattrer interface, rejecting the call.
func (f *File) Setattr(_ context.Context, _ *fuse.SetattrRequest, _ *fuse.SetattrResponse) error {
	fileLogger.Debug("Rejected setattr on read-only file: %q", f.path.String())
	return ToFuseError(NewError(OpMutate, f.path.String(), ErrReadOnly))
}

// FileHandle is a readable handle over rendered attribute content.
type FileHandle struct {
	content []byte
	path    string // For logging purposes
}

// Read implements the HandleReader interface. The requested range is
// clamped to the content length; an offset past the end reads zero bytes,
// not an error.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fileLogger.Trace("Reading %d bytes from %q at offset %d", req.Size, fh.path, req.Offset)

	length := int64(len(fh.content))
	if req.Offset >= length {
		resp.Data = nil
		return nil
	}
	end := req.Offset + int64(req.Size)
	if end > length {
		end = length
	}
	resp.Data = fh.content[req.Offset:end]
	return nil
}

// Write implements the HandleWriter interface, rejecting the call.
func (fh *FileHandle) Write(_ context.Context, _ *fuse.WriteRequest, _ *fuse.WriteResponse) error {
	fileLogger.Debug("Rejected write to read-only file: %q", fh.path)
	return ToFuseError(NewError(OpMutate, fh.path, ErrReadOnly))
}

// Release implements the HandleReleaser interface. The handle holds no
// resources beyond the rendered bytes.
func (fh *FileHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	fileLogger.Trace("Closing handle for %q", fh.path)
	return nil
}
