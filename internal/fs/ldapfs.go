package fs

import (
	"fmt"
	"os"
	"time"

	"ldapfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var vfsLogger = logging.GetLogger().WithPrefix("vfs")

// LdapFS is the filesystem: the registry of mount roots plus the resolver
// and provider every call goes through. It holds no mutable state across
// calls; concurrent dispatch from the kernel bridge needs no external
// synchronization here. The only shared resource is each mount's session
// pool, bounded at the collaborator boundary.
type LdapFS struct {
	registry *Registry
	provider *Provider
	resolver *Resolver
	conn     *fuse.Conn
	uid      uint32
	gid      uint32
}

// NewLdapFS creates the filesystem over a validated mount registry.
func NewLdapFS(registry *Registry) *LdapFS {
	vfsLogger.Info("Creating filesystem with %d mount roots", len(registry.Roots()))

	provider := NewProvider()
	return &LdapFS{
		registry: registry,
		provider: provider,
		resolver: NewResolver(registry, provider),
		uid:      safeIntToUint32(os.Getuid()),
		gid:      safeIntToUint32(os.Getgid()),
	}
}

// Root implements the fusefs.FS interface, returning the root directory
// node.
func (l *LdapFS) Root() (fusefs.Node, error) {
	vfsLogger.Trace("Getting root directory node")
	return &Dir{
		fs:   l,
		node: &VfsNode{Kind: KindRoot},
		path: NewFSPath("/"),
	}, nil
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Mount mounts the filesystem read-only and starts serving.
func (l *LdapFS) Mount(mountPoint string) error {
	vfsLogger.Info("Mounting filesystem at %q", mountPoint)

	mountOpts := []fuse.MountOption{
		fuse.FSName("ldapfs"),
		fuse.Subtype("ldapfs"),
		fuse.ReadOnly(),
		fuse.DefaultPermissions(),
	}

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	l.conn = c

	go func() {
		if err := fusefs.Serve(c, l); err != nil {
			vfsLogger.Error("FUSE server error: %v", err)
		}
	}()

	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		vfsLogger.Error("Mount point not ready: %v", err)
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}

	vfsLogger.Info("Filesystem mounted successfully")
	return nil
}

// Unmount cleanly unmounts the filesystem.
func (l *LdapFS) Unmount(mountPoint string) error {
	vfsLogger.Info("Unmounting filesystem from: %s", mountPoint)
	if l.conn == nil {
		return nil
	}
	if err := fuse.Unmount(mountPoint); err != nil {
		vfsLogger.Error("Unmount failed: %v", err)
		return err
	}
	return l.conn.Close()
}
