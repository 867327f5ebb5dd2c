package fs

import (
	"strings"

	"ldapfs/internal/logging"
)

var pathLogger = logging.GetLogger().WithPrefix("path")

// FSPath is a normalized filesystem path: a sequence of segments with the
// separators stripped. Segment 0 names a mount root; later segments name
// successive child entries, with the last optionally naming an attribute or
// the aggregate file.
type FSPath struct {
	segments []string
}

// NewFSPath normalizes the path string passed by the kernel bridge.
func NewFSPath(fspath string) *FSPath {
	trimmed := strings.Trim(fspath, "/ ")
	if trimmed == "" {
		return &FSPath{}
	}
	segments := strings.Split(trimmed, "/")
	pathLogger.Trace("Creating path: %q -> %d segments", fspath, len(segments))
	return &FSPath{segments: segments}
}

// IsRoot returns true for the filesystem root "/"
func (p *FSPath) IsRoot() bool {
	return len(p.segments) == 0
}

// Len returns the number of segments
func (p *FSPath) Len() int {
	return len(p.segments)
}

// Segment returns the i-th segment
func (p *FSPath) Segment(i int) string {
	return p.segments[i]
}

// Base returns the last segment, or "" for the root
func (p *FSPath) Base() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Child returns the path extended by one segment
func (p *FSPath) Child(name string) *FSPath {
	segments := make([]string, 0, len(p.segments)+1)
	segments = append(segments, p.segments...)
	segments = append(segments, name)
	return &FSPath{segments: segments}
}

// String returns the absolute string form of the path
func (p *FSPath) String() string {
	return "/" + strings.Join(p.segments, "/")
}

// EscapeName makes a relative name safe to present as a filesystem name.
// LDAP relative names may contain the path separator; "%" is escaped first
// so the encoding stays invertible.
func EscapeName(rdn string) string {
	escaped := strings.ReplaceAll(rdn, "%", "%25")
	return strings.ReplaceAll(escaped, "/", "%2F")
}

// UnescapeName reverses EscapeName on a path segment.
func UnescapeName(name string) string {
	unescaped := strings.ReplaceAll(name, "%2F", "/")
	return strings.ReplaceAll(unescaped, "%25", "%")
}
