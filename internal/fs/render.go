package fs

import (
	"bytes"

	"ldapfs/internal/directory"
)

// AggregateName is the synthetic file present in every entry directory,
// aggregating all attributes of the entry the directory represents.
const AggregateName = ".attributes"

// RenderLine formats one attribute as "<name>=<v1>,<v2>,...,<vn>\n".
// Values are written raw: a value that itself contains '=', ',' or a
// newline is not escaped. The format inherits that ambiguity; what is
// guaranteed is that reported sizes always match the rendered bytes and no
// value is ever truncated.
func RenderLine(name string, values []string) []byte {
	var b bytes.Buffer
	b.Grow(int(LineSize(name, values)))
	b.WriteString(name)
	b.WriteByte('=')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v)
	}
	b.WriteByte('\n')
	return b.Bytes()
}

// LineSize returns the exact rendered length of one attribute line without
// building it: len(name) + 1 for '=' + joined value lengths + 1 for '\n'.
func LineSize(name string, values []string) int64 {
	size := int64(len(name)) + 2
	for i, v := range values {
		if i > 0 {
			size++
		}
		size += int64(len(v))
	}
	return size
}

// RenderAggregate concatenates every attribute's line in the entry's
// attribute order.
func RenderAggregate(e *directory.Entry) []byte {
	var b bytes.Buffer
	b.Grow(int(AggregateSize(e)))
	for _, a := range e.Attributes {
		b.Write(RenderLine(a.Name, a.Values))
	}
	return b.Bytes()
}

// AggregateSize returns the exact rendered length of the aggregate file.
func AggregateSize(e *directory.Entry) int64 {
	var size int64
	for _, a := range e.Attributes {
		size += LineSize(a.Name, a.Values)
	}
	return size
}
