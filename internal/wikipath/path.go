// Package wikipath implements the slash-delimited byte paths used to address
// items in the wiki repository. Paths are raw byte sequences, not guaranteed
// to be valid text; percent-encoding is the only boundary where they are
// converted to a printable form.
package wikipath

import (
	"bytes"
	"fmt"
)

const separator = '/'

// Path is a normalized sequence of non-empty byte segments. The zero value is
// the root path.
type Path struct {
	content []byte
}

// New returns the root path.
func New() Path {
	return Path{}
}

// FromBytes builds a path from raw bytes, normalizing separators.
func FromBytes(b []byte) Path {
	p := Path{content: bytes.Clone(b)}
	p.normalize()
	return p
}

// FromString builds a path from a raw string, normalizing separators.
func FromString(s string) Path {
	return FromBytes([]byte(s))
}

// FromPercentEncoded decodes a percent-encoded path. Decoding is lenient:
// malformed escapes are kept as literal bytes rather than rejected, since the
// result is normalized and matched byte-for-byte anyway.
func FromPercentEncoded(s string) Path {
	decoded := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				decoded = append(decoded, hi<<4|lo)
				i += 2
				continue
			}
		}
		decoded = append(decoded, s[i])
	}
	return FromBytes(decoded)
}

// normalize collapses runs of separators and strips a leading and a trailing
// separator, leaving either empty content (root) or separator-delimited
// non-empty segments.
func (p *Path) normalize() {
	out := p.content[:0]
	for _, b := range p.content {
		if b == separator && len(out) > 0 && out[len(out)-1] == separator {
			continue
		}
		out = append(out, b)
	}
	if len(out) > 0 && out[0] == separator {
		out = out[1:]
	}
	if len(out) > 0 && out[len(out)-1] == separator {
		out = out[:len(out)-1]
	}
	p.content = out
}

// IsEmpty reports whether the path is the root.
func (p Path) IsEmpty() bool {
	return len(p.content) == 0
}

// Bytes returns the normalized byte content. The returned slice must not be
// modified.
func (p Path) Bytes() []byte {
	return p.content
}

// Equal reports whether two paths have identical content.
func (p Path) Equal(other Path) bool {
	return bytes.Equal(p.content, other.content)
}

// Segments splits the path on separators. The root path yields a single empty
// segment; use NumSegments when counting real segments.
func (p Path) Segments() [][]byte {
	return bytes.Split(p.content, []byte{separator})
}

// NumSegments returns the number of real segments, zero for the root.
func (p Path) NumSegments() int {
	if p.IsEmpty() {
		return 0
	}
	return bytes.Count(p.content, []byte{separator}) + 1
}

func (p Path) lastSeparator() int {
	return bytes.LastIndexByte(p.content, separator)
}

// Filename returns the content after the last separator, or the whole content
// if there is none. The second return is false for the root path.
func (p Path) Filename() ([]byte, bool) {
	if i := p.lastSeparator(); i >= 0 {
		return p.content[i+1:], true
	}
	if len(p.content) > 0 {
		return p.content, true
	}
	return nil, false
}

// Extension returns the filename's extension: everything after the first dot,
// where a dot at position zero (a dotfile) does not count as a split point.
// So "a.b.c" has extension "b.c" and ".hidden" has none.
func (p Path) Extension() ([]byte, bool) {
	filename, ok := p.Filename()
	if !ok {
		return nil, false
	}
	start := 0
	if len(filename) > 0 && filename[0] == '.' {
		start = 1
	}
	if i := bytes.IndexByte(filename[start:], '.'); i >= 0 {
		return filename[start+i+1:], true
	}
	return nil, false
}

// Parent returns the path with the last segment removed. The second return is
// false for the root path, which has no parent.
func (p Path) Parent() (Path, bool) {
	if i := p.lastSeparator(); i >= 0 {
		return FromBytes(p.content[:i]), true
	}
	if len(p.content) > 0 {
		return New(), true
	}
	return Path{}, false
}

// Push appends a child path, re-normalizing so empty or slash-wrapped children
// collapse cleanly.
func (p *Path) Push(child Path) {
	p.content = append(p.content, separator)
	p.content = append(p.content, child.content...)
	p.normalize()
}

// Joined returns a new path with name appended, leaving the receiver intact.
func (p Path) Joined(name []byte) Path {
	child := FromBytes(p.content)
	child.Push(FromBytes(name))
	return child
}

// PopFirst removes and returns the first segment, mutating the receiver to the
// remainder. It returns false only on the root path.
func (p *Path) PopFirst() (Path, bool) {
	if i := bytes.IndexByte(p.content, separator); i >= 0 {
		first := FromBytes(p.content[:i])
		p.content = p.content[i+1:]
		return first, true
	}
	if !p.IsEmpty() {
		first := Path{content: p.content}
		p.content = nil
		return first, true
	}
	return Path{}, false
}

// String renders the path lossily for display and logging.
func (p Path) String() string {
	return string(p.content)
}

// PercentEncode renders the path in a form safe for URLs and links. All bytes
// outside printable ASCII are escaped, together with characters that are
// ambiguous in URLs and the escape character itself, so encoding round-trips
// through FromPercentEncoded unambiguously. Separators are left intact.
func (p Path) PercentEncode() string {
	var buf bytes.Buffer
	for _, b := range p.content {
		if needsEscape(b) {
			fmt.Fprintf(&buf, "%%%02X", b)
		} else {
			buf.WriteByte(b)
		}
	}
	return buf.String()
}

func needsEscape(b byte) bool {
	if b < 0x20 || b > 0x7E {
		return true
	}
	switch b {
	case ' ', '"', '#', '<', '>', '?', '`', '{', '}', '%':
		return true
	}
	return false
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
