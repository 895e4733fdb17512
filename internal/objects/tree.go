package objects

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"
)

// FileMode is the access mode recorded for a tree entry, in octal string form.
type FileMode string

const (
	ModeFile FileMode = "100644" // Regular non-executable file
	ModeDir  FileMode = "040000" // Directory (subtree)
)

func (m FileMode) IsValid() bool {
	return m == ModeFile || m == ModeDir
}

// Kind returns the object kind an entry with this mode points at.
func (m FileMode) Kind() Kind {
	if m == ModeDir {
		return KindTree
	}
	return KindBlob
}

// TreeEntry is a single named child of a tree. Names are raw bytes; stored
// filenames are not required to be valid text.
type TreeEntry struct {
	Mode FileMode
	Name []byte
	Hash string
}

func (e TreeEntry) IsDir() bool {
	return e.Mode == ModeDir
}

// Tree is an immutable, ordered mapping from entry name to child object.
type Tree struct {
	entries []TreeEntry
	hash    string
}

// NewTree builds a tree from entries. Entries are sorted by name, directories
// comparing as if their name carried a trailing separator, so ordering is
// stable regardless of insertion order.
func NewTree(treeEntries []TreeEntry) (*Tree, error) {
	entries := make([]TreeEntry, len(treeEntries))
	copy(entries, treeEntries)

	for _, e := range entries {
		if !e.Mode.IsValid() {
			return nil, fmt.Errorf("invalid file mode %q for entry %q", e.Mode, e.Name)
		}
		if len(e.Name) == 0 {
			return nil, fmt.Errorf("tree entry with empty name")
		}
	}
	slices.SortStableFunc(entries, compareTreeEntries)

	payload, err := buildTreePayload(entries)
	if err != nil {
		return nil, err
	}
	return &Tree{
		entries: entries,
		hash:    hashOf(KindTree, payload),
	}, nil
}

func compareTreeEntries(a, b TreeEntry) int {
	return bytes.Compare(sortableName(a), sortableName(b))
}

func sortableName(e TreeEntry) []byte {
	if e.IsDir() {
		return append(bytes.Clone(e.Name), '/')
	}
	return e.Name
}

// buildTreePayload renders entries as "<mode> <name>\x00<32-byte raw hash>"
// records.
func buildTreePayload(entries []TreeEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		raw, err := hex.DecodeString(e.Hash)
		if err != nil || len(raw) != hashSize {
			return nil, fmt.Errorf("invalid object hash %q for entry %q", e.Hash, e.Name)
		}
		buf.WriteString(string(e.Mode))
		buf.WriteByte(' ')
		buf.Write(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

const hashSize = 32

// DecodeTree parses a tree payload produced by buildTreePayload.
func DecodeTree(payload []byte) (*Tree, error) {
	var entries []TreeEntry
	rest := payload
	for len(rest) > 0 {
		space := bytes.IndexByte(rest, ' ')
		if space < 0 {
			return nil, fmt.Errorf("invalid tree entry: missing mode separator")
		}
		mode := FileMode(rest[:space])
		rest = rest[space+1:]

		null := bytes.IndexByte(rest, 0)
		if null < 0 {
			return nil, fmt.Errorf("invalid tree entry: missing name terminator")
		}
		name := bytes.Clone(rest[:null])
		rest = rest[null+1:]

		if len(rest) < hashSize {
			return nil, fmt.Errorf("invalid tree entry %q: truncated hash", name)
		}
		entries = append(entries, TreeEntry{
			Mode: mode,
			Name: name,
			Hash: hex.EncodeToString(rest[:hashSize]),
		})
		rest = rest[hashSize:]
	}
	return NewTree(entries)
}

func (t *Tree) Hash() string {
	return t.hash
}

func (t *Tree) Kind() Kind {
	return KindTree
}

// Entries returns all entries in sorted order.
func (t *Tree) Entries() []TreeEntry {
	return t.entries
}

func (t *Tree) Len() int {
	return len(t.entries)
}

// Find returns the entry with exactly the given name. Comparison is
// byte-for-byte, case-sensitive, no collation.
func (t *Tree) Find(name []byte) (TreeEntry, bool) {
	for _, e := range t.entries {
		if bytes.Equal(e.Name, name) {
			return e, true
		}
	}
	return TreeEntry{}, false
}

func (t *Tree) Data() []byte {
	// Entries were validated at construction, the payload cannot fail here.
	payload, _ := buildTreePayload(t.entries)
	return encode(KindTree, payload)
}

func (t *Tree) String() string {
	return fmt.Sprintf("Tree{hash: %.8s, entries: %d}", t.hash, len(t.entries))
}
