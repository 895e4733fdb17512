package objects

import "bytes"

// TreeBuilder is a mutable scratch structure for constructing a new tree,
// optionally seeded from an existing one. Unmodified entries keep their child
// hashes, so rebuilding a tree reuses unchanged subtrees by reference.
type TreeBuilder struct {
	entries []TreeEntry
}

// NewTreeBuilder creates a builder pre-populated with seed's entries. A nil
// seed starts empty.
func NewTreeBuilder(seed *Tree) *TreeBuilder {
	b := &TreeBuilder{}
	if seed != nil {
		b.entries = make([]TreeEntry, seed.Len())
		copy(b.entries, seed.Entries())
	}
	return b
}

// Get returns the current entry with the given name.
func (b *TreeBuilder) Get(name []byte) (TreeEntry, bool) {
	for _, e := range b.entries {
		if bytes.Equal(e.Name, name) {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Insert adds an entry, replacing any existing entry with the same name.
func (b *TreeBuilder) Insert(name []byte, hash string, mode FileMode) {
	for i, e := range b.entries {
		if bytes.Equal(e.Name, name) {
			b.entries[i] = TreeEntry{Mode: mode, Name: bytes.Clone(name), Hash: hash}
			return
		}
	}
	b.entries = append(b.entries, TreeEntry{Mode: mode, Name: bytes.Clone(name), Hash: hash})
}

// Build finalizes the builder into an immutable tree. The builder remains
// usable afterwards.
func (b *TreeBuilder) Build() (*Tree, error) {
	return NewTree(b.entries)
}
