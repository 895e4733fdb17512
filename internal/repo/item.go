package repo

import (
	"errors"
	"fmt"

	"github.com/TheSilvus/smeagol/internal/objects"
	"github.com/TheSilvus/smeagol/internal/wikipath"
)

// Item is an ephemeral handle binding a path to the repository. It is
// recomputed per operation and holds no resolved state of its own.
type Item struct {
	repo *Repository
	path wikipath.Path
}

func (i *Item) Path() wikipath.Path {
	return i.path
}

// Parent returns the item one level up, or ErrNoParent at the root.
func (i *Item) Parent() (*Item, error) {
	parent, ok := i.path.Parent()
	if !ok {
		return nil, ErrNoParent
	}
	return i.repo.Item(parent), nil
}

// node is the tagged result of resolving a path: the kind tells whether the
// hash names a blob or a tree. Absence is an ErrNotFound from resolve, so a
// node never represents something that does not exist.
type node struct {
	kind objects.Kind
	hash string
}

// resolve walks the current snapshot from the root tree down to this item's
// path. The root resolves to the HEAD commit's tree; everything else resolves
// through its parent, scanning the parent tree for an entry whose name equals
// the final path segment byte-for-byte.
func (i *Item) resolve() (node, error) {
	if i.path.IsEmpty() {
		head, err := i.repo.Head()
		if err != nil {
			return node{}, err
		}
		return node{kind: objects.KindTree, hash: head.TreeHash()}, nil
	}

	parent, err := i.Parent()
	if err != nil {
		return node{}, err
	}
	parentNode, err := parent.resolve()
	if err != nil {
		return node{}, err
	}
	if parentNode.kind != objects.KindTree {
		return node{}, fmt.Errorf("%q: %w", i.path, ErrTypeConflict)
	}

	tree, err := i.repo.store.GetTree(parentNode.hash)
	if err != nil {
		return node{}, err
	}
	// Filename cannot fail here, the path has a parent so it is non-empty.
	name, _ := i.path.Filename()
	entry, ok := tree.Find(name)
	if !ok {
		return node{}, fmt.Errorf("%q: %w", i.path, ErrNotFound)
	}
	return node{kind: entry.Mode.Kind(), hash: entry.Hash}, nil
}

// Content returns the blob content at this path, or ErrIsDir when the path
// names a directory.
func (i *Item) Content() ([]byte, error) {
	n, err := i.resolve()
	if err != nil {
		return nil, err
	}
	if n.kind != objects.KindBlob {
		return nil, fmt.Errorf("%q: %w", i.path, ErrIsDir)
	}
	blob, err := i.repo.store.GetBlob(n.hash)
	if err != nil {
		return nil, err
	}
	return blob.Content(), nil
}

// List returns this directory's children as items, in tree entry order, or
// ErrIsFile when the path names a file. Callers sort for presentation.
func (i *Item) List() ([]*Item, error) {
	n, err := i.resolve()
	if err != nil {
		return nil, err
	}
	if n.kind != objects.KindTree {
		return nil, fmt.Errorf("%q: %w", i.path, ErrIsFile)
	}
	tree, err := i.repo.store.GetTree(n.hash)
	if err != nil {
		return nil, err
	}

	children := make([]*Item, 0, tree.Len())
	for _, entry := range tree.Entries() {
		children = append(children, i.repo.Item(i.path.Joined(entry.Name)))
	}
	return children, nil
}

// Exists reports whether anything resolves at this path, recovering
// ErrNotFound into false.
func (i *Item) Exists() (bool, error) {
	_, err := i.resolve()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (i *Item) IsDir() (bool, error) {
	n, err := i.resolve()
	if err != nil {
		return false, err
	}
	return n.kind == objects.KindTree, nil
}

func (i *Item) IsFile() (bool, error) {
	n, err := i.resolve()
	if err != nil {
		return false, err
	}
	return n.kind == objects.KindBlob, nil
}

// CanExist answers whether a write at this path could ever succeed without a
// type conflict, regardless of whether anything exists here right now. A path
// of at most one segment is always creatable, since its parent is the root
// tree. Otherwise the answer is false exactly when some strict ancestor
// currently resolves to a file; absence of an ancestor is no conflict.
func (i *Item) CanExist() (bool, error) {
	if i.path.NumSegments() <= 1 {
		return true, nil
	}

	parent, err := i.Parent()
	if err != nil {
		return false, err
	}
	n, err := parent.resolve()
	if errors.Is(err, ErrNotFound) {
		return parent.CanExist()
	}
	if err != nil {
		return false, err
	}
	if n.kind == objects.KindBlob {
		return false, nil
	}
	return parent.CanExist()
}
