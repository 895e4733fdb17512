package repo

import (
	"fmt"

	"github.com/TheSilvus/smeagol/internal/objects"
	"github.com/TheSilvus/smeagol/internal/wikipath"
)

// EditOutcome reports what an edit did to the history.
type EditOutcome int

const (
	// OutcomeCommitted means a new snapshot was created and HEAD advanced.
	OutcomeCommitted EditOutcome = iota + 1

	// OutcomeNoChange means the content was already identical to the stored
	// blob; no objects and no commit were created.
	OutcomeNoChange
)

func (o EditOutcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeNoChange:
		return "no change"
	default:
		return fmt.Sprintf("EditOutcome(%d)", int(o))
	}
}

// Edit writes content at this item's path as a new snapshot commit.
//
// The trees along the path are rebuilt bottom-up from the current HEAD root;
// subtrees off the edited path keep their hashes and are reused verbatim.
// Writing a directory path fails with ErrIsDir, writing below an ancestor
// file fails with ErrCannotCreate. Writing content identical to the existing
// blob produces no commit and reports OutcomeNoChange, so history never
// records empty snapshots.
func (i *Item) Edit(content []byte, message string) (EditOutcome, error) {
	if i.path.IsEmpty() {
		return 0, fmt.Errorf("cannot edit the root: %w", ErrIsDir)
	}

	// Hash first, persist later: the blob is only written once the leaf
	// comparison proves it will be referenced, so a no-op edit leaves no
	// orphan object behind.
	blob := objects.NewBlob(content)

	i.repo.editMu.Lock()
	defer i.repo.editMu.Unlock()

	head, err := i.repo.headLocked()
	if err != nil {
		return 0, err
	}
	headTree, err := i.repo.store.GetTree(head.TreeHash())
	if err != nil {
		return 0, err
	}

	builder := objects.NewTreeBuilder(headTree)
	changed, err := i.insertIntoTree(builder, i.path, blob)
	if err != nil {
		return 0, err
	}
	if !changed {
		return OutcomeNoChange, nil
	}

	newRoot, err := builder.Build()
	if err != nil {
		return 0, err
	}
	if err := i.repo.store.Put(newRoot); err != nil {
		return 0, err
	}

	commit := objects.NewCommit(newRoot.Hash(), head.Hash(), message, i.repo.signature())
	if err := i.repo.store.Put(commit); err != nil {
		return 0, err
	}
	if err := i.repo.store.SetHead(commit.Hash()); err != nil {
		return 0, err
	}
	return OutcomeCommitted, nil
}

// insertIntoTree descends path into the builder, recursing through fresh
// builders for each intermediate segment and inserting the rebuilt subtree
// into its parent on the way back up. It reports whether anything changed;
// false short-circuits the whole edit without building any tree.
func (i *Item) insertIntoTree(builder *objects.TreeBuilder, path wikipath.Path, blob *objects.Blob) (bool, error) {
	first, ok := path.PopFirst()
	if !ok {
		return false, fmt.Errorf("empty path in tree insert")
	}

	if path.IsEmpty() {
		// Final segment: the blob lands here.
		name := first.Bytes()
		if entry, found := builder.Get(name); found {
			if entry.Mode.Kind() != objects.KindBlob {
				return false, fmt.Errorf("%q: %w", i.path, ErrIsDir)
			}
			if entry.Hash == blob.Hash() {
				return false, nil
			}
		}
		if err := i.repo.store.Put(blob); err != nil {
			return false, err
		}
		builder.Insert(name, blob.Hash(), objects.ModeFile)
		return true, nil
	}

	var subBuilder *objects.TreeBuilder
	if entry, found := builder.Get(first.Bytes()); found {
		if !entry.IsDir() {
			return false, fmt.Errorf("%q: %w", i.path, ErrCannotCreate)
		}
		seed, err := i.repo.store.GetTree(entry.Hash)
		if err != nil {
			return false, err
		}
		subBuilder = objects.NewTreeBuilder(seed)
	} else {
		subBuilder = objects.NewTreeBuilder(nil)
	}

	changed, err := i.insertIntoTree(subBuilder, path, blob)
	if err != nil || !changed {
		return changed, err
	}

	subtree, err := subBuilder.Build()
	if err != nil {
		return false, err
	}
	if err := i.repo.store.Put(subtree); err != nil {
		return false, err
	}
	builder.Insert(first.Bytes(), subtree.Hash(), objects.ModeDir)
	return true, nil
}
