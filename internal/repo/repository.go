// Package repo implements the versioned document store: a linear chain of
// snapshot commits over immutable trees and blobs, addressed by wiki paths.
// Every mutation rebuilds the trees along the edited path and advances HEAD
// to a new commit; unchanged subtrees are reused by reference.
package repo

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/TheSilvus/smeagol/internal/objects"
	"github.com/TheSilvus/smeagol/internal/storage"
	"github.com/TheSilvus/smeagol/internal/wikipath"
)

const (
	authorName  = "smeagol"
	authorEmail = "smeagol@smeagol"

	rootCommitMessage = "Root commit"
)

// Repository binds the object store to the wiki's snapshot semantics.
//
// All object writes are append-only, so reads never take a lock and always
// observe some self-consistent HEAD snapshot. The one read-modify-write
// hazard is an edit, which reads HEAD, rebuilds trees and writes a derived
// HEAD; editMu serializes those so a concurrent edit cannot silently discard
// another's commit.
type Repository struct {
	store  *storage.Store
	editMu sync.Mutex
}

func New(store *storage.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) signature() objects.Signature {
	return objects.Signature{
		Name:  authorName,
		Email: authorEmail,
		When:  time.Now(),
	}
}

// Head returns the current HEAD commit. If no commit exists yet (the unborn
// state, e.g. a freshly created store), it first commits an empty root tree,
// so the root of a well-formed repository is always resolvable.
func (r *Repository) Head() (*objects.Commit, error) {
	hash, err := r.store.Head()
	if errors.Is(err, storage.ErrNoHead) {
		r.editMu.Lock()
		defer r.editMu.Unlock()
		return r.headLocked()
	}
	if err != nil {
		return nil, err
	}
	return r.store.GetCommit(hash)
}

// headLocked is Head for callers already holding editMu.
func (r *Repository) headLocked() (*objects.Commit, error) {
	hash, err := r.store.Head()
	if errors.Is(err, storage.ErrNoHead) {
		return r.initialCommit()
	}
	if err != nil {
		return nil, err
	}
	return r.store.GetCommit(hash)
}

// initialCommit creates the empty-tree root commit and advances HEAD to it.
// Caller holds editMu.
func (r *Repository) initialCommit() (*objects.Commit, error) {
	tree, err := objects.NewTree(nil)
	if err != nil {
		return nil, err
	}
	if err := r.store.Put(tree); err != nil {
		return nil, fmt.Errorf("initializing repository: %w", err)
	}

	commit := objects.NewCommit(tree.Hash(), "", rootCommitMessage, r.signature())
	if err := r.store.Put(commit); err != nil {
		return nil, fmt.Errorf("initializing repository: %w", err)
	}
	if err := r.store.SetHead(commit.Hash()); err != nil {
		return nil, fmt.Errorf("initializing repository: %w", err)
	}
	return commit, nil
}

// Item binds a path to the repository's current snapshot.
func (r *Repository) Item(path wikipath.Path) *Item {
	return &Item{repo: r, path: path}
}

// Log returns the commit chain from HEAD back to the root commit, newest
// first. The history is linear; commits have at most one parent.
func (r *Repository) Log() ([]*objects.Commit, error) {
	commit, err := r.Head()
	if err != nil {
		return nil, err
	}

	var commits []*objects.Commit
	for {
		commits = append(commits, commit)
		if commit.IsInitial() {
			return commits, nil
		}
		commit, err = r.store.GetCommit(commit.ParentHash())
		if err != nil {
			return nil, err
		}
	}
}
