package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheSilvus/smeagol/internal/storage"
	"github.com/TheSilvus/smeagol/internal/wikipath"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store)
}

func TestRootAlwaysExists(t *testing.T) {
	repo := setupTestRepo(t)
	item := repo.Item(wikipath.New())

	exists, err := item.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	isDir, err := item.IsDir()
	require.NoError(t, err)
	assert.True(t, isDir)

	isFile, err := item.IsFile()
	require.NoError(t, err)
	assert.False(t, isFile)
}

func TestUnbornHeadSelfHeals(t *testing.T) {
	repo := setupTestRepo(t)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.True(t, head.IsInitial())
	assert.Equal(t, rootCommitMessage, head.Message())

	// A second call reuses the commit instead of creating another.
	again, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), again.Hash())

	commits, err := repo.Log()
	require.NoError(t, err)
	assert.Len(t, commits, 1)
}

func TestEditFile(t *testing.T) {
	repo := setupTestRepo(t)
	item := repo.Item(wikipath.FromString("index.md"))

	exists, err := item.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	canExist, err := item.CanExist()
	require.NoError(t, err)
	assert.True(t, canExist)

	_, err = item.Content()
	assert.ErrorIs(t, err, ErrNotFound)

	content := []byte("This is a file.")
	outcome, err := item.Edit(content, "Commit message")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)

	isFile, err := item.IsFile()
	require.NoError(t, err)
	assert.True(t, isFile)
	isDir, err := item.IsDir()
	require.NoError(t, err)
	assert.False(t, isDir)

	got, err := item.Content()
	require.NoError(t, err)
	assert.Equal(t, content, got)

	edited := []byte("This is an edited file.")
	outcome, err = item.Edit(edited, "Commit message 2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)

	got, err = item.Content()
	require.NoError(t, err)
	assert.Equal(t, edited, got)
}

func TestEditFileInDirectory(t *testing.T) {
	repo := setupTestRepo(t)
	item := repo.Item(wikipath.FromString("test/index.md"))
	dir, err := item.Parent()
	require.NoError(t, err)

	for _, it := range []*Item{item, dir} {
		exists, err := it.Exists()
		require.NoError(t, err)
		assert.False(t, exists)

		canExist, err := it.CanExist()
		require.NoError(t, err)
		assert.True(t, canExist)
	}

	content := []byte("This is a file.")
	_, err = item.Edit(content, "Commit message")
	require.NoError(t, err)

	isDir, err := dir.IsDir()
	require.NoError(t, err)
	assert.True(t, isDir)

	isFile, err := item.IsFile()
	require.NoError(t, err)
	assert.True(t, isFile)

	got, err := item.Content()
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestNoChangeEditProducesNoCommit(t *testing.T) {
	repo := setupTestRepo(t)
	item := repo.Item(wikipath.FromString("index.md"))

	outcome, err := item.Edit([]byte("hello"), "init")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)

	got, err := item.Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	outcome, err = item.Edit([]byte("hello"), "again")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChange, outcome)

	// Root commit + one edit; the no-op added nothing.
	commits, err := repo.Log()
	require.NoError(t, err)
	assert.Len(t, commits, 2)

	outcome, err = item.Edit([]byte("bye"), "change")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)

	got, err = item.Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("bye"), got)

	commits, err = repo.Log()
	require.NoError(t, err)
	assert.Len(t, commits, 3)
}

func TestEditMessageWithTrailingBlankLine(t *testing.T) {
	repo := setupTestRepo(t)
	item := repo.Item(wikipath.FromString("index.md"))

	// Messages come straight from callers; a trailing blank line must not
	// corrupt the commit the whole snapshot now hangs off.
	outcome, err := item.Edit([]byte("hello"), "subject\n\n")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)

	got, err := item.Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	commits, err := repo.Log()
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "subject\n\n", commits[0].Message())

	// The store stays editable afterwards as well.
	outcome, err = item.Edit([]byte("bye"), "again")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, outcome)
}

func TestEditBelowFileFails(t *testing.T) {
	repo := setupTestRepo(t)

	blocker := repo.Item(wikipath.FromString("a"))
	_, err := blocker.Edit([]byte("file content"), "commit")
	require.NoError(t, err)

	item := repo.Item(wikipath.FromString("a/b"))
	_, err = item.Edit([]byte("x"), "commit")
	assert.ErrorIs(t, err, ErrCannotCreate)

	// The blocking file is unchanged.
	got, err := blocker.Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("file content"), got)
}

func TestEditDirectoryFails(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Item(wikipath.FromString("dir/file.md")).Edit([]byte("x"), "commit")
	require.NoError(t, err)

	_, err = repo.Item(wikipath.FromString("dir")).Edit([]byte("y"), "commit")
	assert.ErrorIs(t, err, ErrIsDir)

	_, err = repo.Item(wikipath.New()).Edit([]byte("y"), "commit")
	assert.ErrorIs(t, err, ErrIsDir)
}

func TestCanExist(t *testing.T) {
	repo := setupTestRepo(t)

	item := repo.Item(wikipath.FromString("test/index.md"))
	_, err := item.Edit(nil, "commit")
	require.NoError(t, err)

	below := repo.Item(wikipath.FromString("test/index.md/something.md"))
	canExist, err := below.CanExist()
	require.NoError(t, err)
	assert.False(t, canExist)

	_, err = below.Content()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = below.Edit(nil, "commit")
	assert.ErrorIs(t, err, ErrCannotCreate)

	// Deeper paths inherit the conflict from the ancestor chain.
	deep := repo.Item(wikipath.FromString("test/index.md/a/b/c"))
	canExist, err = deep.CanExist()
	require.NoError(t, err)
	assert.False(t, canExist)

	// Absent ancestors are no conflict.
	fresh := repo.Item(wikipath.FromString("brand/new/page.md"))
	canExist, err = fresh.CanExist()
	require.NoError(t, err)
	assert.True(t, canExist)
}

func TestScenarioWriteBelowFile(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Item(wikipath.FromString("a/b/c.md")).Edit([]byte{}, "init")
	require.NoError(t, err)

	item := repo.Item(wikipath.FromString("a/b/c.md/d.md"))
	canExist, err := item.CanExist()
	require.NoError(t, err)
	assert.False(t, canExist)

	_, err = item.Edit([]byte{}, "commit")
	assert.ErrorIs(t, err, ErrCannotCreate)
}

func TestList(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Item(wikipath.FromString("dir/file.md")).Edit([]byte("content"), "commit")
	require.NoError(t, err)

	children, err := repo.Item(wikipath.New()).List()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "dir", children[0].Path().String())

	isDir, err := children[0].IsDir()
	require.NoError(t, err)
	assert.True(t, isDir)

	children, err = children[0].List()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "dir/file.md", children[0].Path().String())

	isFile, err := children[0].IsFile()
	require.NoError(t, err)
	assert.True(t, isFile)

	_, err = children[0].List()
	assert.ErrorIs(t, err, ErrIsFile)

	_, err = repo.Item(wikipath.FromString("dir")).Content()
	assert.ErrorIs(t, err, ErrIsDir)
}

func TestResolveThroughFileIsTypeConflict(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Item(wikipath.FromString("page.md")).Edit([]byte("x"), "commit")
	require.NoError(t, err)

	below := repo.Item(wikipath.FromString("page.md/sub"))
	_, err = below.Content()
	assert.ErrorIs(t, err, ErrTypeConflict)

	// The conflict still counts as absence for existence checks.
	exists, err := below.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUnchangedSubtreesAreReused(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Item(wikipath.FromString("left/page.md")).Edit([]byte("left"), "commit")
	require.NoError(t, err)
	_, err = repo.Item(wikipath.FromString("right/page.md")).Edit([]byte("right"), "commit")
	require.NoError(t, err)

	leftHashBefore := subtreeHash(t, repo, "left")

	_, err = repo.Item(wikipath.FromString("right/other.md")).Edit([]byte("other"), "commit")
	require.NoError(t, err)

	// The edit under right/ rebuilt that branch but reused left/ verbatim.
	assert.Equal(t, leftHashBefore, subtreeHash(t, repo, "left"))
	assert.NotEqual(t, subtreeHash(t, repo, "right"), leftHashBefore)
}

func subtreeHash(t *testing.T, repo *Repository, name string) string {
	t.Helper()

	n, err := repo.Item(wikipath.FromString(name)).resolve()
	require.NoError(t, err)
	return n.hash
}

func TestParentOfRoot(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Item(wikipath.New()).Parent()
	assert.ErrorIs(t, err, ErrNoParent)
}

func TestRawByteFilenames(t *testing.T) {
	repo := setupTestRepo(t)

	path := wikipath.FromBytes([]byte{'d', 0xC3, '/', 0xFF, '.', 'm', 'd'})
	_, err := repo.Item(path).Edit([]byte("raw"), "commit")
	require.NoError(t, err)

	got, err := repo.Item(path).Content()
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), got)

	children, err := repo.Item(wikipath.FromBytes([]byte{'d', 0xC3})).List()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, []byte{0xFF, '.', 'm', 'd'}, mustFilename(t, children[0]))
}

func mustFilename(t *testing.T, item *Item) []byte {
	t.Helper()

	name, ok := item.Path().Filename()
	require.True(t, ok)
	return name
}
