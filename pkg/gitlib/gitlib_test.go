package gitlib_test

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // git object ids are SHA-1.
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/commitprefix/pkg/gitlib"
)

// testRepo wraps a repository created for one test.
type testRepo struct {
	t      *testing.T
	path   string
	native *git2go.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &testRepo{t: t, path: dir, native: repo}
}

// commit writes a file and commits it on HEAD with a fixed timestamp.
func (tr *testRepo) commit(name, content, message string) gitlib.Hash {
	tr.t.Helper()

	err := os.WriteFile(filepath.Join(tr.path, name), []byte(content), 0o600)
	require.NoError(tr.t, err)

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	require.NoError(tr.t, index.AddByPath(name))
	require.NoError(tr.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Unix(1000000000, 0).In(time.FixedZone("", 2*60*60)),
	}

	var parents []*git2go.Commit

	head, err := tr.native.Head()
	if err == nil {
		parent, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.t, lookupErr)

		parents = append(parents, parent)

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return gitlib.HashFromOid(oid)
}

func open(t *testing.T, path string) *gitlib.Repository {
	t.Helper()

	repo, err := gitlib.OpenRepository(path)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return repo
}

func objectID(text []byte) gitlib.Hash {
	framed := fmt.Appendf(nil, "commit %d\x00%s", len(text), text)

	return sha1.Sum(framed) //nolint:gosec // git object ids are SHA-1.
}

func TestOpenRepository(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	want := tr.commit("a.txt", "a", "initial")

	repo := open(t, tr.path)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, want, head)
}

func TestOpenRepository_FromSubdirectory(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	want := tr.commit("a.txt", "a", "initial")

	sub := filepath.Join(tr.path, "nested", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	head, err := open(t, sub).Head()
	require.NoError(t, err)
	assert.Equal(t, want, head)
}

func TestOpenRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo, err := gitlib.OpenRepository(t.TempDir())

	assert.Nil(t, repo)
	require.ErrorContains(t, err, "open repository")
}

func TestRepository_FreeTwice(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(t, err)

	repo.Free()
	repo.Free()
}

func TestHead_Unborn(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)

	_, err := open(t, tr.path).Head()
	require.ErrorIs(t, err, gitlib.ErrNoHead)
}

func TestReadCommit(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	hash := tr.commit("a.txt", "a", "initial\n")

	text, err := open(t, tr.path).ReadCommit(hash)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(text, []byte("tree ")))
	assert.Contains(t, string(text), "\nauthor Test User <test@example.com> 1000000000 +0200\n")
	assert.Contains(t, string(text), "\ncommitter Test User <test@example.com> 1000000000 +0200\n")
	assert.Contains(t, string(text), "\n\ninitial\n")
	assert.Equal(t, hash, objectID(text))
}

func TestReadCommit_NotCommit(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	hash := tr.commit("a.txt", "a", "initial")

	repo := open(t, tr.path)

	commit, err := tr.native.LookupCommit(hash.ToOid())
	require.NoError(t, err)

	defer commit.Free()

	_, err = repo.ReadCommit(gitlib.HashFromOid(commit.TreeId()))
	require.ErrorIs(t, err, gitlib.ErrNotCommit)
}

func TestWriteCommit(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	hash := tr.commit("a.txt", "a", "initial\n")

	repo := open(t, tr.path)

	text, err := repo.ReadCommit(hash)
	require.NoError(t, err)

	same, err := repo.WriteCommit(text)
	require.NoError(t, err)
	assert.Equal(t, hash, same)

	changed := bytes.Replace(text, []byte("> 1000000000 +0200\ncommitter"), []byte("> 999999999 +0200\ncommitter"), 1)
	rewritten, err := repo.WriteCommit(changed)
	require.NoError(t, err)

	assert.Equal(t, objectID(changed), rewritten)

	info, err := repo.DescribeCommit(rewritten)
	require.NoError(t, err)
	assert.Equal(t, int64(999999999), info.Author.When.Unix())
	assert.Equal(t, int64(1000000000), info.Committer.When.Unix())
	assert.Equal(t, "initial", info.Summary)
}

func TestMoveHead_Branch(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	tr.commit("a.txt", "a", "first")
	second := tr.commit("b.txt", "b", "second")

	repo := open(t, tr.path)

	text, err := repo.ReadCommit(second)
	require.NoError(t, err)

	changed := bytes.Replace(text, []byte("second"), []byte("changed"), 1)
	want := objectID(changed)

	require.NoError(t, repo.ReplaceHead(changed, want, "commitprefix: test"))

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, want, head)

	name, err := repo.HeadName()
	require.NoError(t, err)
	assert.NotEqual(t, "HEAD", name)
}

func TestMoveHead_Detached(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	hash := tr.commit("a.txt", "a", "first")
	require.NoError(t, tr.native.SetHeadDetached(hash.ToOid()))

	repo := open(t, tr.path)

	text, err := repo.ReadCommit(hash)
	require.NoError(t, err)

	changed := append(bytes.Clone(text), "more\n"...)
	want := objectID(changed)

	require.NoError(t, repo.ReplaceHead(changed, want, "commitprefix: test"))

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, want, head)

	name, err := repo.HeadName()
	require.NoError(t, err)
	assert.Equal(t, "HEAD", name)
}

func TestReplaceHead_Mismatch(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)
	hash := tr.commit("a.txt", "a", "first")

	repo := open(t, tr.path)

	text, err := repo.ReadCommit(hash)
	require.NoError(t, err)

	err = repo.ReplaceHead(text, gitlib.Hash{1}, "commitprefix: test")
	require.ErrorIs(t, err, gitlib.ErrHashMismatch)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, hash, head, "HEAD must not move on mismatch")
}
