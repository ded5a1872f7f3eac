package gitlib

import (
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Sentinel errors for repository access.
var (
	// ErrInvalidHash indicates a malformed object id.
	ErrInvalidHash = errors.New("invalid object id")
	// ErrNoHead indicates HEAD does not point at a commit yet.
	ErrNoHead = errors.New("HEAD has no commit")
	// ErrNotCommit indicates an object id that names something other than a commit.
	ErrNotCommit = errors.New("object is not a commit")
	// ErrHashMismatch indicates a written object id differs from the expected one.
	ErrHashMismatch = errors.New("written object id does not match")
)

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
}

// OpenRepository opens the repository containing path, searching parent
// directories like git does.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepositoryExtended(path, 0, "")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo}, nil
}

// Free releases the repository resources. Safe to call more than once.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the commit HEAD points at.
func (r *Repository) Head() (Hash, error) {
	unborn, err := r.repo.IsHeadUnborn()
	if err != nil {
		return Hash{}, fmt.Errorf("inspect HEAD: %w", err)
	}

	if unborn {
		return Hash{}, ErrNoHead
	}

	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// HeadName returns the branch HEAD is on, or "HEAD" when detached.
func (r *Repository) HeadName() (string, error) {
	detached, err := r.repo.IsHeadDetached()
	if err != nil {
		return "", fmt.Errorf("inspect HEAD: %w", err)
	}

	if detached {
		return "HEAD", nil
	}

	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return ref.Shorthand(), nil
}
