package gitlib

import (
	"fmt"
)

// MoveHead points HEAD at hash. On a branch the branch reference is updated
// with a reflog entry carrying msg; a detached HEAD stays detached.
func (r *Repository) MoveHead(hash Hash, msg string) error {
	detached, err := r.repo.IsHeadDetached()
	if err != nil {
		return fmt.Errorf("inspect HEAD: %w", err)
	}

	if detached {
		err = r.repo.SetHeadDetached(hash.ToOid())
		if err != nil {
			return fmt.Errorf("detach HEAD at %s: %w", hash, err)
		}

		return nil
	}

	ref, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	moved, err := ref.SetTarget(hash.ToOid(), msg)
	if err != nil {
		return fmt.Errorf("move %s to %s: %w", ref.Shorthand(), hash, err)
	}

	moved.Free()

	return nil
}

// ReplaceHead writes text as a commit object, checks that its id is want,
// and moves HEAD to it.
func (r *Repository) ReplaceHead(text []byte, want Hash, msg string) error {
	got, err := r.WriteCommit(text)
	if err != nil {
		return err
	}

	if got != want {
		return fmt.Errorf("%w: wrote %s, expected %s", ErrHashMismatch, got, want)
	}

	return r.MoveHead(got, msg)
}
