package gitlib

import (
	"fmt"
	"time"
)

// Signature is a commit author or committer.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitInfo summarizes a commit for reports.
type CommitInfo struct {
	Hash      Hash
	Summary   string
	Author    Signature
	Committer Signature
}

// DescribeCommit returns the summary line and signatures of a commit.
func (r *Repository) DescribeCommit(hash Hash) (CommitInfo, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return CommitInfo{}, fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	defer commit.Free()

	author := commit.Author()
	committer := commit.Committer()

	return CommitInfo{
		Hash:      hash,
		Summary:   commit.Summary(),
		Author:    Signature{Name: author.Name, Email: author.Email, When: author.When},
		Committer: Signature{Name: committer.Name, Email: committer.Email, When: committer.When},
	}, nil
}
