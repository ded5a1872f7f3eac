package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ReadCommit returns the raw text of a commit object, without the
// "commit <len>\x00" header.
func (r *Repository) ReadCommit(hash Hash) ([]byte, error) {
	odb, err := r.repo.Odb()
	if err != nil {
		return nil, fmt.Errorf("open object database: %w", err)
	}
	defer odb.Free()

	obj, err := odb.Read(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", hash, err)
	}
	defer obj.Free()

	if obj.Type() != git2go.ObjectCommit {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotCommit, hash, obj.Type())
	}

	// Data aliases libgit2 memory that Free releases.
	data := obj.Data()
	text := make([]byte, len(data))
	copy(text, data)

	return text, nil
}

// WriteCommit stores raw commit text as a commit object and returns its id.
func (r *Repository) WriteCommit(text []byte) (Hash, error) {
	odb, err := r.repo.Odb()
	if err != nil {
		return Hash{}, fmt.Errorf("open object database: %w", err)
	}
	defer odb.Free()

	oid, err := odb.Write(text, git2go.ObjectCommit)
	if err != nil {
		return Hash{}, fmt.Errorf("write commit object: %w", err)
	}

	return HashFromOid(oid), nil
}
