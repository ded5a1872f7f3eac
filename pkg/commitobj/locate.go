package commitobj

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for timestamp lookup.
var (
	// ErrTimestampNotFound is the parent of the per-field lookup errors.
	ErrTimestampNotFound = errors.New("timestamp not found")
	// ErrAuthorNotFound indicates no author line was found.
	ErrAuthorNotFound = fmt.Errorf("author %w", ErrTimestampNotFound)
	// ErrCommitterNotFound indicates no committer line was found.
	ErrCommitterNotFound = fmt.Errorf("committer %w", ErrTimestampNotFound)
)

// The greedy identity part pins the captured digits to the token right before
// the timezone, so digits inside a name or email are never picked.
var (
	authorLine    = regexp.MustCompile(`^author .+ (\d+) \S+$`)
	committerLine = regexp.MustCompile(`^committer .+ (\d+) \S+$`)
)

// Locate finds the author and committer timestamps in unframed commit text.
// Only the header block (up to the first blank line) is scanned; when a field
// occurs more than once the last occurrence wins.
func Locate(text []byte) (author, committer Span, err error) {
	var foundAuthor, foundCommitter bool

	for lineStart := 0; lineStart < len(text); {
		lineEnd := len(text)
		if i := bytes.IndexByte(text[lineStart:], '\n'); i >= 0 {
			lineEnd = lineStart + i
		}

		line := text[lineStart:lineEnd]
		if len(line) == 0 {
			break
		}

		if span, ok := matchSpan(authorLine, line, lineStart); ok {
			author, foundAuthor = span, true
		}

		if span, ok := matchSpan(committerLine, line, lineStart); ok {
			committer, foundCommitter = span, true
		}

		lineStart = lineEnd + 1
	}

	if !foundAuthor {
		return Span{}, Span{}, ErrAuthorNotFound
	}

	if !foundCommitter {
		return Span{}, Span{}, ErrCommitterNotFound
	}

	return author, committer, nil
}

func matchSpan(re *regexp.Regexp, line []byte, offset int) (Span, bool) {
	loc := re.FindSubmatchIndex(line)
	if loc == nil {
		return Span{}, false
	}

	return Span{
		Start: offset + loc[2],
		End:   offset + loc[3],
		Value: string(line[loc[2]:loc[3]]),
	}, true
}
