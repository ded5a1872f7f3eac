package commitobj_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/commitprefix/pkg/commitobj"
)

const profileCommit = "tree 2b297e643c551e76cfa1f93810c50811382f9117\n" +
	"author Profile <profile@example.com> 1704063600 +0100\n" +
	"committer Profile <profile@example.com> 1704063600 +0100\n" +
	"\n" +
	"profile commit\n"

func TestFrame(t *testing.T) {
	t.Parallel()

	buf := commitobj.Frame([]byte("abc"))

	assert.Equal(t, "commit 3\x00abc", string(buf))
	assert.Equal(t, len("commit 3\x00"), commitobj.HeaderLen(buf))
	assert.Equal(t, "abc", string(commitobj.Body(buf)))
}

func TestParse_ProfileCommit(t *testing.T) {
	t.Parallel()

	obj, err := commitobj.Parse([]byte(profileCommit))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(obj.Buf), "commit 173\x00tree "))
	assert.Equal(t, commitobj.Span{Start: 94, End: 104, Value: "1704063600"}, obj.Author)
	assert.Equal(t, commitobj.Span{Start: 151, End: 161, Value: "1704063600"}, obj.Committer)
	assert.Equal(t, "1704063600", string(obj.Buf[obj.Author.Start:obj.Author.End]))
	assert.Equal(t, profileCommit, string(obj.Text()))

	ts, err := obj.Author.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1704063600), ts)
}

func TestObjectSpan(t *testing.T) {
	t.Parallel()

	obj, err := commitobj.Parse([]byte(profileCommit))
	require.NoError(t, err)

	span, err := obj.Span(commitobj.FieldCommitter)
	require.NoError(t, err)
	assert.Equal(t, obj.Committer, span)

	_, err = obj.Span("parent")
	require.ErrorIs(t, err, commitobj.ErrUnknownField)
}

func TestObjectWithTimestamp(t *testing.T) {
	t.Parallel()

	obj, err := commitobj.Parse([]byte(profileCommit))
	require.NoError(t, err)

	text, err := obj.WithTimestamp(commitobj.FieldAuthor, 999)
	require.NoError(t, err)

	want := strings.Replace(profileCommit, "1704063600", "999", 1)
	assert.Equal(t, want, string(text))

	text, err = obj.WithTimestamp(commitobj.FieldCommitter, 1704063599)
	require.NoError(t, err)
	assert.Contains(t, string(text), "author Profile <profile@example.com> 1704063600 +0100\n")
	assert.Contains(t, string(text), "committer Profile <profile@example.com> 1704063599 +0100\n")

	// The original buffer is untouched.
	assert.Equal(t, profileCommit, string(obj.Text()))
}

func TestParseField(t *testing.T) {
	t.Parallel()

	field, err := commitobj.ParseField("committer")
	require.NoError(t, err)
	assert.Equal(t, commitobj.FieldCommitter, field)

	_, err = commitobj.ParseField("tagger")
	require.ErrorIs(t, err, commitobj.ErrUnknownField)
}

func TestShrink_SameHeaderWidth(t *testing.T) {
	t.Parallel()

	text := "author A <a@b> 1000000000 +0200\ncommitter A <a@b> 1000000000 +0200"
	obj, err := commitobj.Parse([]byte(text))
	require.NoError(t, err)

	before := len(obj.Buf)
	buf, span := commitobj.Shrink(obj.Buf, obj.Author, 1)
	copy(buf[span.Start:span.End], "999999999")

	assert.Len(t, buf, before-1)
	assert.Equal(t, obj.Author.Start, span.Start)
	assert.Equal(t, obj.Author.End-1, span.End)

	want := commitobj.Frame([]byte(strings.Replace(text, "1000000000", "999999999", 1)))
	assert.Equal(t, string(want), string(buf))
}

func TestShrink_HeaderNarrows(t *testing.T) {
	t.Parallel()

	// A 100 byte body turns into a 99 byte one, so "commit 100" becomes "commit 99".
	line := "author A <a@b> 1000 +0000\ncommitter A <a@b> 1000 +0000\n"
	text := line + strings.Repeat("x", 100-len(line))
	require.Len(t, text, 100)

	obj, err := commitobj.Parse([]byte(text))
	require.NoError(t, err)

	buf, span := commitobj.Shrink(obj.Buf, obj.Author, 1)
	copy(buf[span.Start:span.End], "999")

	assert.Equal(t, obj.Author.Start-1, span.Start)
	assert.Equal(t, 3, span.Len())

	want := commitobj.Frame([]byte(strings.Replace(text, "1000", "999", 1)))
	assert.Equal(t, string(want), string(buf))
}
