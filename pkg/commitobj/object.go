// Package commitobj frames raw git commit objects for hashing and locates the
// author and committer timestamps inside them.
package commitobj

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

const objectType = "commit"

// Field selects which signature timestamp of a commit is addressed.
type Field string

const (
	// FieldAuthor is the author signature line.
	FieldAuthor Field = "author"
	// FieldCommitter is the committer signature line.
	FieldCommitter Field = "committer"
)

// ErrUnknownField is returned for a Field other than author or committer.
var ErrUnknownField = errors.New("unknown timestamp field")

// ParseField converts a field name into a Field.
func ParseField(name string) (Field, error) {
	switch Field(name) {
	case FieldAuthor, FieldCommitter:
		return Field(name), nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownField, name, FieldAuthor, FieldCommitter)
	}
}

// Span delimits the decimal digits of a timestamp inside a buffer.
// Value holds the digits as they were when the span was located.
type Span struct {
	Start int
	End   int
	Value string
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

// Shift returns the span moved by n bytes.
func (s Span) Shift(n int) Span {
	s.Start += n
	s.End += n

	return s
}

// Timestamp parses the located value.
func (s Span) Timestamp() (int64, error) {
	ts, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", s.Value, err)
	}

	return ts, nil
}

// Object is a framed commit object together with its timestamp spans.
// Span offsets index Buf, header included.
type Object struct {
	Buf       []byte
	Author    Span
	Committer Span
}

// Parse frames commit text and locates both timestamps in the framed buffer.
func Parse(text []byte) (*Object, error) {
	author, committer, err := Locate(text)
	if err != nil {
		return nil, err
	}

	buf := Frame(text)
	headerLen := len(buf) - len(text)

	return &Object{
		Buf:       buf,
		Author:    author.Shift(headerLen),
		Committer: committer.Shift(headerLen),
	}, nil
}

// Span returns the span of the given field.
func (o *Object) Span(field Field) (Span, error) {
	switch field {
	case FieldAuthor:
		return o.Author, nil
	case FieldCommitter:
		return o.Committer, nil
	default:
		return Span{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// Text returns the commit text without the framing header.
func (o *Object) Text() []byte {
	return Body(o.Buf)
}

// WithTimestamp returns a copy of the commit text with the field's timestamp
// replaced by ts.
func (o *Object) WithTimestamp(field Field, ts int64) ([]byte, error) {
	span, err := o.Span(field)
	if err != nil {
		return nil, err
	}

	headerLen := HeaderLen(o.Buf)
	text := o.Buf[headerLen:]
	span = span.Shift(-headerLen)

	out := make([]byte, 0, len(text))
	out = append(out, text[:span.Start]...)
	out = strconv.AppendInt(out, ts, 10)
	out = append(out, text[span.End:]...)

	return out, nil
}

// Frame prefixes text with the git object header "commit <len>\x00".
func Frame(text []byte) []byte {
	buf := appendHeader(make([]byte, 0, len(text)+len(objectType)+12), len(text))

	return append(buf, text...)
}

// HeaderLen returns the length of the framing header including its NUL, or 0
// if buf is not framed.
func HeaderLen(buf []byte) int {
	return bytes.IndexByte(buf, 0) + 1
}

// Body returns buf without the framing header.
func Body(buf []byte) []byte {
	return buf[HeaderLen(buf):]
}

// Shrink drops the last n digits of span from buf and re-renders the header
// length for the shorter body. The returned span reflects any header shift.
// buf is modified in place when the header keeps its width.
func Shrink(buf []byte, span Span, n int) ([]byte, Span) {
	copy(buf[span.End-n:], buf[span.End:])
	buf = buf[:len(buf)-n]
	span.End -= n

	headerLen := HeaderLen(buf)
	header := appendHeader(nil, len(buf)-headerLen)

	if len(header) == headerLen {
		copy(buf, header)

		return buf, span
	}

	reframed := make([]byte, 0, len(header)+len(buf)-headerLen)
	reframed = append(reframed, header...)
	reframed = append(reframed, buf[headerLen:]...)

	return reframed, span.Shift(len(header) - headerLen)
}

func appendHeader(dst []byte, size int) []byte {
	dst = append(dst, objectType...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(size), 10)

	return append(dst, 0)
}
