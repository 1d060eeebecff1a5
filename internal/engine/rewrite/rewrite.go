// # internal/engine/rewrite/rewrite.go
package rewrite

import (
	"sort"
	"strings"
)

// Span is a half-open byte range [Start, End) into a source buffer.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int {
	return s.End - s.Start
}

// ChangeRecord describes one applied edit in human-readable form.
type ChangeRecord struct {
	Description string
	Symbol      string
}

// Edit is a single replacement. OldText, when set, is verified against the
// buffer before splicing; a mismatch drops the edit rather than corrupting
// the file. Line edits expand the span to whole covering lines and only
// delete when the trimmed first line starts with Guard. TailAppend edits
// ignore Span: they run after every other edit in the batch and replace the
// then-current trailing whitespace.
type Edit struct {
	Span    Span
	OldText string
	NewText string

	Line       bool
	Guard      string
	TailAppend bool

	Desc   string
	Symbol string
}

// Buffer is a mutable copy of one file's source text.
type Buffer struct {
	data []byte
}

func NewBuffer(src []byte) *Buffer {
	data := make([]byte, len(src))
	copy(data, src)
	return &Buffer{data: data}
}

func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Len() int {
	return len(b.data)
}

// Apply splices the edits into the buffer, later spans first so earlier byte
// offsets stay valid, and returns a record per edit that actually landed.
// Edits whose verification or guard fails are skipped.
func (b *Buffer) Apply(edits []Edit) []ChangeRecord {
	if len(edits) == 0 {
		return nil
	}
	var ordered, tail []int
	for i, e := range edits {
		if e.TailAppend {
			tail = append(tail, i)
			continue
		}
		ordered = append(ordered, i)
	}
	sort.SliceStable(ordered, func(x, y int) bool {
		a, c := edits[ordered[x]], edits[ordered[y]]
		if a.Span.Start != c.Span.Start {
			return a.Span.Start > c.Span.Start
		}
		return a.Span.End > c.Span.End
	})

	applied := make([]bool, len(edits))
	for _, i := range ordered {
		e := edits[i]
		if e.Line {
			applied[i] = b.deleteLine(e.Span, e.Guard)
			continue
		}
		applied[i] = b.replace(e.Span, e.OldText, e.NewText)
	}
	for _, i := range tail {
		applied[i] = b.replace(TailSpan(b.data), "", edits[i].NewText)
	}

	var records []ChangeRecord
	for i, e := range edits {
		if applied[i] && e.Desc != "" {
			records = append(records, ChangeRecord{Description: e.Desc, Symbol: e.Symbol})
		}
	}
	return records
}

func (b *Buffer) replace(span Span, old, new string) bool {
	if span.Start < 0 || span.End > len(b.data) || span.Start > span.End {
		return false
	}
	if old != "" && string(b.data[span.Start:span.End]) != old {
		return false
	}
	out := make([]byte, 0, len(b.data)-span.Len()+len(new))
	out = append(out, b.data[:span.Start]...)
	out = append(out, new...)
	out = append(out, b.data[span.End:]...)
	b.data = out
	return true
}

// deleteLine removes the whole line containing span.Start, including its
// trailing newline, but only when the trimmed line starts with guard.
func (b *Buffer) deleteLine(span Span, guard string) bool {
	if span.Start < 0 || span.Start >= len(b.data) {
		return false
	}
	lineStart := span.Start
	for lineStart > 0 && b.data[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := span.Start
	for lineEnd < len(b.data) && b.data[lineEnd] != '\n' {
		lineEnd++
	}
	line := strings.TrimSpace(string(b.data[lineStart:lineEnd]))
	if guard != "" && !strings.HasPrefix(line, guard) {
		return false
	}
	if lineEnd < len(b.data) {
		lineEnd++ // take the newline with the line
	}
	return b.replace(Span{Start: lineStart, End: lineEnd}, "", "")
}

// TailSpan returns the span of trailing whitespace, for append edits that
// want to normalize the end of file first.
func TailSpan(src []byte) Span {
	end := len(src)
	start := end
	for start > 0 {
		switch src[start-1] {
		case ' ', '\t', '\r', '\n':
			start--
		default:
			return Span{Start: start, End: end}
		}
	}
	return Span{Start: start, End: end}
}

// AppendEdit builds an edit that strips trailing whitespace and appends one
// blank line followed by the given statements, each terminated by a newline.
// It applies after the rest of its batch, against the buffer they produced.
func AppendEdit(desc, symbol string, statements ...string) Edit {
	return Edit{
		TailAppend: true,
		NewText:    "\n\n" + strings.Join(statements, "\n\n") + "\n",
		Desc:       desc,
		Symbol:     symbol,
	}
}
