package rewrite

import (
	"testing"
)

func TestBufferApply(t *testing.T) {
	t.Run("ReplaceVerified", func(t *testing.T) {
		b := NewBuffer([]byte("export default Foo;\n"))
		recs := b.Apply([]Edit{{
			Span:    Span{Start: 0, End: 19},
			OldText: "export default Foo;",
			NewText: "export { Foo };",
			Desc:    "Default to Named export: Foo",
			Symbol:  "Foo",
		}})
		if got := string(b.Bytes()); got != "export { Foo };\n" {
			t.Errorf("unexpected buffer: %q", got)
		}
		if len(recs) != 1 || recs[0].Symbol != "Foo" {
			t.Errorf("unexpected records: %+v", recs)
		}
	})

	t.Run("MismatchDropped", func(t *testing.T) {
		b := NewBuffer([]byte("export default Foo;\n"))
		recs := b.Apply([]Edit{{
			Span:    Span{Start: 0, End: 19},
			OldText: "export default Bar;",
			NewText: "export { Bar };",
			Desc:    "Default to Named export: Bar",
		}})
		if got := string(b.Bytes()); got != "export default Foo;\n" {
			t.Errorf("buffer should be untouched, got %q", got)
		}
		if len(recs) != 0 {
			t.Errorf("expected no records, got %+v", recs)
		}
	})

	t.Run("DescendingOrder", func(t *testing.T) {
		src := "const a = 1;\nconst b = 2;\n"
		b := NewBuffer([]byte(src))
		recs := b.Apply([]Edit{
			{Span: Span{Start: 6, End: 7}, OldText: "a", NewText: "first", Desc: "a"},
			{Span: Span{Start: 19, End: 20}, OldText: "b", NewText: "second", Desc: "b"},
		})
		if got := string(b.Bytes()); got != "const first = 1;\nconst second = 2;\n" {
			t.Errorf("unexpected buffer: %q", got)
		}
		if len(recs) != 2 || recs[0].Description != "a" || recs[1].Description != "b" {
			t.Errorf("records out of order: %+v", recs)
		}
	})

	t.Run("OverlappingSecondDropped", func(t *testing.T) {
		b := NewBuffer([]byte("export { A };\n"))
		recs := b.Apply([]Edit{
			{Span: Span{Start: 0, End: 13}, OldText: "export { A };", NewText: "", Desc: "one"},
			{Span: Span{Start: 0, End: 13}, OldText: "export { A };", NewText: "", Desc: "two"},
		})
		if got := string(b.Bytes()); got != "\n" {
			t.Errorf("unexpected buffer: %q", got)
		}
		if len(recs) != 1 {
			t.Errorf("expected one applied record, got %+v", recs)
		}
	})
}

func TestDeleteLine(t *testing.T) {
	t.Run("GuardMatches", func(t *testing.T) {
		src := "class Foo {}\nexport default Foo;\nclass Bar {}\n"
		b := NewBuffer([]byte(src))
		recs := b.Apply([]Edit{{
			Span:  Span{Start: 13, End: 32},
			Line:  true,
			Guard: "export",
			Desc:  "Removed duplicate default export of Foo",
		}})
		if got := string(b.Bytes()); got != "class Foo {}\nclass Bar {}\n" {
			t.Errorf("unexpected buffer: %q", got)
		}
		if len(recs) != 1 {
			t.Errorf("expected one record, got %+v", recs)
		}
	})

	t.Run("GuardRejects", func(t *testing.T) {
		src := "class Foo {}\n"
		b := NewBuffer([]byte(src))
		recs := b.Apply([]Edit{{
			Span:  Span{Start: 0, End: 12},
			Line:  true,
			Guard: "export",
			Desc:  "should not apply",
		}})
		if got := string(b.Bytes()); got != src {
			t.Errorf("buffer should be untouched, got %q", got)
		}
		if len(recs) != 0 {
			t.Errorf("expected no records, got %+v", recs)
		}
	})

	t.Run("NoTrailingNewline", func(t *testing.T) {
		b := NewBuffer([]byte("export const x = 1;"))
		b.Apply([]Edit{{Span: Span{Start: 0, End: 19}, Line: true, Guard: "export", Desc: "x"}})
		if got := string(b.Bytes()); got != "" {
			t.Errorf("unexpected buffer: %q", got)
		}
	})
}

func TestAppendEdit(t *testing.T) {
	t.Run("NormalizesTail", func(t *testing.T) {
		b := NewBuffer([]byte("class Foo {}\n\n\n"))
		b.Apply([]Edit{AppendEdit("Added named export", "Foo", "export { Foo };")})
		if got := string(b.Bytes()); got != "class Foo {}\n\nexport { Foo };\n" {
			t.Errorf("unexpected buffer: %q", got)
		}
	})

	t.Run("MultipleStatements", func(t *testing.T) {
		b := NewBuffer([]byte("class A {}\nclass B {}"))
		b.Apply([]Edit{AppendEdit("", "", "export { A };", "export { B };")})
		want := "class A {}\nclass B {}\n\nexport { A };\n\nexport { B };\n"
		if got := string(b.Bytes()); got != want {
			t.Errorf("unexpected buffer: %q", got)
		}
	})

	t.Run("AppliesAfterRemovals", func(t *testing.T) {
		// The tail is computed against the batch's own output, so a
		// removal at the end of file does not leave stray blank lines.
		src := "class Button {}\nexport { Button };\n"
		b := NewBuffer([]byte(src))
		b.Apply([]Edit{
			{Span: Span{Start: 16, End: 34}, OldText: "export { Button };", NewText: ""},
			AppendEdit("", "", "export default Button;"),
		})
		if got := string(b.Bytes()); got != "class Button {}\n\nexport default Button;\n" {
			t.Errorf("unexpected buffer: %q", got)
		}
	})
}

func TestCollapseTerminators(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		changed bool
	}{
		{"Double", "export { A };;\n", "export { A };\n", true},
		{"Run", "const x = 1;;;;\n", "const x = 1;\n", true},
		{"Untouched", "const x = 1;\n", "const x = 1;\n", false},
		{"InsideString", "const s = \";;\";\n", "const s = \";\";\n", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := CollapseTerminators([]byte(tc.in))
			if string(got) != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
			if changed != tc.changed {
				t.Errorf("changed = %v, want %v", changed, tc.changed)
			}
		})
	}
}

func TestCollapseBlankRuns(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		changed bool
	}{
		{"ThreeNewlines", "a\n\n\nb\n", "a\n\nb\n", true},
		{"ManyNewlines", "a\n\n\n\n\n\nb\n", "a\n\nb\n", true},
		{"BlankLinesWithSpaces", "a\n  \n\t\nb\n", "a\n\nb\n", true},
		{"IndentationKept", "a\n\n\n    b\n", "a\n\n    b\n", true},
		{"OneBlankLineKept", "a\n\nb\n", "a\n\nb\n", false},
		{"NoRun", "a\nb\n", "a\nb\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := CollapseBlankRuns([]byte(tc.in))
			if string(got) != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
			if changed != tc.changed {
				t.Errorf("changed = %v, want %v", changed, tc.changed)
			}
			again, rechanged := CollapseBlankRuns(got)
			if string(again) != string(got) || rechanged {
				t.Errorf("not a fixed point: %q -> %q", got, again)
			}
		})
	}
}
