package rewrite

import "bytes"

// CollapseTerminators rewrites every run of two or more semicolons to a
// single one, anywhere in the buffer.
func CollapseTerminators(src []byte) ([]byte, bool) {
	if !bytes.Contains(src, []byte(";;")) {
		return src, false
	}
	out := make([]byte, 0, len(src))
	changed := false
	for i := 0; i < len(src); i++ {
		out = append(out, src[i])
		if src[i] != ';' {
			continue
		}
		for i+1 < len(src) && src[i+1] == ';' {
			i++
			changed = true
		}
	}
	return out, changed
}

// CollapseBlankRuns rewrites any run of three or more newlines, with only
// blank or whitespace lines between them, to exactly two newlines. Trailing
// whitespace before the run and indentation after it are left alone. The
// result is a fixed point of the function.
func CollapseBlankRuns(src []byte) ([]byte, bool) {
	out := make([]byte, 0, len(src))
	changed := false
	for i := 0; i < len(src); {
		if src[i] != '\n' {
			out = append(out, src[i])
			i++
			continue
		}
		// Extend over newlines and interior blank-line whitespace, ending
		// at the byte after the last newline of the run.
		j := i
		end := i + 1
		newlines := 0
		for j < len(src) {
			c := src[j]
			if c == '\n' {
				newlines++
				j++
				end = j
				continue
			}
			if c == ' ' || c == '\t' || c == '\r' {
				j++
				continue
			}
			break
		}
		if newlines >= 3 {
			out = append(out, '\n', '\n')
			changed = true
		} else {
			out = append(out, src[i:end]...)
		}
		i = end
	}
	return out, changed
}
