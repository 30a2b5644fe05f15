package editing

import "strings"

// lineSpan returns the lines of text and the first and last line touched by
// the selection. A selection ending right after a newline does not include
// the following line.
func lineSpan(r []rune, start, end int) (lines []string, first, last int) {
	lines = strings.Split(string(r), "\n")
	first = countNewlines(r[:start])
	last = countNewlines(r[:end])
	if end > start && r[end-1] == '\n' {
		last--
	}
	return lines, first, last
}

func countNewlines(r []rune) int {
	n := 0
	for _, c := range r {
		if c == '\n' {
			n++
		}
	}
	return n
}

func runeLen(s string) int {
	return len([]rune(s))
}

// MoveLines moves the lines under the selection one line up or down,
// keeping the selection on the moved text.
type MoveLines struct {
	Up bool
}

func (op MoveLines) Perform(s State) (State, error) {
	r := []rune(s.Text)
	lines, first, last := lineSpan(r, s.Start, s.End)

	if op.Up {
		if first == 0 {
			return s, nil
		}
		shift := runeLen(lines[first-1]) + 1
		moved := append([]string{}, lines[:first-1]...)
		moved = append(moved, lines[first:last+1]...)
		moved = append(moved, lines[first-1])
		moved = append(moved, lines[last+1:]...)
		return State{Text: strings.Join(moved, "\n"), Start: s.Start - shift, End: s.End - shift}, nil
	}

	if last >= len(lines)-1 {
		return s, nil
	}
	shift := runeLen(lines[last+1]) + 1
	moved := append([]string{}, lines[:first]...)
	moved = append(moved, lines[last+1])
	moved = append(moved, lines[first:last+1]...)
	moved = append(moved, lines[last+2:]...)
	return State{Text: strings.Join(moved, "\n"), Start: s.Start + shift, End: s.End + shift}, nil
}

// DuplicateLines inserts a copy of the selected lines below them and puts
// the cursor at the same place in the copy.
type DuplicateLines struct{}

func (DuplicateLines) Perform(s State) (State, error) {
	r := []rune(s.Text)
	lines := strings.Split(string(r), "\n")
	first := countNewlines(r[:s.Start])
	last := countNewlines(r[:s.End])

	dup := strings.Join(lines[first:last+1], "\n")
	out := append([]string{}, lines[:last+1]...)
	out = append(out, dup)
	out = append(out, lines[last+1:]...)

	cursor := s.End + runeLen(dup) + 1
	return State{Text: strings.Join(out, "\n"), Start: cursor, End: cursor}, nil
}
