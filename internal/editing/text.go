package editing

import (
	"errors"
	"strings"
	"unicode"
)

var ErrNotFound = errors.New("end of document")

// UpperCase converts the selection to upper case and keeps it selected.
type UpperCase struct{}

func (UpperCase) Perform(s State) (State, error) {
	return mapSelection(s, strings.ToUpper), nil
}

// LowerCase converts the selection to lower case and keeps it selected.
type LowerCase struct{}

func (LowerCase) Perform(s State) (State, error) {
	return mapSelection(s, strings.ToLower), nil
}

func mapSelection(s State, fn func(string) string) State {
	if s.Start == s.End {
		return s
	}
	r := []rune(s.Text)
	replaced := []rune(fn(string(r[s.Start:s.End])))
	return spliceSelect(r, s.Start, s.End, replaced)
}

// spliceSelect replaces r[start:end] with repl and selects the new text.
func spliceSelect(r []rune, start, end int, repl []rune) State {
	out := make([]rune, 0, len(r)-(end-start)+len(repl))
	out = append(out, r[:start]...)
	out = append(out, repl...)
	out = append(out, r[end:]...)
	return State{Text: string(out), Start: start, End: start + len(repl)}
}

// ReplaceNext replaces the selection when it matches Find, ignoring case.
// Otherwise it selects the next exact occurrence after the selection, or
// fails with ErrNotFound when there is none.
type ReplaceNext struct {
	Find    string
	Replace string
}

func (op ReplaceNext) Perform(s State) (State, error) {
	if op.Find == "" {
		return s, nil
	}
	r := []rune(s.Text)
	if strings.EqualFold(string(r[s.Start:s.End]), op.Find) {
		return spliceSelect(r, s.Start, s.End, []rune(op.Replace)), nil
	}

	idx := indexRunes(r, []rune(op.Find), s.End)
	if idx < 0 {
		return s, ErrNotFound
	}
	return State{Text: s.Text, Start: idx, End: idx + runeLen(op.Find)}, nil
}

// ReplaceAll replaces every exact occurrence of Find.
type ReplaceAll struct {
	Find    string
	Replace string
}

func (op ReplaceAll) Perform(s State) (State, error) {
	if op.Find == "" {
		return s, nil
	}
	out := strings.ReplaceAll(s.Text, op.Find, op.Replace)
	if out == s.Text {
		return s, ErrNotFound
	}
	return State{Text: out, Start: s.Start, End: s.End}, nil
}

func indexRunes(r, sub []rune, from int) int {
	for i := from; i+len(sub) <= len(r); i++ {
		match := true
		for j := range sub {
			if r[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Stats are the counters shown in the status bar.
type Stats struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
}

func Count(text string) Stats {
	return Stats{
		Words:      len(strings.FieldsFunc(text, unicode.IsSpace)),
		// counted like the page's text.length
		Characters: UTF16Len(text),
	}
}
