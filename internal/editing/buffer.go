package editing

import (
	"sync"
	"unicode/utf8"
)

// State is a text snapshot with a selection. Offsets count runes; use
// FromUTF16 and ToUTF16 for offsets coming from or going to a page.
type State struct {
	Text  string `json:"text"`
	Start int    `json:"selectionStart"`
	End   int    `json:"selectionEnd"`
}

// Operation transforms a State. Operations never touch storage.
type Operation interface {
	Perform(s State) (State, error)
}

// Buffer is the server-side mirror of the editing surface.
type Buffer struct {
	mu    sync.RWMutex
	state State
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Text
}

// SetText replaces the text and collapses the selection to the start.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = State{Text: text}
}

func (b *Buffer) Selection() (start, end int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Start, b.state.End
}

func (b *Buffer) SetSelection(start, end int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = clamp(State{Text: b.state.Text, Start: start, End: end})
}

// Snapshot returns the text and selection together.
func (b *Buffer) Snapshot() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Replace sets text and selection at once, as an input event does.
func (b *Buffer) Replace(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = clamp(s)
}

// Apply runs op against the current state. The buffer is left untouched
// when op fails. It reports whether the text changed.
func (b *Buffer) Apply(op Operation) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := op.Perform(clamp(b.state))
	if err != nil {
		return false, err
	}
	changed := next.Text != b.state.Text
	b.state = clamp(next)
	return changed, nil
}

func clamp(s State) State {
	n := utf8.RuneCountInString(s.Text)
	if s.Start < 0 {
		s.Start = 0
	}
	if s.Start > n {
		s.Start = n
	}
	if s.End < s.Start {
		s.End = s.Start
	}
	if s.End > n {
		s.End = n
	}
	return s
}
