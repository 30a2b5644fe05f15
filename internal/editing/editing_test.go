package editing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveLinesUp(t *testing.T) {
	// cursor on "two", column 1
	got, err := MoveLines{Up: true}.Perform(State{Text: "one\ntwo\nthree", Start: 5, End: 5})
	require.NoError(t, err)
	assert.Equal(t, State{Text: "two\none\nthree", Start: 1, End: 1}, got)
}

func TestMoveLinesUpAtTopIsNoop(t *testing.T) {
	in := State{Text: "one\ntwo", Start: 1, End: 2}
	got, err := MoveLines{Up: true}.Perform(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestMoveLinesDownBlock(t *testing.T) {
	// select "one\ntwo\n" entirely; the trailing newline does not pull in "three"
	got, err := MoveLines{}.Perform(State{Text: "one\ntwo\nthree\nfour", Start: 0, End: 8})
	require.NoError(t, err)
	assert.Equal(t, State{Text: "three\none\ntwo\nfour", Start: 6, End: 14}, got)
}

func TestMoveLinesDownAtBottomIsNoop(t *testing.T) {
	in := State{Text: "one\ntwo", Start: 5, End: 5}
	got, err := MoveLines{}.Perform(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestDuplicateLines(t *testing.T) {
	got, err := DuplicateLines{}.Perform(State{Text: "one\ntwo\nthree", Start: 5, End: 5})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\ntwo\nthree", got.Text)
	assert.Equal(t, 9, got.Start)
	assert.Equal(t, 9, got.End)
}

func TestDuplicateMultipleLines(t *testing.T) {
	got, err := DuplicateLines{}.Perform(State{Text: "a\nb\nc", Start: 0, End: 3})
	require.NoError(t, err)
	assert.Equal(t, "a\nb\na\nb\nc", got.Text)
	assert.Equal(t, 7, got.End)
}

func TestUpperCaseSelection(t *testing.T) {
	got, err := UpperCase{}.Perform(State{Text: "olá mundo", Start: 0, End: 3})
	require.NoError(t, err)
	assert.Equal(t, State{Text: "OLÁ mundo", Start: 0, End: 3}, got)

	in := State{Text: "abc", Start: 1, End: 1}
	got, err = UpperCase{}.Perform(in)
	require.NoError(t, err)
	assert.Equal(t, in, got, "empty selection is left alone")
}

func TestLowerCaseSelection(t *testing.T) {
	got, err := LowerCase{}.Perform(State{Text: "ABC DEF", Start: 4, End: 7})
	require.NoError(t, err)
	assert.Equal(t, "ABC def", got.Text)
}

func TestReplaceNextSelectsThenReplaces(t *testing.T) {
	op := ReplaceNext{Find: "cat", Replace: "dog"}
	s := State{Text: "a cat and a Cat"}

	s, err := op.Perform(s)
	require.NoError(t, err)
	assert.Equal(t, State{Text: "a cat and a Cat", Start: 2, End: 5}, s)

	s, err = op.Perform(s)
	require.NoError(t, err)
	assert.Equal(t, State{Text: "a dog and a Cat", Start: 2, End: 5}, s)

	// the next search is case sensitive, so "Cat" is not found
	_, err = op.Perform(s)
	assert.ErrorIs(t, err, ErrNotFound)

	// but a case-insensitive match of the current selection is replaced
	s = State{Text: s.Text, Start: 12, End: 15}
	s, err = op.Perform(s)
	require.NoError(t, err)
	assert.Equal(t, "a dog and a dog", s.Text)
}

func TestReplaceAll(t *testing.T) {
	got, err := ReplaceAll{Find: "x", Replace: "yy"}.Perform(State{Text: "x-x-X"})
	require.NoError(t, err)
	assert.Equal(t, "yy-yy-X", got.Text)

	_, err = ReplaceAll{Find: "z", Replace: "q"}.Perform(State{Text: "abc"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCount(t *testing.T) {
	assert.Equal(t, Stats{Words: 3, Characters: 17}, Count("  olá\tmundo\n ok  "))
	assert.Equal(t, Stats{}, Count(""))
}

func TestBufferApply(t *testing.T) {
	b := NewBuffer()
	b.SetText("one\ntwo")
	b.SetSelection(4, 4)

	changed, err := b.Apply(MoveLines{Up: true})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "two\none", b.Text())
	start, end := b.Selection()
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)

	changed, err = b.Apply(ReplaceAll{Find: "zzz"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, changed)
	assert.Equal(t, "two\none", b.Text())
}

func TestBufferClampsSelection(t *testing.T) {
	b := NewBuffer()
	b.SetText("abc")
	b.SetSelection(-4, 99)
	start, end := b.Selection()
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)
}

func TestCommandOperation(t *testing.T) {
	for _, name := range []string{CmdMoveUp, CmdMoveDown, CmdDuplicate, CmdUpper, CmdLower, CmdReplace, CmdReplaceAll} {
		op, err := Command{Name: name}.Operation()
		assert.NoError(t, err, name)
		assert.NotNil(t, op, name)
	}
	_, err := Command{Name: "rot13"}.Operation()
	assert.Error(t, err)
}

func TestUTF16Offsets(t *testing.T) {
	text := "😀 ab"
	assert.Equal(t, 5, UTF16Len(text))
	assert.Equal(t, 2, RuneOffset(text, 3))
	assert.Equal(t, 0, RuneOffset(text, 1), "inside a surrogate pair rounds down")
	assert.Equal(t, 4, RuneOffset(text, 99))
	assert.Equal(t, 3, UTF16Offset(text, 2))

	st := State{Text: text, Start: 3, End: 5}
	assert.Equal(t, State{Text: text, Start: 2, End: 4}, FromUTF16(st))
	assert.Equal(t, st, ToUTF16(FromUTF16(st)))
}

func TestCountMatchesPageLength(t *testing.T) {
	assert.Equal(t, Stats{Words: 2, Characters: 5}, Count("😀 ab"))
}
