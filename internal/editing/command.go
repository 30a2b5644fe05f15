package editing

import "fmt"

const (
	CmdMoveUp     = "move_up"
	CmdMoveDown   = "move_down"
	CmdDuplicate  = "duplicate"
	CmdUpper      = "upper"
	CmdLower      = "lower"
	CmdReplace    = "replace"
	CmdReplaceAll = "replace_all"
)

// Command is the wire form of an editing operation.
type Command struct {
	Name    string `json:"name"`
	Find    string `json:"find,omitempty"`
	Replace string `json:"replace,omitempty"`
}

func (c Command) Operation() (Operation, error) {
	switch c.Name {
	case CmdMoveUp:
		return MoveLines{Up: true}, nil
	case CmdMoveDown:
		return MoveLines{}, nil
	case CmdDuplicate:
		return DuplicateLines{}, nil
	case CmdUpper:
		return UpperCase{}, nil
	case CmdLower:
		return LowerCase{}, nil
	case CmdReplace:
		return ReplaceNext{Find: c.Find, Replace: c.Replace}, nil
	case CmdReplaceAll:
		return ReplaceAll{Find: c.Find, Replace: c.Replace}, nil
	}
	return nil, fmt.Errorf("unknown command %q", c.Name)
}
