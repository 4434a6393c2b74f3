package term

// MouseMode selects the level of mouse event reporting (DEC private modes
// 1000/1002/1003).
type MouseMode uint8

const (
	MouseNone MouseMode = iota
	MouseX10
	MouseNormal
	MouseButton
	MouseAny
)

// Modes holds the boolean terminal modes tracked by the emulator (spec §3).
type Modes struct {
	ApplicationCursorKeys bool // DECCKM
	ApplicationKeypad     bool
	OriginMode            bool // DECOM
	AutoWrap              bool // DECAWM
	CursorVisible         bool // DECTCEM
	AlternateScreen       bool // 1049
	BracketedPaste        bool // 2004
	FocusEvents           bool // 1004
	Mouse                 MouseMode
}

// DefaultModes returns power-on mode defaults (spec §4.3 reset semantics).
func DefaultModes() Modes {
	return Modes{
		AutoWrap:      true,
		CursorVisible: true,
	}
}
