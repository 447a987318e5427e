package tui

// Keybinding constants
const (
	KeyTab      = "tab"
	KeyShiftTab = "shift+tab"
	KeyQuit     = "q"
	KeyCtrlC    = "ctrl+c"
	KeyEsc      = "esc"
	KeyPane1    = "1"
	KeyPane2    = "2"
	KeyUp       = "up"
	KeyDown     = "down"
	KeyJ        = "j"
	KeyK        = "k"
	KeyAdd      = "a"
	KeyDepend   = "D"
	KeyUndepend = "x"
	KeyDelete   = "d"
	KeyImage    = "i"
	KeyRefresh  = "r"
	KeySettings = "s"
)

// HelpView returns a one-line help bar with common keybindings.
func HelpView() string {
	return StyleHelp.Render("Tab: focus | j/k: select | a: add | D: depend | x: undepend | d: delete | i: image | r: refresh | s: settings | q: quit")
}
