package retroterm

import (
	"github.com/moodclient/retroterm/emulation"
	"github.com/moodclient/retroterm/keymap"
)

const (
	defaultWidth      = 80
	defaultHeight     = 24
	defaultScrollback = 500
)

// Config carries the creation-time options of a Session.  The zero value
// produces an 80x24 dumb TTY with no user keymaps.
type Config struct {
	// Width and Height are the screen dimensions in cells.  Zero values
	// fall back to the BBS-era default of 80x24.
	Width  int
	Height int

	// ScrollbackLines caps the number of lines retained after scrolling
	// off the top of a full-screen region.  Zero falls back to 500;
	// negative disables scrollback.
	ScrollbackLines int

	// Emulation selects the dialect active at creation.  The zero value
	// is TTY; most callers want emulation.VT100 or emulation.ANSI.
	Emulation emulation.Emulation

	// AnswerBack is transmitted in response to ENQ.  Dial-up services
	// used the answerback to identify the calling terminal; an empty
	// string sends nothing.
	AnswerBack string

	// Username and Password are substituted for the $USERNAME and
	// $PASSWORD macros in user keymap bindings.  A function key bound to
	// "$USERNAME^M" with an empty Username falls through to the next
	// keymap layer rather than sending a bare CR.
	Username string
	Password string

	// TelnetASCII indicates the transport is a telnet connection in
	// ASCII mode, where a carriage return must be transmitted as CR LF.
	// Leave false for raw sockets, serial lines, and binary-mode telnet.
	TelnetASCII bool

	// DefaultKeymap is a user keymap consulted for every dialect, after
	// any per-dialect keymap.  See keymap.Load for the file format.
	DefaultKeymap *keymap.Keymap

	// EmulationKeymaps are user keymaps consulted only when the named
	// dialect is active.
	EmulationKeymaps map[emulation.Emulation]*keymap.Keymap

	// EventHooks is a set of callbacks that the session will call when the
	// relevant event occurs.  You can register additional callbacks after
	// creation with Session.Register* methods.
	EventHooks EventHooks
}
