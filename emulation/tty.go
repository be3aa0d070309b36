package emulation

import (
	"github.com/charmbracelet/x/ansi"
	"github.com/moodclient/retroterm/screen"
)

// ttyMachine is the dumb glass-terminal dialect.  It honors only the
// basic motion controls and prints everything else through the codepage
// mapper.
type ttyMachine struct {
	scr   *screen.Screen
	hooks *Hooks
}

func newTTYMachine(scr *screen.Screen, hooks *Hooks) *ttyMachine {
	return &ttyMachine{scr: scr, hooks: hooks}
}

func (m *ttyMachine) reset() {}

func (m *ttyMachine) feed(b byte) FeedResult {
	switch b {
	case ansi.BEL:
		if m.hooks != nil && m.hooks.Bell != nil {
			m.hooks.Bell()
		}
		return noChar()
	case ansi.BS:
		m.scr.CursorLeft(1)
		return noChar()
	case ansi.HT:
		_, col := m.scr.Cursor()
		m.scr.SetCursorCol((col/8 + 1) * 8)
		return noChar()
	case ansi.LF, ansi.VT, ansi.FF:
		m.scr.LineFeed()
		return noChar()
	case ansi.CR:
		m.scr.CarriageReturn()
		return noChar()
	}

	if b < 0x20 || b == 0x7F {
		return noChar()
	}

	return oneChar(mapByte(b, charsetUS))
}
