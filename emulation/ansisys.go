package emulation

import (
	"fmt"
	"io"

	"github.com/charmbracelet/x/ansi"
	"github.com/moodclient/retroterm/screen"
)

// ansiMachine implements the DOS ANSI.SYS dialect: the standard CSI set
// with one-parameter cursor motions, the '=' private prefix, ANSI music,
// and full CP437 glyph output.
type ansiMachine struct {
	scr   *screen.Screen
	sink  io.Writer
	hooks *Hooks

	state         parserState
	accum         []byte
	params        paramBuffer
	equalsPrivate bool
	music         []byte

	savedRow, savedCol int
	lastGlyph          rune
}

func newANSIMachine(scr *screen.Screen, sink io.Writer, hooks *Hooks) *ansiMachine {
	m := &ansiMachine{scr: scr, sink: sink, hooks: hooks}
	m.reset()
	return m
}

func (m *ansiMachine) reset() {
	m.state = stateGround
	m.accum = m.accum[:0]
	m.params.reset()
	m.equalsPrivate = false
	m.music = m.music[:0]
	m.savedRow, m.savedCol = 0, 0
	m.lastGlyph = ' '
}

func (m *ansiMachine) reply(s string) {
	if m.sink != nil {
		_, _ = io.WriteString(m.sink, s)
	}
}

func (m *ansiMachine) toGround() {
	m.state = stateGround
	m.accum = m.accum[:0]
}

func (m *ansiMachine) flush() FeedResult {
	glyphs := mapFlush(m.accum, charsetUS)
	m.toGround()
	if len(glyphs) > 0 {
		m.lastGlyph = glyphs[len(glyphs)-1]
	}
	return manyChars(glyphs)
}

// leave flushes any partially scanned sequence to the screen when the
// dispatcher switches away.
func (m *ansiMachine) leave() {
	if m.state == stateGround {
		return
	}
	for _, g := range mapFlush(m.accum, charsetUS) {
		m.scr.PrintChar(g)
	}
	m.toGround()
}

func (m *ansiMachine) feed(b byte) FeedResult {
	if m.state == stateAnsiMusic {
		switch b {
		case ansi.SO, ansi.CR:
			if m.hooks != nil && m.hooks.Music != nil && len(m.music) > 0 {
				notes := make([]byte, len(m.music))
				copy(notes, m.music)
				m.hooks.Music(notes)
			}
			m.music = m.music[:0]
			m.toGround()
		default:
			if len(m.music) < 1024 {
				m.music = append(m.music, b)
			}
		}
		return noChar()
	}

	switch b {
	case ansi.CAN, ansi.SUB:
		m.toGround()
		return noChar()
	case ansi.ESC:
		m.state = stateEscape
		m.accum = append(m.accum[:0], b)
		m.params.reset()
		m.equalsPrivate = false
		return noChar()
	}

	if b < 0x20 {
		m.control(b)
		return noChar()
	}

	if m.state != stateGround && len(m.accum) < 128 {
		m.accum = append(m.accum, b)
	}

	switch m.state {
	case stateGround:
		if b == 0x7F {
			return noChar()
		}
		r := mapByte(b, charsetUS)
		m.lastGlyph = r
		return oneChar(r)
	case stateEscape:
		if b == '[' {
			m.state = stateCsiEntry
			return noChar()
		}
		return m.flush()
	case stateCsiEntry, stateCsiParam:
		return m.csi(b)
	}

	return noChar()
}

func (m *ansiMachine) control(b byte) {
	switch b {
	case ansi.ENQ:
		// ANSI.SYS has no answerback.
	case ansi.BEL:
		if m.hooks != nil && m.hooks.Bell != nil {
			m.hooks.Bell()
		}
	case ansi.BS:
		m.scr.CursorLeft(1)
	case ansi.HT:
		_, col := m.scr.Cursor()
		m.scr.SetCursorCol((col/8 + 1) * 8)
	case ansi.LF, ansi.VT:
		m.scr.LineFeed()
	case ansi.FF:
		m.scr.FormFeed()
	case ansi.CR:
		m.scr.CarriageReturn()
	}
}

func (m *ansiMachine) csi(b byte) FeedResult {
	switch {
	case b == '=' && m.state == stateCsiEntry:
		m.equalsPrivate = true
		m.state = stateCsiParam
		return noChar()
	case b == '?' && m.state == stateCsiEntry:
		// DEC private prefix, tolerated for mode sequences.
		m.state = stateCsiParam
		return noChar()
	case b >= '0' && b <= '9':
		m.params.digit(b)
		m.state = stateCsiParam
		if m.params.overflow {
			return m.flush()
		}
		return noChar()
	case b == ';':
		m.params.separator()
		m.state = stateCsiParam
		if m.params.overflow {
			return m.flush()
		}
		return noChar()
	case b >= 0x40 && b <= 0x7E:
		return m.dispatch(b)
	default:
		return m.flush()
	}
}

func (m *ansiMachine) dispatch(final byte) FeedResult {
	p := &m.params

	// Cursor motions take at most one parameter.
	switch final {
	case 'A', 'B', 'C', 'D':
		if p.count() > 1 {
			return m.flush()
		}
	}

	if final == 'M' {
		m.toGround()
		m.music = m.music[:0]
		m.state = stateAnsiMusic
		return noChar()
	}

	defer m.toGround()

	switch final {
	case 'A':
		m.scr.CursorUp(p.get(0, 1), false)
	case 'B':
		m.scr.CursorDown(p.get(0, 1), false)
	case 'C':
		m.scr.CursorRight(p.get(0, 1))
	case 'D':
		m.scr.CursorLeft(p.get(0, 1))
	case 'H', 'f':
		m.scr.MoveCursor(p.get(0, 1)-1, p.get(1, 1)-1)
	case 'J':
		m.eraseDisplay(p.get(0, 0))
	case 'K':
		m.eraseLine(p.get(0, 0))
	case 'm':
		m.sgr()
	case 'n':
		if p.get(0, 0) == 6 {
			row, col := m.scr.Cursor()
			m.reply(fmt.Sprintf("\x1b[%d;%dR", row+1, col+1))
		}
	case 's':
		m.savedRow, m.savedCol = m.scr.Cursor()
	case 'u':
		m.scr.MoveCursor(m.savedRow, m.savedCol)
	case 'h', 'l':
		m.setMode(p.get(0, 0), final == 'h')
	default:
		return m.flush()
	}

	return noChar()
}

func (m *ansiMachine) eraseDisplay(mode int) {
	row, col := m.scr.Cursor()
	w, h := m.scr.Width(), m.scr.Height()

	switch mode {
	case 0:
		m.scr.EraseScreen(row, col, h-1, w-1, false)
	case 1:
		m.scr.EraseScreen(0, 0, row, col, false)
	case 2:
		// ANSI.SYS clears and homes.
		m.scr.EraseScreen(0, 0, h-1, w-1, false)
		m.scr.MoveCursor(0, 0)
	}
}

func (m *ansiMachine) eraseLine(mode int) {
	_, col := m.scr.Cursor()

	switch mode {
	case 0:
		m.scr.EraseLine(col, m.scr.Width()-1, false)
	case 1:
		m.scr.EraseLine(0, col, false)
	case 2:
		m.scr.EraseLine(0, m.scr.Width()-1, false)
	}
}

func (m *ansiMachine) sgr() {
	p := &m.params
	n := p.count()
	if n == 0 {
		n = 1
	}

	attr := m.scr.Attribute()
	fg, bg := m.scr.Colors()

	for i := 0; i < n; i++ {
		switch v := p.raw(i, 0); {
		case v == 0:
			attr = 0
			fg, bg = screen.ColorDefault, screen.ColorDefault
		case v == 1:
			attr |= screen.AttrBold
		case v == 2:
			attr |= screen.AttrDim
		case v == 4:
			attr |= screen.AttrUnderline
		case v == 5:
			attr |= screen.AttrBlink
		case v == 7:
			attr |= screen.AttrReverse
		case v == 8:
			attr |= screen.AttrInvisible
		case v >= 30 && v <= 37:
			fg = screen.Color(v - 30)
		case v == 39:
			fg = screen.ColorDefault
		case v >= 40 && v <= 47:
			bg = screen.Color(v - 40)
		case v == 49:
			bg = screen.ColorDefault
		}
	}

	m.scr.SetAttribute(attr)
	m.scr.SetColors(fg, bg)
}

func (m *ansiMachine) setMode(mode int, set bool) {
	switch mode {
	case 7:
		m.scr.SetAutoWrap(set)
	}
}
