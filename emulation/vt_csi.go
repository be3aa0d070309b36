package emulation

import (
	"fmt"
	"sort"

	"github.com/moodclient/retroterm/screen"
)

// deviceAttributes is the primary DA response, advertising a VT102.
const deviceAttributes = "\x1b[?6c"

func (m *vtMachine) csiDispatch(final byte) FeedResult {
	defer m.toGround()

	if len(m.intermediates) > 0 {
		return m.csiDispatchIntermediate(final)
	}
	if m.equalsPrivate {
		// ANSI.SYS-style '=' sequences have no meaning here.
		return noChar()
	}

	p := &m.params

	switch final {
	case '@': // ICH
		m.scr.InsertBlanks(p.get(0, 1))
	case 'A': // CUU
		m.scr.CursorUp(p.get(0, 1), true)
	case 'B': // CUD
		m.scr.CursorDown(p.get(0, 1), true)
	case 'C': // CUF
		m.scr.CursorRight(p.get(0, 1))
	case 'D': // CUB
		m.scr.CursorLeft(p.get(0, 1))
	case 'E': // CNL
		m.scr.CursorDown(p.get(0, 1), true)
		m.scr.CarriageReturn()
	case 'F': // CPL
		m.scr.CursorUp(p.get(0, 1), true)
		m.scr.CarriageReturn()
	case 'G': // CHA
		m.scr.SetCursorCol(p.get(0, 1) - 1)
	case 'H', 'f': // CUP, HVP
		m.scr.MoveCursor(p.get(0, 1)-1, p.get(1, 1)-1)
	case 'I': // CHT
		for i := p.get(0, 1); i > 0; i-- {
			m.scr.SetCursorCol(m.nextTabStop())
		}
	case 'J':
		m.eraseDisplay(p.get(0, 0))
	case 'K':
		m.eraseLine(p.get(0, 0))
	case 'L': // IL
		m.scr.InsertLines(p.get(0, 1))
	case 'M': // DL
		m.scr.DeleteLines(p.get(0, 1))
	case 'P': // DCH
		m.scr.DeleteChars(p.get(0, 1))
	case 'S': // SU
		if m.xterm() {
			m.scr.ScrollUp(p.get(0, 1))
		}
	case 'T': // SD
		if m.xterm() {
			m.scr.ScrollDown(p.get(0, 1))
		}
	case 'X': // ECH
		_, col := m.scr.Cursor()
		m.scr.EraseLine(col, col+p.get(0, 1)-1, false)
	case 'Z': // CBT
		for i := p.get(0, 1); i > 0; i-- {
			m.scr.SetCursorCol(m.prevTabStop())
		}
	case 'b': // REP
		n := p.get(0, 1)
		glyphs := make([]rune, n)
		for i := range glyphs {
			glyphs[i] = m.lastGlyph
		}
		return manyChars(glyphs)
	case 'c': // DA
		if p.get(0, 0) == 0 {
			m.reply(deviceAttributes)
		}
	case 'd': // VPA
		_, col := m.scr.Cursor()
		m.scr.MoveCursor(p.get(0, 1)-1, col)
	case 'g': // TBC
		switch p.get(0, 0) {
		case 0:
			m.clearTabStop()
		case 3:
			m.tabStops = m.tabStops[:0]
		}
	case 'h':
		m.setModes(true)
	case 'l':
		m.setModes(false)
	case 'm':
		m.sgr()
	case 'n':
		m.deviceStatus(p.get(0, 0))
	case 'q': // DECLL
		for i := 0; i < p.count() || i == 0; i++ {
			switch p.get(i, 0) {
			case 0:
				m.scr.ClearLEDs()
			case 1, 2, 3, 4:
				m.scr.SetLED(p.get(i, 0)-1, true)
			}
		}
	case 'r':
		if m.private {
			// Restore DEC private mode values, not retained.
			return noChar()
		}
		m.setScrollRegion(p.get(0, 1), p.get(1, m.scr.Height()))
	case 's':
		m.saveCursor()
	case 'u':
		m.restoreCursor()
	case 'x': // DECREQTPARM
		sol := p.get(0, 0)
		if sol == 0 || sol == 1 {
			m.reply(fmt.Sprintf("\x1b[%d;1;1;120;120;1;0x", sol+2))
		}
	case ']':
		if m.linux() {
			m.linuxSetterm()
		}
	default:
		return m.flush()
	}

	return noChar()
}

func (m *vtMachine) csiDispatchIntermediate(final byte) FeedResult {
	switch string(m.intermediates) {
	case "\"":
		if final == 'q' { // DECSCA
			attr := m.scr.Attribute()
			switch m.params.get(0, 0) {
			case 1:
				m.scr.SetAttribute(attr | screen.AttrProtect)
			default:
				m.scr.SetAttribute(attr &^ screen.AttrProtect)
			}
			return noChar()
		}
	case "!":
		if final == 'p' { // DECSTR
			m.softReset()
			return noChar()
		}
	case " ":
		if final == 'q' { // DECSCUSR, cursor shape not modeled
			return noChar()
		}
	}
	return m.flush()
}

func (m *vtMachine) eraseDisplay(mode int) {
	row, col := m.scr.Cursor()
	w, h := m.scr.Width(), m.scr.Height()
	protect := m.private

	switch mode {
	case 0:
		m.scr.EraseScreen(row, col, h-1, w-1, protect)
	case 1:
		m.scr.EraseScreen(0, 0, row, col, protect)
	case 2:
		m.scr.EraseScreen(0, 0, h-1, w-1, protect)
	}
}

func (m *vtMachine) eraseLine(mode int) {
	_, col := m.scr.Cursor()
	protect := m.private

	switch mode {
	case 0:
		m.scr.EraseLine(col, m.scr.Width()-1, protect)
	case 1:
		m.scr.EraseLine(0, col, protect)
	case 2:
		m.scr.EraseLine(0, m.scr.Width()-1, protect)
	}
}

func (m *vtMachine) setScrollRegion(top, bottom int) {
	if m.scr.SetRegion(top-1, bottom-1) {
		m.scr.MoveCursor(0, 0)
	}
}

func (m *vtMachine) sgr() {
	p := &m.params
	n := p.count()
	if n == 0 {
		n = 1 // empty SGR is a reset
	}

	attr := m.scr.Attribute()
	fg, bg := m.scr.Colors()

	for i := 0; i < n; i++ {
		switch v := p.raw(i, 0); v {
		case 0:
			attr &= screen.AttrProtect
			fg, bg = screen.ColorDefault, screen.ColorDefault
		case 1:
			attr |= screen.AttrBold
		case 2:
			attr |= screen.AttrDim
		case 4:
			attr |= screen.AttrUnderline
		case 5:
			attr |= screen.AttrBlink
		case 7:
			attr |= screen.AttrReverse
		case 8:
			attr |= screen.AttrInvisible
		case 21:
			attr &^= screen.AttrBold
		case 22:
			attr &^= screen.AttrBold | screen.AttrDim
		case 24:
			attr &^= screen.AttrUnderline
		case 25:
			attr &^= screen.AttrBlink
		case 27:
			attr &^= screen.AttrReverse
		case 28:
			attr &^= screen.AttrInvisible
		case 30, 31, 32, 33, 34, 35, 36, 37:
			fg = screen.Color(v - 30)
		case 38:
			fg = screen.ColorDefault
			if m.linux() {
				attr |= screen.AttrUnderline
			}
		case 39:
			fg = screen.ColorDefault
			if m.linux() {
				attr &^= screen.AttrUnderline
			}
		case 40, 41, 42, 43, 44, 45, 46, 47:
			bg = screen.Color(v - 40)
		case 49:
			bg = screen.ColorDefault
		}
	}

	m.scr.SetAttribute(attr)
	m.scr.SetColors(fg, bg)
}

func (m *vtMachine) setModes(set bool) {
	p := &m.params
	n := p.count()
	if n == 0 {
		n = 1
	}

	for i := 0; i < n; i++ {
		v := p.get(i, 0)
		if m.private {
			m.setPrivateMode(v, set)
		} else {
			switch v {
			case 4: // IRM
				m.scr.SetInsertMode(set)
			case 20: // LNM
				m.lnm = set
			}
		}
	}
}

func (m *vtMachine) setPrivateMode(mode int, set bool) {
	switch mode {
	case 1: // DECCKM
		if set {
			m.arrows = ArrowModeApplication
		} else {
			m.arrows = ArrowModeANSI
		}
	case 2: // DECANM
		if !set {
			m.vt52.reset()
			m.vt52.keypadApp = m.keypadApp
			m.vt52Active = true
		}
	case 3: // DECCOLM
		m.cols132 = set
		w, h := m.scr.Width(), m.scr.Height()
		m.scr.EraseScreen(0, 0, h-1, w-1, false)
		m.scr.SetRegion(0, h-1)
		m.scr.MoveCursor(0, 0)
	case 5: // DECSCNM
		m.scr.SetReverseVideo(set)
	case 6: // DECOM
		m.scr.SetOriginMode(set)
		m.scr.MoveCursor(0, 0)
	case 7: // DECAWM
		m.scr.SetAutoWrap(set)
	case 25: // DECTCEM
		m.scr.SetCursorVisible(set)
	case 1000:
		if m.xterm() {
			m.mouse = mouseIf(set, MouseNormal)
		}
	case 1002:
		if m.xterm() {
			m.mouse = mouseIf(set, MouseButtonEvent)
		}
	case 1003:
		if m.xterm() {
			m.mouse = mouseIf(set, MouseAnyEvent)
		}
	case 1005:
		if m.xterm() {
			m.mouseUTF8 = set
		}
	}
}

func mouseIf(set bool, proto MouseProtocol) MouseProtocol {
	if set {
		return proto
	}
	return MouseOff
}

func (m *vtMachine) deviceStatus(mode int) {
	switch mode {
	case 5:
		m.reply("\x1b[0n")
	case 6:
		row, col := m.scr.Cursor()
		if m.scr.OriginMode() {
			top, _ := m.scr.Region()
			row -= top
		}
		m.reply(fmt.Sprintf("\x1b[%d;%dR", row+1, col+1))
	}
}

// linuxSetterm handles the Linux console CSI ] private sequence.  Only
// the bell frequency and duration settings are retained.
func (m *vtMachine) linuxSetterm() {
	switch m.params.get(0, 0) {
	case 10:
		m.bellFreq = m.params.get(1, 0)
	case 11:
		m.bellDur = m.params.get(1, 0)
	}
}

func (m *vtMachine) saveCursor() {
	row, col := m.scr.Cursor()
	fg, bg := m.scr.Colors()
	m.saved = savedCursor{
		row:      row,
		col:      col,
		attr:     m.scr.Attribute(),
		fg:       fg,
		bg:       bg,
		origin:   m.scr.OriginMode(),
		g0:       m.g0,
		g1:       m.g1,
		shiftOut: m.shiftOut,
		valid:    true,
	}
}

func (m *vtMachine) restoreCursor() {
	if !m.saved.valid {
		// Restore without a prior save resets to defaults.
		m.scr.SetAttribute(0)
		m.scr.SetColors(screen.ColorDefault, screen.ColorDefault)
		m.scr.SetOriginMode(false)
		m.g0, m.g1 = charsetUS, charsetUS
		m.shiftOut = false
		m.scr.MoveCursor(0, 0)
		return
	}

	m.scr.SetAttribute(m.saved.attr)
	m.scr.SetColors(m.saved.fg, m.saved.bg)
	m.scr.SetOriginMode(m.saved.origin)
	m.g0, m.g1 = m.saved.g0, m.saved.g1
	m.shiftOut = m.saved.shiftOut

	row, col := m.saved.row, m.saved.col
	if m.saved.origin {
		top, _ := m.scr.Region()
		row -= top
	}
	m.scr.MoveCursor(row, col)
}

func (m *vtMachine) fullReset() {
	m.scr.Reset()
	m.reset()
}

// softReset restores modes, charsets, and attributes to their defaults
// without disturbing the screen contents.
func (m *vtMachine) softReset() {
	m.scr.SetInsertMode(false)
	m.scr.SetOriginMode(false)
	m.scr.SetAutoWrap(true)
	m.scr.SetCursorVisible(true)
	m.scr.SetRegion(0, m.scr.Height()-1)
	m.scr.SetAttribute(0)
	m.scr.SetColors(screen.ColorDefault, screen.ColorDefault)
	m.scr.ClearLEDs()

	m.g0, m.g1 = charsetUS, charsetUS
	m.shiftOut = false
	m.saved = savedCursor{}
	m.keypadApp = false
	m.arrows = ArrowModeANSI
	m.lnm = false
	m.mouse = MouseOff
	m.mouseUTF8 = false
	m.vt52Active = false
	m.toGround()
}

func (m *vtMachine) defaultTabStops() {
	m.tabStops = m.tabStops[:0]
	for col := 8; col < m.scr.Width(); col += 8 {
		m.tabStops = append(m.tabStops, col)
	}
}

func (m *vtMachine) setTabStop() {
	_, col := m.scr.Cursor()
	i := sort.SearchInts(m.tabStops, col)
	if i < len(m.tabStops) && m.tabStops[i] == col {
		return
	}
	m.tabStops = append(m.tabStops, 0)
	copy(m.tabStops[i+1:], m.tabStops[i:])
	m.tabStops[i] = col
}

func (m *vtMachine) clearTabStop() {
	_, col := m.scr.Cursor()
	i := sort.SearchInts(m.tabStops, col)
	if i < len(m.tabStops) && m.tabStops[i] == col {
		m.tabStops = append(m.tabStops[:i], m.tabStops[i+1:]...)
	}
}

func (m *vtMachine) nextTabStop() int {
	_, col := m.scr.Cursor()
	for _, stop := range m.tabStops {
		if stop > col {
			return stop
		}
	}
	return m.scr.Width() - 1
}

func (m *vtMachine) prevTabStop() int {
	_, col := m.scr.Cursor()
	for i := len(m.tabStops) - 1; i >= 0; i-- {
		if m.tabStops[i] < col {
			return m.tabStops[i]
		}
	}
	return 0
}
