package emulation

import (
	"io"

	"github.com/charmbracelet/x/ansi"
	"github.com/moodclient/retroterm/screen"
)

// MouseProtocol identifies the xterm mouse-reporting mode requested by the
// remote.  Tracking the mode is the emulator's job; generating reports is
// the caller's.
type MouseProtocol int

const (
	MouseOff MouseProtocol = iota
	MouseNormal
	MouseButtonEvent
	MouseAnyEvent
)

type savedCursor struct {
	row, col int
	attr     screen.Attribute
	fg, bg   screen.Color
	origin   bool
	g0, g1   charsetID
	shiftOut bool
	valid    bool
}

// vtMachine is the shared state machine for the VT100/102/220, Linux
// console, and xterm dialects, including their UTF-8 variants.
type vtMachine struct {
	scr        *screen.Screen
	sink       io.Writer
	hooks      *Hooks
	dialect    Emulation
	answerback string

	state         parserState
	accum         []byte
	params        paramBuffer
	private       bool
	equalsPrivate bool
	intermediates []byte
	oscBuf        []byte
	strEsc        bool

	g0, g1   charsetID
	shiftOut bool
	saved    savedCursor
	tabStops []int

	utf8 utf8Decoder

	keypadApp bool
	arrows    ArrowMode
	cols132   bool
	lnm       bool
	mouse     MouseProtocol
	mouseUTF8 bool

	vt52       vt52Parser
	vt52Active bool

	lastGlyph rune

	bellFreq, bellDur int
}

func newVTMachine(scr *screen.Screen, sink io.Writer, dialect Emulation, answerback string, hooks *Hooks) *vtMachine {
	m := &vtMachine{
		scr:        scr,
		sink:       sink,
		hooks:      hooks,
		dialect:    dialect,
		answerback: answerback,
	}
	m.vt52 = vt52Parser{scr: scr, sink: sink, hooks: hooks}
	m.vt52.exitANSI = func() { m.vt52Active = false }
	m.reset()
	return m
}

func (m *vtMachine) reset() {
	m.state = stateGround
	m.accum = m.accum[:0]
	m.params.reset()
	m.private = false
	m.equalsPrivate = false
	m.intermediates = m.intermediates[:0]
	m.oscBuf = m.oscBuf[:0]
	m.strEsc = false

	m.g0, m.g1 = charsetUS, charsetUS
	m.shiftOut = false
	m.saved = savedCursor{}
	m.defaultTabStops()

	m.utf8.reset()

	m.keypadApp = false
	m.arrows = ArrowModeANSI
	m.cols132 = false
	m.lnm = false
	m.mouse = MouseOff
	m.mouseUTF8 = false

	m.vt52.reset()
	m.vt52Active = false

	m.lastGlyph = ' '
}

func (m *vtMachine) modes() Modes {
	arrows := m.arrows
	if m.vt52Active {
		arrows = ArrowModeVT52
	}
	return Modes{
		KeypadApplication: m.keypadApp,
		Arrows:            arrows,
		NewLine:           m.lnm,
	}
}

func (m *vtMachine) linux() bool {
	return m.dialect == Linux || m.dialect == LinuxUTF8
}

func (m *vtMachine) xterm() bool {
	return m.dialect == XTerm || m.dialect == XTermUTF8
}

func (m *vtMachine) reply(s string) {
	if m.sink != nil {
		_, _ = io.WriteString(m.sink, s)
	}
}

func (m *vtMachine) activeCharset() charsetID {
	if m.shiftOut {
		return m.g1
	}
	return m.g0
}

func (m *vtMachine) feed(b byte) FeedResult {
	if m.dialect.UTF8() {
		r, ok := m.utf8.feed(b)
		if !ok {
			return noChar()
		}
		if r >= 0x80 {
			return m.consumeWide(r)
		}
		b = byte(r)
	}

	return m.consume(b)
}

// consumeWide handles a decoded multi-byte code point.  The decoded rune
// overrides the glyph-mapping path entirely.
func (m *vtMachine) consumeWide(r rune) FeedResult {
	switch m.state {
	case stateGround:
		m.lastGlyph = r
		return oneChar(r)
	case stateOscString:
		m.oscBuf = append(m.oscBuf, []byte(string(r))...)
	}
	return noChar()
}

func (m *vtMachine) consume(b byte) FeedResult {
	if m.vt52Active {
		return m.vt52.feed(b)
	}

	// String-consuming states swallow almost everything until their
	// terminator.
	switch m.state {
	case stateOscString:
		return m.consumeOsc(b)
	case stateDcsPassthrough, stateDcsIgnore, stateSosPmApcString:
		return m.consumeString(b)
	}

	switch b {
	case ansi.CAN, ansi.SUB:
		m.toGround()
		return noChar()
	case ansi.ESC:
		m.restartSequence()
		return noChar()
	}

	if b < 0x20 {
		// Controls execute immediately regardless of scan state.
		m.control(b)
		m.accumulate(b)
		return noChar()
	}

	m.accumulate(b)

	switch m.state {
	case stateGround:
		return m.ground(b)
	case stateEscape:
		return m.escape(b)
	case stateEscapeIntermediate:
		return m.escapeIntermediate(b)
	case stateCsiEntry:
		return m.csiEntry(b)
	case stateCsiParam:
		return m.csiParam(b)
	case stateCsiIntermediate:
		return m.csiIntermediate(b)
	case stateCsiIgnore:
		if b >= 0x40 && b <= 0x7E {
			m.toGround()
		}
		return noChar()
	case stateDcsEntry, stateDcsParam, stateDcsIntermediate:
		return m.dcs(b)
	}

	return noChar()
}

func (m *vtMachine) accumulate(b byte) {
	if m.state != stateGround && len(m.accum) < 128 {
		m.accum = append(m.accum, b)
	}
}

func (m *vtMachine) toGround() {
	m.state = stateGround
	m.accum = m.accum[:0]
	m.strEsc = false
}

func (m *vtMachine) restartSequence() {
	m.state = stateEscape
	m.accum = append(m.accum[:0], ansi.ESC)
	m.params.reset()
	m.private = false
	m.equalsPrivate = false
	m.intermediates = m.intermediates[:0]
	m.oscBuf = m.oscBuf[:0]
	m.strEsc = false
}

// leave flushes any partially scanned sequence to the screen when the
// dispatcher switches away.
func (m *vtMachine) leave() {
	if m.state == stateGround {
		return
	}
	for _, g := range mapFlush(m.accum, m.activeCharset()) {
		m.scr.PrintChar(g)
	}
	m.toGround()
}

// flush emits the accumulated escape bytes as glyphs through the codepage
// mapper and returns to ground.
func (m *vtMachine) flush() FeedResult {
	glyphs := mapFlush(m.accum, m.activeCharset())
	m.toGround()
	if len(glyphs) > 0 {
		m.lastGlyph = glyphs[len(glyphs)-1]
	}
	return manyChars(glyphs)
}

func (m *vtMachine) control(b byte) {
	switch b {
	case ansi.NUL:
		// Conditional display character, not shown.
	case ansi.ENQ:
		m.reply(m.answerback)
	case ansi.BEL:
		if m.hooks != nil && m.hooks.Bell != nil {
			m.hooks.Bell()
		}
	case ansi.BS:
		m.scr.CursorLeft(1)
	case ansi.HT:
		m.scr.SetCursorCol(m.nextTabStop())
	case ansi.LF, ansi.VT, ansi.FF:
		if m.lnm {
			m.scr.CarriageReturn()
		}
		m.scr.LineFeed()
	case ansi.CR:
		m.scr.CarriageReturn()
	case ansi.SO:
		m.shiftOut = true
	case ansi.SI:
		m.shiftOut = false
	}
}

func (m *vtMachine) ground(b byte) FeedResult {
	if b == 0x7F {
		return noChar()
	}

	r := mapByte(b, m.activeCharset())
	m.lastGlyph = r
	return oneChar(r)
}

func (m *vtMachine) escape(b byte) FeedResult {
	switch b {
	case '[':
		m.state = stateCsiEntry
		m.params.reset()
		m.private = false
		m.equalsPrivate = false
		m.intermediates = m.intermediates[:0]
	case ']':
		m.state = stateOscString
		m.oscBuf = m.oscBuf[:0]
	case 'P':
		m.state = stateDcsEntry
		m.params.reset()
	case 'X', '^', '_':
		m.state = stateSosPmApcString
	case '7':
		m.saveCursor()
		m.toGround()
	case '8':
		m.restoreCursor()
		m.toGround()
	case '=':
		m.keypadApp = true
		m.toGround()
	case '>':
		m.keypadApp = false
		m.toGround()
	case 'D': // IND
		m.scr.LineFeed()
		m.toGround()
	case 'E': // NEL
		m.scr.CarriageReturn()
		m.scr.LineFeed()
		m.toGround()
	case 'M': // RI
		m.scr.ReverseLineFeed()
		m.toGround()
	case 'H': // HTS
		m.setTabStop()
		m.toGround()
	case 'Z': // DECID
		m.reply(deviceAttributes)
		m.toGround()
	case 'c': // RIS
		m.fullReset()
	case '#', '(', ')', '%', ' ':
		m.state = stateEscapeIntermediate
		m.intermediates = append(m.intermediates[:0], b)
	case '<':
		// Exit VT52 mode; already in ANSI mode, so nothing to do.
		m.toGround()
	case '\\':
		// Stray ST.
		m.toGround()
	default:
		return m.flush()
	}
	return noChar()
}

func (m *vtMachine) escapeIntermediate(b byte) FeedResult {
	defer m.toGround()

	switch m.intermediates[0] {
	case '#':
		switch b {
		case '8':
			m.scr.Fill('E')
			m.scr.MoveCursor(0, 0)
		case '3':
			m.scr.SetDoubleHeight(screen.DoubleHeightTop)
		case '4':
			m.scr.SetDoubleHeight(screen.DoubleHeightBottom)
		case '5':
			m.scr.SetDoubleWidth(false)
		case '6':
			m.scr.SetDoubleWidth(true)
		default:
			return m.flush()
		}
	case '(':
		cs, ok := designate(b)
		if !ok {
			return m.flush()
		}
		m.g0 = cs
	case ')':
		cs, ok := designate(b)
		if !ok {
			return m.flush()
		}
		m.g1 = cs
	case '%', ' ':
		// Charset announcers and 7/8-bit control selection, ignored.
	default:
		return m.flush()
	}

	return noChar()
}

func (m *vtMachine) csiEntry(b byte) FeedResult {
	switch {
	case b == '?':
		m.private = true
		m.state = stateCsiParam
	case b == '=':
		m.equalsPrivate = true
		m.state = stateCsiParam
	case b == '<' || b == '>':
		// Collected but currently unused; the sequence is consumed.
		m.state = stateCsiIgnore
	case b >= '0' && b <= '9':
		m.params.digit(b)
		m.state = stateCsiParam
	case b == ';':
		m.params.separator()
		m.state = stateCsiParam
	case b >= 0x20 && b <= 0x2F:
		m.intermediates = append(m.intermediates, b)
		m.state = stateCsiIntermediate
	case b >= 0x40 && b <= 0x7E:
		return m.csiDispatch(b)
	default:
		return m.flush()
	}
	return noChar()
}

func (m *vtMachine) csiParam(b byte) FeedResult {
	switch {
	case b >= '0' && b <= '9':
		m.params.digit(b)
		if m.params.overflow {
			return m.flush()
		}
	case b == ';':
		m.params.separator()
		if m.params.overflow {
			return m.flush()
		}
	case b >= 0x20 && b <= 0x2F:
		m.intermediates = append(m.intermediates, b)
		m.state = stateCsiIntermediate
	case b >= 0x40 && b <= 0x7E:
		return m.csiDispatch(b)
	default:
		m.state = stateCsiIgnore
	}
	return noChar()
}

func (m *vtMachine) csiIntermediate(b byte) FeedResult {
	switch {
	case b >= 0x20 && b <= 0x2F:
		m.intermediates = append(m.intermediates, b)
	case b >= 0x40 && b <= 0x7E:
		return m.csiDispatch(b)
	default:
		m.state = stateCsiIgnore
	}
	return noChar()
}

func (m *vtMachine) dcs(b byte) FeedResult {
	switch {
	case b >= '0' && b <= '9':
		m.params.digit(b)
		m.state = stateDcsParam
	case b == ';':
		m.params.separator()
		m.state = stateDcsParam
	case b >= 0x20 && b <= 0x2F:
		m.state = stateDcsIntermediate
	case b >= 0x40 && b <= 0x7E:
		m.state = stateDcsPassthrough
	default:
		m.state = stateDcsIgnore
	}
	return noChar()
}

func (m *vtMachine) consumeString(b byte) FeedResult {
	if m.strEsc {
		m.strEsc = false
		if b == '\\' { // ST
			m.toGround()
			return noChar()
		}
		// ESC restarts a new sequence.
		m.restartSequence()
		return m.consume(b)
	}

	if b == ansi.ESC {
		m.strEsc = true
	}
	return noChar()
}

func (m *vtMachine) consumeOsc(b byte) FeedResult {
	if m.strEsc {
		m.strEsc = false
		if b == '\\' {
			m.oscDispatch()
			m.toGround()
			return noChar()
		}
		m.restartSequence()
		return m.consume(b)
	}

	switch b {
	case ansi.BEL:
		m.oscDispatch()
		m.toGround()
	case ansi.ESC:
		m.strEsc = true
	case ansi.CAN, ansi.SUB:
		m.toGround()
	default:
		if len(m.oscBuf) < 1024 {
			m.oscBuf = append(m.oscBuf, b)
		}
	}
	return noChar()
}

// oscDispatch handles a completed OSC string.  Only the xterm window
// title commands (0, 1, 2) are acted on.
func (m *vtMachine) oscDispatch() {
	if !m.xterm() || m.hooks == nil || m.hooks.WindowTitle == nil {
		return
	}

	buf := string(m.oscBuf)
	for _, prefix := range []string{"0;", "1;", "2;"} {
		if len(buf) >= len(prefix) && buf[:len(prefix)] == prefix {
			m.hooks.WindowTitle(buf[len(prefix):])
			return
		}
	}
}
