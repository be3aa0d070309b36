package emulation

import (
	"io"

	"github.com/charmbracelet/x/ansi"
	"github.com/moodclient/retroterm/screen"
)

// vt52Parser implements the VT52 escape language.  It serves both as the
// standalone VT52 machine and as the submode a VT100-family machine drops
// into when DECANM is reset.
type vt52Parser struct {
	scr   *screen.Screen
	sink  io.Writer
	hooks *Hooks

	state    parserState
	graphics bool
	hold     bool
	color    bool
	row      int

	keypadApp bool

	// csi collects the minimal SGR sequences some BBSes send to VT52
	// terminals.  Only recognized when color is set.
	csi   paramBuffer
	inCSI bool

	// exitANSI is set when the parser is hosted by an ANSI-mode machine;
	// ESC < hands control back to it.
	exitANSI func()
}

func newVT52Machine(scr *screen.Screen, sink io.Writer, color bool) *vt52Parser {
	p := &vt52Parser{scr: scr, sink: sink, color: color}
	p.reset()
	return p
}

func (p *vt52Parser) reset() {
	p.state = stateGround
	p.graphics = false
	p.hold = false
	p.keypadApp = false
	p.csi.reset()
	p.inCSI = false
}

func (p *vt52Parser) modes() Modes {
	return Modes{
		KeypadApplication: p.keypadApp,
		Arrows:            ArrowModeVT52,
	}
}

func (p *vt52Parser) reply(s string) {
	if p.sink != nil {
		_, _ = io.WriteString(p.sink, s)
	}
}

func (p *vt52Parser) feed(b byte) FeedResult {
	if p.inCSI {
		return p.feedCSI(b)
	}

	switch p.state {
	case stateGround:
		return p.ground(b)
	case stateEscape:
		return p.escape(b)
	case stateVt52Y1:
		p.row = int(b) - 32
		p.state = stateVt52Y2
	case stateVt52Y2:
		col := int(b) - 32
		p.clampMove(p.row, col)
		p.state = stateGround
	}
	return noChar()
}

func (p *vt52Parser) ground(b byte) FeedResult {
	switch b {
	case ansi.ESC:
		p.state = stateEscape
		return noChar()
	case ansi.BEL:
		if p.hooks != nil && p.hooks.Bell != nil {
			p.hooks.Bell()
		}
		return noChar()
	case ansi.BS:
		p.scr.CursorLeft(1)
		return noChar()
	case ansi.HT:
		_, col := p.scr.Cursor()
		next := (col/8 + 1) * 8
		p.scr.SetCursorCol(next)
		return noChar()
	case ansi.LF:
		p.scr.LineFeed()
		return noChar()
	case ansi.CR:
		p.scr.CarriageReturn()
		return noChar()
	case ansi.SO:
		p.graphics = true
		return noChar()
	case ansi.SI:
		p.graphics = false
		return noChar()
	}

	if b < 0x20 || b == 0x7F {
		return noChar()
	}

	return oneChar(mapVT52(b, p.graphics))
}

func (p *vt52Parser) escape(b byte) FeedResult {
	p.state = stateGround

	switch b {
	case 'A':
		p.scr.CursorUp(1, false)
	case 'B':
		p.scr.CursorDown(1, false)
	case 'C':
		p.scr.CursorRight(1)
	case 'D':
		p.scr.CursorLeft(1)
	case 'H':
		p.scr.MoveCursor(0, 0)
	case 'Y':
		p.state = stateVt52Y1
	case 'I':
		p.scr.ReverseLineFeed()
	case 'J':
		row, col := p.scr.Cursor()
		p.scr.EraseScreen(row, col, p.scr.Height()-1, p.scr.Width()-1, false)
	case 'K':
		_, col := p.scr.Cursor()
		p.scr.EraseLine(col, p.scr.Width()-1, false)
	case 'F':
		p.graphics = true
	case 'G':
		p.graphics = false
	case 'Z':
		p.reply("\x1b/K")
	case '=':
		p.keypadApp = true
	case '>':
		p.keypadApp = false
	case '[':
		if p.color {
			p.csi.reset()
			p.inCSI = true
		} else {
			p.hold = true
		}
	case '\\':
		p.hold = false
	case '<':
		if p.exitANSI != nil {
			p.exitANSI()
		}
	}

	return noChar()
}

// feedCSI consumes the minimal color-extension CSI body.  Anything other
// than an SGR final is discarded.
func (p *vt52Parser) feedCSI(b byte) FeedResult {
	switch {
	case b >= '0' && b <= '9':
		p.csi.digit(b)
	case b == ';':
		p.csi.separator()
	case b >= 0x40 && b <= 0x7E:
		p.inCSI = false
		if b == 'm' {
			p.applySGR()
		}
	default:
		p.inCSI = false
	}
	return noChar()
}

func (p *vt52Parser) applySGR() {
	n := p.csi.count()
	if n == 0 {
		n = 1
	}

	attr := p.scr.Attribute()
	fg, bg := p.scr.Colors()

	for i := 0; i < n; i++ {
		switch v := p.csi.raw(i, 0); {
		case v == 0:
			attr = 0
			fg, bg = screen.ColorDefault, screen.ColorDefault
		case v == 1:
			attr |= screen.AttrBold
		case v == 7:
			attr |= screen.AttrReverse
		case v >= 30 && v <= 37:
			fg = screen.Color(v - 30)
		case v >= 40 && v <= 47:
			bg = screen.Color(v - 40)
		}
	}

	p.scr.SetAttribute(attr)
	p.scr.SetColors(fg, bg)
}

func (p *vt52Parser) clampMove(row, col int) {
	if row < 0 {
		row = 0
	}
	if row >= p.scr.Height() {
		row = p.scr.Height() - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= p.scr.Width() {
		col = p.scr.Width() - 1
	}
	p.scr.MoveCursor(row, col)
}
