package emulation

import (
	"fmt"

	"github.com/moodclient/retroterm/screen"
)

const debugBytesPerLine = 16

// debugMachine renders the raw inbound stream as a hex dump, sixteen
// bytes per row with an ASCII gutter.  It never interprets escape
// sequences, which makes it useful for diagnosing hostile or corrupt
// streams.
type debugMachine struct {
	scr    *screen.Screen
	line   []byte
	offset int
}

func newDebugMachine(scr *screen.Screen) *debugMachine {
	return &debugMachine{scr: scr}
}

func (m *debugMachine) reset() {
	m.line = m.line[:0]
	m.offset = 0
}

func (m *debugMachine) feed(b byte) FeedResult {
	m.line = append(m.line, b)
	if len(m.line) == debugBytesPerLine {
		m.emitLine()
	}
	return noChar()
}

// leave flushes a partially filled hex row when the dispatcher switches
// to another dialect.
func (m *debugMachine) leave() {
	if len(m.line) > 0 {
		m.emitLine()
	}
}

func (m *debugMachine) emitLine() {
	out := fmt.Sprintf("%04x  ", m.offset)
	for i := 0; i < debugBytesPerLine; i++ {
		if i < len(m.line) {
			out += fmt.Sprintf("%02x ", m.line[i])
		} else {
			out += "   "
		}
	}
	out += " "
	for _, b := range m.line {
		if b >= 0x20 && b < 0x7F {
			out += string(rune(b))
		} else {
			out += "."
		}
	}

	for _, r := range out {
		m.scr.PrintChar(r)
	}
	m.scr.CarriageReturn()
	m.scr.LineFeed()

	m.offset += len(m.line)
	m.line = m.line[:0]
}
