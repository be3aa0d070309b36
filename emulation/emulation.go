// Package emulation implements the terminal emulation dispatcher and the
// per-dialect escape-sequence state machines.  Inbound bytes are fed one
// at a time; the active machine mutates a screen.Screen, returns glyphs to
// draw, and writes any response sequences (DA, DSR, answerback, ...) to a
// caller-supplied sink.
package emulation

import (
	"io"

	"github.com/moodclient/retroterm/screen"
)

// Emulation identifies one of the supported terminal dialects.
type Emulation int

const (
	// TTY is a dumb teletype: controls only, no escape processing.
	TTY Emulation = iota
	// Debug renders every inbound byte as a hex dump.
	Debug
	// ANSI is the DOS ANSI.SYS dialect, including ANSI music.
	ANSI
	// VT52 is the native DEC VT52 dialect.
	VT52
	// VT100 is the VT100/102/220-compatible dialect.
	VT100
	// Linux is the Linux console dialect.
	Linux
	// XTerm is the xterm dialect.
	XTerm
	// LinuxUTF8 is the Linux console dialect with UTF-8 decoding.
	LinuxUTF8
	// XTermUTF8 is the xterm dialect with UTF-8 decoding.
	XTermUTF8
)

var emulationNames = map[Emulation]string{
	TTY:       "TTY",
	Debug:     "DEBUG",
	ANSI:      "ANSI",
	VT52:      "VT52",
	VT100:     "VT100",
	Linux:     "LINUX",
	XTerm:     "XTERM",
	LinuxUTF8: "LINUX UTF-8",
	XTermUTF8: "XTERM UTF-8",
}

func (e Emulation) String() string {
	name, ok := emulationNames[e]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

// UTF8 reports whether this dialect decodes inbound bytes as UTF-8.
func (e Emulation) UTF8() bool {
	return e == LinuxUTF8 || e == XTermUTF8
}

// FeedKind discriminates the outcomes of feeding one byte to a machine.
type FeedKind int

const (
	// NoCharYet means the byte was consumed with nothing to render.
	NoCharYet FeedKind = iota
	// OneChar means a single glyph should be rendered at the cursor.
	OneChar
	// ManyChars means a run of glyphs should be rendered; this happens
	// when a partial escape sequence proves invalid and is flushed
	// verbatim through the codepage mapper.
	ManyChars
)

// FeedResult is the outcome of feeding one byte to the dispatcher.
type FeedResult struct {
	Kind   FeedKind
	Glyphs []rune
}

func noChar() FeedResult            { return FeedResult{Kind: NoCharYet} }
func oneChar(r rune) FeedResult     { return FeedResult{Kind: OneChar, Glyphs: []rune{r}} }
func manyChars(g []rune) FeedResult { return FeedResult{Kind: ManyChars, Glyphs: g} }

// ArrowMode selects the byte sequences produced by the arrow keys.
type ArrowMode int

const (
	// ArrowModeANSI produces CSI-prefixed arrow sequences.
	ArrowModeANSI ArrowMode = iota
	// ArrowModeApplication produces SS3-prefixed sequences (DECCKM set).
	ArrowModeApplication
	// ArrowModeVT52 produces bare ESC-letter sequences.
	ArrowModeVT52
)

// Hooks carries optional callbacks for side effects the emulators cannot
// express as screen mutations.
type Hooks struct {
	// Bell is invoked for BEL.
	Bell func()
	// WindowTitle is invoked when an xterm OSC title sequence completes.
	WindowTitle func(title string)
	// Music is invoked with the raw bytes of a completed ANSI music
	// sequence.  Playback is the caller's concern.
	Music func(notes []byte)
}

type machine interface {
	feed(b byte) FeedResult
	reset()
}

// leaving is implemented by machines that need to flush state when the
// dispatcher switches away from them.
type leaving interface {
	leave()
}

// Modes is a snapshot of the emulator flags the keystroke encoder needs.
type Modes struct {
	KeypadApplication bool
	Arrows            ArrowMode
	NewLine           bool
}

type modeSource interface {
	modes() Modes
}

// Dispatcher selects the active emulation, feeds bytes through it, and
// forwards resulting glyphs to the screen.
type Dispatcher struct {
	scr   *screen.Screen
	sink  io.Writer
	hooks Hooks

	current  Emulation
	machines map[Emulation]machine
}

// NewDispatcher creates a dispatcher drawing on scr and writing emulator
// responses to sink.  The answerback string is sent in response to ENQ.
func NewDispatcher(scr *screen.Screen, sink io.Writer, answerback string, hooks Hooks) *Dispatcher {
	d := &Dispatcher{
		scr:     scr,
		sink:    sink,
		hooks:   hooks,
		current: VT100,
	}

	d.machines = map[Emulation]machine{
		TTY:       newTTYMachine(scr, &d.hooks),
		Debug:     newDebugMachine(scr),
		ANSI:      newANSIMachine(scr, sink, &d.hooks),
		VT52:      newVT52Machine(scr, sink, false),
		VT100:     newVTMachine(scr, sink, VT100, answerback, &d.hooks),
		Linux:     newVTMachine(scr, sink, Linux, answerback, &d.hooks),
		XTerm:     newVTMachine(scr, sink, XTerm, answerback, &d.hooks),
		LinuxUTF8: newVTMachine(scr, sink, LinuxUTF8, answerback, &d.hooks),
		XTermUTF8: newVTMachine(scr, sink, XTermUTF8, answerback, &d.hooks),
	}

	return d
}

// Emulation returns the active dialect.
func (d *Dispatcher) Emulation() Emulation { return d.current }

// Screen returns the screen the dispatcher draws on.
func (d *Dispatcher) Screen() *screen.Screen { return d.scr }

// Switch changes the active dialect.  The machine being left flushes any
// pending bytes; the target machine is reset.
func (d *Dispatcher) Switch(e Emulation) {
	if e == d.current {
		return
	}

	if l, ok := d.machines[d.current].(leaving); ok {
		l.leave()
	}

	d.current = e
	if m, ok := d.machines[e]; ok {
		m.reset()
	}
}

// Modes returns the keystroke-encoder-relevant flags of the active
// machine.  Machines without mode state report the zero value.
func (d *Dispatcher) Modes() Modes {
	if src, ok := d.machines[d.current].(modeSource); ok {
		return src.modes()
	}

	m := Modes{}
	if d.current == VT52 {
		m.Arrows = ArrowModeVT52
	}
	return m
}

// Feed consumes one inbound byte, applying its effects to the screen and
// returning the glyphs that were drawn.
func (d *Dispatcher) Feed(b byte) FeedResult {
	m, ok := d.machines[d.current]
	if !ok {
		return noChar()
	}

	result := m.feed(b)
	for _, g := range result.Glyphs {
		d.scr.PrintChar(g)
	}

	return result
}

// FeedAll consumes a full buffer of inbound bytes.
func (d *Dispatcher) FeedAll(data []byte) {
	for _, b := range data {
		d.Feed(b)
	}
}
