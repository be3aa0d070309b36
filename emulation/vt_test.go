package emulation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/moodclient/retroterm/screen"
)

func newTestDispatcher(e Emulation) (*Dispatcher, *screen.Screen, *bytes.Buffer) {
	scr := screen.NewScreen(80, 24, 100)
	sink := &bytes.Buffer{}
	d := NewDispatcher(scr, sink, "retroterm", Hooks{})
	d.Switch(e)
	return d, scr, sink
}

func rowText(scr *screen.Screen, row int) string {
	line := scr.Row(row)
	var b strings.Builder
	for _, c := range line.Cells {
		b.WriteRune(c.Rune)
	}
	return strings.TrimRight(b.String(), " ")
}

func TestCursorPositionReport(t *testing.T) {
	d, scr, sink := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[10;5H\x1b[2J\x1b[6n"))

	if row, col := scr.Cursor(); row != 9 || col != 4 {
		t.Errorf("cursor = (%d, %d), want (9, 4)", row, col)
	}
	if got, want := sink.String(), "\x1b[10;5R"; got != want {
		t.Errorf("DSR reply = %q, want %q", got, want)
	}
	for r := 0; r < scr.Height(); r++ {
		if rowText(scr, r) != "" {
			t.Errorf("row %d not blank after ED 2: %q", r, rowText(scr, r))
		}
	}
}

func TestAutowrap(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll(bytes.Repeat([]byte{'A'}, 81))

	if got := rowText(scr, 0); got != strings.Repeat("A", 80) {
		t.Errorf("row 0 = %q", got)
	}
	if got := rowText(scr, 1); got != "A" {
		t.Errorf("row 1 = %q, want single A", got)
	}
	if row, col := scr.Cursor(); row != 1 || col != 1 {
		t.Errorf("cursor = (%d, %d), want (1, 1)", row, col)
	}
}

func TestAutowrapDisabled(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[?7l"))
	d.FeedAll(bytes.Repeat([]byte{'A'}, 85))

	if row, col := scr.Cursor(); row != 0 || col != 79 {
		t.Errorf("cursor = (%d, %d), want pinned at (0, 79)", row, col)
	}
	if got := rowText(scr, 1); got != "" {
		t.Errorf("row 1 = %q, want empty with autowrap off", got)
	}
}

func TestSGR(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantAttr screen.Attribute
		wantFG   screen.Color
		wantBG   screen.Color
	}{
		{"bold yellow on blue", "\x1b[1;33;44mX", screen.AttrBold, screen.ColorYellow, screen.ColorBlue},
		{"reset clears prior", "\x1b[1;31m\x1b[0mX", 0, screen.ColorDefault, screen.ColorDefault},
		{"empty param resets", "\x1b[7m\x1b[mX", 0, screen.ColorDefault, screen.ColorDefault},
		{"underline blink", "\x1b[4;5mX", screen.AttrUnderline | screen.AttrBlink, screen.ColorDefault, screen.ColorDefault},
		{"clear bold keeps color", "\x1b[1;32m\x1b[22mX", 0, screen.ColorGreen, screen.ColorDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, scr, _ := newTestDispatcher(VT100)
			d.FeedAll([]byte(tt.input))

			cell := scr.Cell(0, 0)
			if cell.Rune != 'X' {
				t.Fatalf("cell rune = %q, want X", cell.Rune)
			}
			if cell.Attr != tt.wantAttr {
				t.Errorf("attr = %v, want %v", cell.Attr, tt.wantAttr)
			}
			if cell.FG != tt.wantFG || cell.BG != tt.wantBG {
				t.Errorf("colors = (%v, %v), want (%v, %v)", cell.FG, cell.BG, tt.wantFG, tt.wantBG)
			}
		})
	}
}

func TestLinuxUnderlineToggle(t *testing.T) {
	d, scr, _ := newTestDispatcher(Linux)

	d.FeedAll([]byte("\x1b[38mX"))
	if cell := scr.Cell(0, 0); cell.Attr&screen.AttrUnderline == 0 {
		t.Error("SGR 38 should set underline on the Linux console")
	}

	d.FeedAll([]byte("\x1b[39mY"))
	if cell := scr.Cell(0, 1); cell.Attr&screen.AttrUnderline != 0 {
		t.Error("SGR 39 should clear underline on the Linux console")
	}
}

func TestSaveRestoreCursor(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[5;10H\x1b[1;31m\x1b7"))
	d.FeedAll([]byte("\x1b[0m\x1b[20;1H\x1b8"))

	if row, col := scr.Cursor(); row != 4 || col != 9 {
		t.Errorf("cursor = (%d, %d), want (4, 9) after DECRC", row, col)
	}
	if attr := scr.Attribute(); attr&screen.AttrBold == 0 {
		t.Error("DECRC should restore the bold attribute")
	}
	if fg, _ := scr.Colors(); fg != screen.ColorRed {
		t.Errorf("fg = %v, want red after DECRC", fg)
	}
}

func TestScrollRegion(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	// Rows 0..5 labeled, region rows 2..4, then scroll inside it.
	for i := 0; i < 6; i++ {
		d.FeedAll([]byte{byte('0' + i)})
		d.FeedAll([]byte("\r\n"))
	}
	d.FeedAll([]byte("\x1b[3;5r"))
	d.FeedAll([]byte("\x1b[5;1H\n"))

	if got := rowText(scr, 1); got != "1" {
		t.Errorf("row above region = %q, want untouched", got)
	}
	if got := rowText(scr, 2); got != "3" {
		t.Errorf("region top = %q, want scrolled-up 3", got)
	}
	if got := rowText(scr, 4); got != "" {
		t.Errorf("region bottom = %q, want blank after scroll", got)
	}
	if got := rowText(scr, 5); got != "5" {
		t.Errorf("row below region = %q, want untouched", got)
	}
}

func TestOriginMode(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[5;20r\x1b[?6h"))
	if row, col := scr.Cursor(); row != 4 || col != 0 {
		t.Errorf("cursor = (%d, %d), want region home (4, 0)", row, col)
	}

	d.FeedAll([]byte("\x1b[1;1H"))
	if row, _ := scr.Cursor(); row != 4 {
		t.Errorf("CUP 1;1 under DECOM moved to row %d, want 4", row)
	}

	d.FeedAll([]byte("\x1b[99;1H"))
	if row, _ := scr.Cursor(); row != 19 {
		t.Errorf("CUP past region bottom moved to row %d, want clamped 19", row)
	}
}

func TestOriginModeCursorReport(t *testing.T) {
	d, _, sink := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[5;20r\x1b[?6h\x1b[3;7H"))
	sink.Reset()
	d.FeedAll([]byte("\x1b[6n"))

	if got, want := sink.String(), "\x1b[3;7R"; got != want {
		t.Errorf("DSR reply = %q, want region-relative %q", got, want)
	}
}

func TestProtectedErase(t *testing.T) {
	d, scr, _ := newTestDispatcher(XTerm)

	d.FeedAll([]byte("\x1b[1\"qAB\x1b[0\"qCD"))
	d.FeedAll([]byte("\x1b[1;1H\x1b[?2J"))

	if got := rowText(scr, 0); got != "AB" {
		t.Errorf("row 0 = %q, want protected AB to survive DECSED", got)
	}
}

func TestInvalidSequenceFlush(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	// ESC 9 is not a recognized escape and flushes verbatim, with the
	// ESC byte shown as its CP437 glyph.
	d.FeedAll([]byte("\x1b9"))

	if got := rowText(scr, 0); got != "←9" {
		t.Errorf("flushed text = %q, want left arrow + 9", got)
	}
}

func TestTabStops(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\t\t"))
	if _, col := scr.Cursor(); col != 16 {
		t.Errorf("col = %d after two tabs, want 16", col)
	}

	// Clear all stops, set one at column 4.
	d.FeedAll([]byte("\x1b[3g\x1b[1;5H\x1bH\x1b[1;1H\t"))
	if _, col := scr.Cursor(); col != 4 {
		t.Errorf("col = %d, want custom stop at 4", col)
	}

	// With no stop ahead, HT goes to the right margin.
	d.FeedAll([]byte("\t"))
	if _, col := scr.Cursor(); col != 79 {
		t.Errorf("col = %d, want 79", col)
	}
}

func TestBackTab(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[1;20H\x1b[Z"))
	if _, col := scr.Cursor(); col != 16 {
		t.Errorf("col = %d after CBT, want 16", col)
	}
	d.FeedAll([]byte("\x1b[3Z"))
	if _, col := scr.Cursor(); col != 0 {
		t.Errorf("col = %d after CBT past first stop, want 0", col)
	}
}

func TestRepeatCharacter(t *testing.T) {
	d, scr, _ := newTestDispatcher(XTerm)

	d.FeedAll([]byte("Q\x1b[4b"))
	if got := rowText(scr, 0); got != "QQQQQ" {
		t.Errorf("row 0 = %q, want QQQQQ", got)
	}
}

func TestDeviceAttributes(t *testing.T) {
	d, _, sink := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[c\x1bZ"))
	if got, want := sink.String(), "\x1b[?6c\x1b[?6c"; got != want {
		t.Errorf("DA replies = %q, want %q", got, want)
	}
}

func TestDeviceStatusOK(t *testing.T) {
	d, _, sink := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[5n"))
	if got, want := sink.String(), "\x1b[0n"; got != want {
		t.Errorf("DSR 5 reply = %q, want %q", got, want)
	}
}

func TestAnswerback(t *testing.T) {
	d, _, sink := newTestDispatcher(VT100)

	d.Feed(0x05)
	if got := sink.String(); got != "retroterm" {
		t.Errorf("ENQ reply = %q, want answerback string", got)
	}
}

func TestRequestTerminalParameters(t *testing.T) {
	d, _, sink := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[1x"))
	if got, want := sink.String(), "\x1b[3;1;1;120;120;1;0x"; got != want {
		t.Errorf("DECREQTPARM reply = %q, want %q", got, want)
	}
}

func TestInsertDeleteLine(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("one\r\ntwo\r\nthree"))
	d.FeedAll([]byte("\x1b[2;1H\x1b[L"))
	if got := rowText(scr, 1); got != "" {
		t.Errorf("row 1 = %q after IL, want blank", got)
	}
	if got := rowText(scr, 2); got != "two" {
		t.Errorf("row 2 = %q after IL, want two", got)
	}

	d.FeedAll([]byte("\x1b[M"))
	if got := rowText(scr, 1); got != "two" {
		t.Errorf("row 1 = %q after DL, want two", got)
	}
}

func TestInsertDeleteChars(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("ABCDEF\x1b[1;1H\x1b[2P"))
	if got := rowText(scr, 0); got != "CDEF" {
		t.Errorf("row 0 = %q after DCH 2, want CDEF", got)
	}

	d.FeedAll([]byte("\x1b[3@"))
	if got := rowText(scr, 0); got != "   CDEF" {
		t.Errorf("row 0 = %q after ICH 3, want shifted CDEF", got)
	}
}

func TestEraseCharacter(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("ABCDEF\x1b[1;2H\x1b[3X"))
	if got := rowText(scr, 0); got != "A   EF" {
		t.Errorf("row 0 = %q after ECH 3, want A   EF", got)
	}
}

func TestDECALN(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b#8"))
	if got := rowText(scr, 0); got != strings.Repeat("E", 80) {
		t.Errorf("row 0 = %q, want full row of E", got)
	}
	if got := rowText(scr, 23); got != strings.Repeat("E", 80) {
		t.Errorf("row 23 = %q, want full row of E", got)
	}
}

func TestFullReset(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[5;10r\x1b[?6h\x1b[1;33mhello\x1bc"))

	if top, bot := scr.Region(); top != 0 || bot != 23 {
		t.Errorf("region = (%d, %d) after RIS, want full screen", top, bot)
	}
	if scr.OriginMode() {
		t.Error("origin mode should be reset by RIS")
	}
	if got := rowText(scr, 4); got != "" {
		t.Error("RIS should erase the screen")
	}
	if attr := scr.Attribute(); attr != 0 {
		t.Errorf("attr = %v after RIS, want 0", attr)
	}
}

func TestSoftReset(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("hello\x1b[5;10r\x1b[?6h\x1b[!p"))

	if top, bot := scr.Region(); top != 0 || bot != 23 {
		t.Errorf("region = (%d, %d) after DECSTR, want full screen", top, bot)
	}
	if got := rowText(scr, 0); got != "hello" {
		t.Error("DECSTR should not disturb screen contents")
	}
}

func TestCharsetDrawing(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	// Designate G0 as DEC special graphics; 'q' becomes a horizontal bar.
	d.FeedAll([]byte("\x1b(0qqq\x1b(B"))
	if got := rowText(scr, 0); got != "───" {
		t.Errorf("row 0 = %q, want box-drawing bars", got)
	}

	d.FeedAll([]byte("q"))
	if cell := scr.Cell(0, 3); cell.Rune != 'q' {
		t.Errorf("cell = %q after returning to US, want q", cell.Rune)
	}
}

func TestShiftInOut(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b)0\x0eq\x0fq"))
	if cell := scr.Cell(0, 0); cell.Rune != '─' {
		t.Errorf("shifted-out cell = %q, want bar", cell.Rune)
	}
	if cell := scr.Cell(0, 1); cell.Rune != 'q' {
		t.Errorf("shifted-in cell = %q, want q", cell.Rune)
	}
}

func TestCP437HighBytes(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte{0xC9, 0xCD, 0xBB})
	if got := rowText(scr, 0); got != "╔═╗" {
		t.Errorf("row 0 = %q, want CP437 box corners", got)
	}
}

func TestModesSnapshot(t *testing.T) {
	d, _, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[?1h\x1b=\x1b[20h"))
	m := d.Modes()
	if m.Arrows != ArrowModeApplication {
		t.Error("DECCKM set should report application arrows")
	}
	if !m.KeypadApplication {
		t.Error("ESC = should report application keypad")
	}
	if !m.NewLine {
		t.Error("LNM set should report newline mode")
	}

	d.FeedAll([]byte("\x1b[?1l\x1b>\x1b[20l"))
	m = d.Modes()
	if m.Arrows != ArrowModeANSI || m.KeypadApplication || m.NewLine {
		t.Errorf("modes = %+v, want defaults", m)
	}
}

func TestReverseScreenMode(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[31mR"))
	d.FeedAll([]byte("\x1b[?5h"))

	cell := scr.Cell(0, 0)
	if cell.FG != screen.ColorDefault || cell.BG != screen.ColorRed {
		t.Errorf("cell colors = (%v, %v), want swapped by DECSCNM", cell.FG, cell.BG)
	}
}

func TestOscTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"BEL terminated", "\x1b]0;hello\x07", "hello"},
		{"ST terminated", "\x1b]2;world\x1b\\", "world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scr := screen.NewScreen(80, 24, 0)
			var title string
			d := NewDispatcher(scr, &bytes.Buffer{}, "", Hooks{
				WindowTitle: func(s string) { title = s },
			})
			d.Switch(XTerm)
			d.FeedAll([]byte(tt.input))
			if title != tt.want {
				t.Errorf("title = %q, want %q", title, tt.want)
			}
		})
	}
}

func TestControlsExecuteMidSequence(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	// The CR inside the CSI body executes immediately; the motion still
	// dispatches afterwards.
	d.FeedAll([]byte("abc\x1b[2\rB"))
	if row, col := scr.Cursor(); row != 2 || col != 0 {
		t.Errorf("cursor = (%d, %d), want (2, 0)", row, col)
	}
}

func TestCancelAbortsSequence(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[2\x18X"))
	if got := rowText(scr, 0); got != "X" {
		t.Errorf("row 0 = %q, want aborted sequence to vanish", got)
	}
}
