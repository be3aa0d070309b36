package emulation

import (
	"bytes"
	"testing"

	"github.com/moodclient/retroterm/screen"
)

func TestANSIMusicCollection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"SO terminated", "\x1b[MFO3L8CDE\x0e", "FO3L8CDE"},
		{"CR terminated", "\x1b[MT120ABC\r", "T120ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scr := screen.NewScreen(80, 24, 0)
			var notes []byte
			d := NewDispatcher(scr, &bytes.Buffer{}, "", Hooks{
				Music: func(n []byte) { notes = n },
			})
			d.Switch(ANSI)
			d.FeedAll([]byte(tt.input))
			if string(notes) != tt.want {
				t.Errorf("music = %q, want %q", notes, tt.want)
			}
		})
	}
}

func TestANSIOneParameterMotions(t *testing.T) {
	d, scr, _ := newTestDispatcher(ANSI)

	// Multi-parameter cursor motions are a parse error and flush.
	d.FeedAll([]byte("\x1b[5;3B"))
	if row, _ := scr.Cursor(); row == 5 {
		t.Error("multi-parameter CUD should not move the cursor")
	}
	if got := rowText(scr, 0); got == "" {
		t.Error("invalid motion should flush its bytes to the screen")
	}
}

func TestANSIClearHomes(t *testing.T) {
	d, scr, _ := newTestDispatcher(ANSI)

	d.FeedAll([]byte("\x1b[10;10Hx\x1b[2J"))
	if row, col := scr.Cursor(); row != 0 || col != 0 {
		t.Errorf("cursor = (%d, %d) after 2J, want homed", row, col)
	}
	if got := rowText(scr, 9); got != "" {
		t.Error("2J should erase the screen")
	}
}

func TestANSISaveRestorePosition(t *testing.T) {
	d, scr, _ := newTestDispatcher(ANSI)

	d.FeedAll([]byte("\x1b[7;9H\x1b[s\x1b[1;1H\x1b[u"))
	if row, col := scr.Cursor(); row != 6 || col != 8 {
		t.Errorf("cursor = (%d, %d) after RCP, want (6, 8)", row, col)
	}
}

func TestANSIEqualsPrefix(t *testing.T) {
	d, scr, _ := newTestDispatcher(ANSI)

	// CSI = 255 h is a screen-mode set; it is consumed without output.
	d.FeedAll([]byte("\x1b[=255h"))
	if got := rowText(scr, 0); got != "" {
		t.Errorf("row 0 = %q, want '=' sequence consumed silently", got)
	}
}

func TestANSICP437Glyphs(t *testing.T) {
	d, scr, _ := newTestDispatcher(ANSI)

	d.FeedAll([]byte{0xB0, 0xB1, 0xB2, 0xDB})
	if got := rowText(scr, 0); got != "░▒▓█" {
		t.Errorf("row 0 = %q, want CP437 shade blocks", got)
	}
}

func TestANSIColorSGR(t *testing.T) {
	d, scr, _ := newTestDispatcher(ANSI)

	d.FeedAll([]byte("\x1b[1;5;35;46mZ"))
	cell := scr.Cell(0, 0)
	if cell.Attr&screen.AttrBold == 0 || cell.Attr&screen.AttrBlink == 0 {
		t.Errorf("attr = %v, want bold+blink", cell.Attr)
	}
	if cell.FG != screen.ColorMagenta || cell.BG != screen.ColorCyan {
		t.Errorf("colors = (%v, %v), want magenta on cyan", cell.FG, cell.BG)
	}
}

func TestANSICursorReport(t *testing.T) {
	d, _, sink := newTestDispatcher(ANSI)

	d.FeedAll([]byte("\x1b[3;4H\x1b[6n"))
	if got, want := sink.String(), "\x1b[3;4R"; got != want {
		t.Errorf("DSR reply = %q, want %q", got, want)
	}
}

func TestANSIWrapMode(t *testing.T) {
	d, scr, _ := newTestDispatcher(ANSI)

	d.FeedAll([]byte("\x1b[?7l"))
	d.FeedAll(bytes.Repeat([]byte{'B'}, 90))
	if row, _ := scr.Cursor(); row != 0 {
		t.Error("wrap disabled via mode 7 should pin the cursor to row 0")
	}
}
