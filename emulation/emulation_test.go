package emulation

import (
	"strings"
	"testing"
)

func TestTTYIgnoresEscapes(t *testing.T) {
	d, scr, _ := newTestDispatcher(TTY)

	d.FeedAll([]byte("\x1b[31mplain\r\ntext"))

	// The TTY dialect prints escape bytes as glyphs.
	if got := rowText(scr, 0); !strings.HasSuffix(got, "plain") {
		t.Errorf("row 0 = %q, want escape bytes printed then plain", got)
	}
	if got := rowText(scr, 1); got != "text" {
		t.Errorf("row 1 = %q, want text", got)
	}
}

func TestTTYControls(t *testing.T) {
	d, scr, _ := newTestDispatcher(TTY)

	d.FeedAll([]byte("ab\bc\tx"))

	if got := rowText(scr, 0); got != "ac      x" {
		t.Errorf("row 0 = %q, want backspace overwrite and tab", got)
	}
}

func TestDebugHexDump(t *testing.T) {
	d, scr, _ := newTestDispatcher(Debug)

	d.FeedAll([]byte("0123456789abcdef"))

	got := rowText(scr, 0)
	if !strings.HasPrefix(got, "0000  30 31 32 33") {
		t.Errorf("row 0 = %q, want hex dump prefix", got)
	}
	if !strings.HasSuffix(got, "0123456789abcdef") {
		t.Errorf("row 0 = %q, want ASCII gutter", got)
	}
}

func TestDebugFlushesOnSwitch(t *testing.T) {
	d, scr, _ := newTestDispatcher(Debug)

	d.FeedAll([]byte("AB"))
	if got := rowText(scr, 0); got != "" {
		t.Fatalf("row 0 = %q, want nothing before the row fills", got)
	}

	d.Switch(VT100)
	got := rowText(scr, 0)
	if !strings.HasPrefix(got, "0000  41 42") {
		t.Errorf("row 0 = %q, want partial hex row flushed on switch", got)
	}
}

func TestSwitchFlushesPendingSequence(t *testing.T) {
	d, scr, _ := newTestDispatcher(VT100)

	// A half-scanned CSI is flushed verbatim when the dialect changes.
	d.FeedAll([]byte("\x1b[12;3"))
	d.Switch(TTY)

	if got := rowText(scr, 0); got != "←[12;3" {
		t.Errorf("row 0 = %q, want pending bytes flushed", got)
	}
}

func TestSwitchResetsTarget(t *testing.T) {
	d, _, _ := newTestDispatcher(VT100)

	d.FeedAll([]byte("\x1b[?1h\x1b="))
	d.Switch(ANSI)
	d.Switch(VT100)

	m := d.Modes()
	if m.Arrows != ArrowModeANSI || m.KeypadApplication {
		t.Errorf("modes = %+v, want reset on switch", m)
	}
}

func TestEmulationString(t *testing.T) {
	tests := []struct {
		e    Emulation
		want string
	}{
		{TTY, "TTY"},
		{ANSI, "ANSI"},
		{VT52, "VT52"},
		{VT100, "VT100"},
		{LinuxUTF8, "LINUX UTF-8"},
		{XTermUTF8, "XTERM UTF-8"},
	}

	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.e, got, tt.want)
		}
	}
}

func TestUTF8Variants(t *testing.T) {
	for _, e := range []Emulation{LinuxUTF8, XTermUTF8} {
		if !e.UTF8() {
			t.Errorf("%v should report UTF-8", e)
		}
	}
	for _, e := range []Emulation{TTY, ANSI, VT52, VT100, Linux, XTerm} {
		if e.UTF8() {
			t.Errorf("%v should not report UTF-8", e)
		}
	}
}
