package emulation

import (
	"testing"
)

func TestUTF8Decoder(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []rune
	}{
		{"ascii", []byte("abc"), []rune{'a', 'b', 'c'}},
		{"two byte", []byte("\xc3\xa9"), []rune{'é'}},
		{"three byte", []byte("\xe2\x94\x80"), []rune{'─'}},
		{"four byte", []byte("\xf0\x9f\x92\xbe"), []rune{0x1F4BE}},
		{"mixed", []byte("a\xc3\xa9b"), []rune{'a', 'é', 'b'}},
		{"overlong two byte", []byte("\xc0\xaf"), nil},
		{"overlong three byte", []byte("\xe0\x80\xaf"), nil},
		{"surrogate", []byte("\xed\xa0\x80"), nil},
		{"beyond max", []byte("\xf4\x90\x80\x80"), nil},
		{"bare continuation", []byte("\x80"), nil},
		{"truncated discards breaking byte", []byte("\xc3a"), nil},
		{"invalid start byte", []byte("\xff"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d utf8Decoder
			d.reset()

			var got []rune
			for _, b := range tt.input {
				if r, ok := d.feed(b); ok {
					got = append(got, r)
				}
			}

			if len(got) != len(tt.want) {
				t.Fatalf("decoded %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("rune %d = %U, want %U", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUTF8DecoderRecovers(t *testing.T) {
	var d utf8Decoder
	d.reset()

	// An aborted sequence must not poison subsequent valid input.
	d.feed(0xE2)
	d.feed(0x41) // invalid continuation, discarded

	if r, ok := d.feed(0xC3); ok {
		t.Fatalf("unexpected rune %U from lead byte", r)
	}
	r, ok := d.feed(0xA9)
	if !ok || r != 'é' {
		t.Errorf("decoded %U, ok=%v, want é", r, ok)
	}
}

func TestUTF8Emulations(t *testing.T) {
	d, scr, _ := newTestDispatcher(XTermUTF8)

	d.FeedAll([]byte("\x1b[1mb\xc3\xa9"))
	if cell := scr.Cell(0, 1); cell.Rune != 'é' {
		t.Errorf("cell (0,1) = %q, want é", cell.Rune)
	}

	// Escape parsing still works byte-at-a-time around multi-byte input.
	d.FeedAll([]byte("\x1b[2;1H\xe2\x94\x80"))
	if cell := scr.Cell(1, 0); cell.Rune != '─' {
		t.Errorf("cell (1,0) = %q, want box bar", cell.Rune)
	}
}

func TestUTF8OverridesCodepage(t *testing.T) {
	// In the UTF-8 dialects a high byte is a sequence lead, not a CP437
	// glyph.
	d, scr, _ := newTestDispatcher(LinuxUTF8)

	d.FeedAll([]byte{0xC3, 0xA9})
	if cell := scr.Cell(0, 0); cell.Rune != 'é' {
		t.Errorf("cell (0,0) = %q, want decoded é", cell.Rune)
	}

	// The same bytes through the non-UTF-8 dialect map as CP437.
	d2, scr2, _ := newTestDispatcher(Linux)
	d2.FeedAll([]byte{0xC3, 0xA9})
	if got := rowText(scr2, 0); got != "├⌐" {
		t.Errorf("row 0 = %q, want CP437 glyph pair", got)
	}
}
