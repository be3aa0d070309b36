package emulation

import "github.com/moodclient/retroterm/charset"

// charsetID selects one of the designatable character sets.
type charsetID int

const (
	charsetUS charsetID = iota
	charsetUK
	charsetDrawing
	charsetROM
	charsetROMSpecial
)

// designate maps the final byte of an ESC ( / ESC ) sequence to a
// character set.
func designate(b byte) (charsetID, bool) {
	switch b {
	case 'A':
		return charsetUK, true
	case 'B':
		return charsetUS, true
	case '0':
		return charsetDrawing, true
	case '1':
		return charsetROM, true
	case '2':
		return charsetROMSpecial, true
	}
	return charsetUS, false
}

// table returns the glyph table for a character set.  The ROM sets have
// no distinct glyphs and fall back to US.
func (c charsetID) table() *[256]rune {
	switch c {
	case charsetUK:
		return &charset.DECUKChars
	case charsetDrawing:
		return &charset.DECSpecialGraphicsChars
	default:
		return &charset.DECUSChars
	}
}

// mapByte translates an inbound byte using the active character set:
// bytes >= 0x80 always map through CP437, bytes below go through the
// selected set.
func mapByte(b byte, active charsetID) rune {
	if b >= 0x80 {
		return charset.CP437Chars[b]
	}
	return active.table()[b]
}

// mapFlush maps a run of accumulated escape bytes through the codepage
// mapper for verbatim display.  Control bytes show their CP437 glyphs,
// so a flushed ESC renders as a left arrow.
func mapFlush(accum []byte, active charsetID) []rune {
	glyphs := make([]rune, 0, len(accum))
	for _, b := range accum {
		if b < 0x20 {
			glyphs = append(glyphs, charset.CP437Chars[b])
		} else {
			glyphs = append(glyphs, mapByte(b, active))
		}
	}
	return glyphs
}

// vt52Graphics maps 7-bit bytes in 0x5E..0x7E to the VT52 graphics
// repertoire.  Entries where Unicode has no single code point use the
// closest substitute glyph.
var vt52Graphics = map[byte]rune{
	0x5E: ' ',      // blank
	0x5F: ' ',      // blank
	0x60: '¶', // reserved, shown as pilcrow
	0x61: '█', // solid block
	0x62: '⅟', // 1/
	0x63: '³', // 3/ shown as superscript three
	0x64: '⁵', // 5/ shown as superscript five
	0x65: '⁷', // 7/ shown as superscript seven
	0x66: '°', // degree
	0x67: '±', // plus/minus
	0x68: '→', // right arrow
	0x69: '…', // ellipsis
	0x6A: '÷', // divide
	0x6B: '↓', // down arrow
	0x6C: '▔', // bar at scan 0
	0x6D: '▔', // bar at scan 1
	0x6E: '─', // bar at scan 2
	0x6F: '─', // bar at scan 3
	0x70: '─', // bar at scan 4
	0x71: '─', // bar at scan 5
	0x72: '▁', // bar at scan 6
	0x73: '▁', // bar at scan 7
	0x74: '₀', // subscript 0
	0x75: '₁', // subscript 1
	0x76: '₂', // subscript 2
	0x77: '₃', // subscript 3
	0x78: '₄', // subscript 4
	0x79: '₅', // subscript 5
	0x7A: '₆', // subscript 6
	0x7B: '₇', // subscript 7
	0x7C: '₈', // subscript 8
	0x7D: '₉', // subscript 9
	0x7E: '¶', // paragraph
}

// mapVT52 translates an inbound byte in VT52 graphics mode.
func mapVT52(b byte, graphics bool) rune {
	if b >= 0x80 {
		return charset.CP437Chars[b]
	}
	if graphics {
		if r, ok := vt52Graphics[b]; ok {
			return r
		}
	}
	return charset.DECUSChars[b]
}
