package emulation

// utf8Decoder is a DFA-based incremental UTF-8 decoder.  Invalid bytes
// reset the decoder and are discarded; a complete sequence produces
// exactly one code point.
type utf8Decoder struct {
	need int
	acc  rune
	min  rune
}

func (d *utf8Decoder) reset() {
	d.need = 0
	d.acc = 0
	d.min = 0
}

// feed consumes one byte.  ok is true when a complete code point is
// available in r.
func (d *utf8Decoder) feed(b byte) (r rune, ok bool) {
	if d.need == 0 {
		switch {
		case b < 0x80:
			return rune(b), true
		case b >= 0xC2 && b <= 0xDF:
			d.need, d.acc, d.min = 1, rune(b&0x1F), 0x80
		case b >= 0xE0 && b <= 0xEF:
			d.need, d.acc, d.min = 2, rune(b&0x0F), 0x800
		case b >= 0xF0 && b <= 0xF4:
			d.need, d.acc, d.min = 3, rune(b&0x07), 0x10000
		default:
			// 0x80-0xC1 and 0xF5-0xFF can't begin a sequence.
		}
		return 0, false
	}

	if b&0xC0 != 0x80 {
		d.reset()
		return 0, false
	}

	d.acc = d.acc<<6 | rune(b&0x3F)
	d.need--
	if d.need > 0 {
		return 0, false
	}

	r = d.acc
	min := d.min
	d.reset()

	if r < min || r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
		return 0, false
	}

	return r, true
}
