package keymap

import (
	"github.com/moodclient/retroterm/emulation"
)

// hardcoded returns the dialect's built-in sequence for a key, taking
// the cursor-key and keypad modes into account.
func hardcoded(dialect emulation.Emulation, key Key, modes emulation.Modes) ([]byte, bool) {
	if b, ok := arrowKey(key, modes.Arrows); ok {
		return b, ok
	}
	if b, ok := keypadKey(key, modes, dialect); ok {
		return b, ok
	}

	var table map[Key]string
	switch dialect {
	case emulation.VT100:
		table = vt100Keys
	case emulation.Linux, emulation.LinuxUTF8:
		table = linuxKeys
	case emulation.XTerm, emulation.XTermUTF8:
		table = xtermKeys
	case emulation.ANSI, emulation.TTY, emulation.Debug:
		table = ansiKeys
	}

	seq, ok := table[key]
	if !ok {
		return nil, false
	}
	return []byte(seq), true
}

func arrowKey(key Key, mode emulation.ArrowMode) ([]byte, bool) {
	var letter byte
	switch key {
	case KeyUp:
		letter = 'A'
	case KeyDown:
		letter = 'B'
	case KeyRight:
		letter = 'C'
	case KeyLeft:
		letter = 'D'
	default:
		return nil, false
	}

	switch mode {
	case emulation.ArrowModeVT52:
		return []byte{0x1B, letter}, true
	case emulation.ArrowModeApplication:
		return []byte{0x1B, 'O', letter}, true
	default:
		return []byte{0x1B, '[', letter}, true
	}
}

// keypadFinals maps numeric-pad keys to the final byte of their
// application-mode sequence.
var keypadFinals = map[Key]byte{
	KeyPadPeriod:   'n',
	KeyPadDivide:   'o',
	KeyPadMultiply: 'j',
	KeyPadSubtract: 'm',
	KeyPadAdd:      'k',
	KeyPadEnter:    'M',
}

// keypadNumeric maps numeric-pad keys to their plain characters.
var keypadNumeric = map[Key]string{
	KeyPadPeriod:   ".",
	KeyPadDivide:   "/",
	KeyPadMultiply: "*",
	KeyPadSubtract: "-",
	KeyPadAdd:      "+",
	KeyPadEnter:    "\r",
}

func keypadKey(key Key, modes emulation.Modes, dialect emulation.Emulation) ([]byte, bool) {
	final, digit := byte(0), false
	for n := 0; n <= 9; n++ {
		if key == KeyPad(n) {
			final, digit = byte('p'+n), true
			break
		}
	}
	if !digit {
		var ok bool
		final, ok = keypadFinals[key]
		if !ok {
			return nil, false
		}
	}

	if !modes.KeypadApplication {
		if digit {
			return []byte{byte(key[len(key)-1])}, true
		}
		return []byte(keypadNumeric[key]), true
	}

	// VT52 application keypad uses ESC ? in place of SS3.
	if dialect == emulation.VT52 || modes.Arrows == emulation.ArrowModeVT52 {
		return []byte{0x1B, '?', final}, true
	}
	return []byte{0x1B, 'O', final}, true
}

var vt100Keys = map[Key]string{
	KeyF(1):      "\x1bOP",
	KeyF(2):      "\x1bOQ",
	KeyF(3):      "\x1bOR",
	KeyF(4):      "\x1bOS",
	KeyBackspace: "\x08",
}

var linuxKeys = map[Key]string{
	KeyF(1):      "\x1b[[A",
	KeyF(2):      "\x1b[[B",
	KeyF(3):      "\x1b[[C",
	KeyF(4):      "\x1b[[D",
	KeyF(5):      "\x1b[[E",
	KeyF(6):      "\x1b[17~",
	KeyF(7):      "\x1b[18~",
	KeyF(8):      "\x1b[19~",
	KeyF(9):      "\x1b[20~",
	KeyF(10):     "\x1b[21~",
	KeyF(11):     "\x1b[23~",
	KeyF(12):     "\x1b[24~",
	KeyHome:      "\x1b[1~",
	KeyEnd:       "\x1b[4~",
	KeyInsert:    "\x1b[2~",
	KeyDelete:    "\x1b[3~",
	KeyPageUp:    "\x1b[5~",
	KeyPageDown:  "\x1b[6~",
	KeyBackspace: "\x7f",
}

var xtermKeys = map[Key]string{
	KeyF(1):      "\x1bOP",
	KeyF(2):      "\x1bOQ",
	KeyF(3):      "\x1bOR",
	KeyF(4):      "\x1bOS",
	KeyF(5):      "\x1b[15~",
	KeyF(6):      "\x1b[17~",
	KeyF(7):      "\x1b[18~",
	KeyF(8):      "\x1b[19~",
	KeyF(9):      "\x1b[20~",
	KeyF(10):     "\x1b[21~",
	KeyF(11):     "\x1b[23~",
	KeyF(12):     "\x1b[24~",
	KeyHome:      "\x1b[H",
	KeyEnd:       "\x1b[F",
	KeyInsert:    "\x1b[2~",
	KeyDelete:    "\x1b[3~",
	KeyPageUp:    "\x1b[5~",
	KeyPageDown:  "\x1b[6~",
	KeyBackspace: "\x7f",
}

var ansiKeys = map[Key]string{
	KeyHome:      "\x1b[H",
	KeyEnd:       "\x1b[F",
	KeyBackspace: "\x08",
}
