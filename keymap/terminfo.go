package keymap

import (
	"github.com/xo/terminfo"

	"github.com/moodclient/retroterm/emulation"
)

// terminfoName maps a dialect to the terminfo entry that best describes
// it.  The UTF-8 variants share their base entry since key sequences do
// not differ.
func terminfoName(dialect emulation.Emulation) string {
	switch dialect {
	case emulation.ANSI:
		return "ansi"
	case emulation.VT52:
		return "vt52"
	case emulation.VT100:
		return "vt102"
	case emulation.Linux, emulation.LinuxUTF8:
		return "linux"
	case emulation.XTerm, emulation.XTermUTF8:
		return "xterm"
	default:
		return "dumb"
	}
}

// loadTerminfo builds a keymap from the host terminfo database entry for
// the dialect.  A missing entry yields an empty keymap.
func loadTerminfo(dialect emulation.Emulation) *Keymap {
	k := New()

	ti, err := terminfo.Load(terminfoName(dialect))
	if err != nil {
		return k
	}

	caps := ti.StringCapsShort()
	for _, key := range terminfoKeys {
		if seq := caps[string(key)]; len(seq) > 0 {
			k.Bind(key, string(seq))
		}
	}

	return k
}
