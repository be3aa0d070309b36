package keymap

import (
	"unicode/utf8"

	"github.com/moodclient/retroterm/emulation"
)

// Flags carries per-keystroke modifiers and session-level options the
// encoder consults.
type Flags struct {
	// Alt prefixes the encoded bytes with ESC.
	Alt bool
	// TelnetASCII forces CR to be sent as CR LF, matching a telnet
	// connection negotiated into ASCII mode.
	TelnetASCII bool
}

// Resolver encodes logical keys using layered keymaps.  Layers are
// probed in order: the explicitly loaded keymap, the per-emulation user
// keymap, the default user keymap, the dialect's hardcoded sequences,
// and finally the host terminfo database.
type Resolver struct {
	current      *Keymap
	perEmulation map[emulation.Emulation]*Keymap
	defaultMap   *Keymap

	terminfoMaps map[emulation.Emulation]*Keymap

	macros Macros
}

// NewResolver returns a resolver with no user keymaps loaded.
func NewResolver() *Resolver {
	return &Resolver{
		perEmulation: make(map[emulation.Emulation]*Keymap),
		terminfoMaps: make(map[emulation.Emulation]*Keymap),
	}
}

// SetMacros sets the substitution values for $USERNAME and $PASSWORD.
func (r *Resolver) SetMacros(m Macros) { r.macros = m }

// UseKeymap installs an explicitly loaded keymap as the first layer.
// Passing nil removes it.
func (r *Resolver) UseKeymap(k *Keymap) { r.current = k }

// SetEmulationKeymap installs a user keymap consulted only for the given
// dialect.
func (r *Resolver) SetEmulationKeymap(e emulation.Emulation, k *Keymap) {
	r.perEmulation[e] = k
}

// SetDefaultKeymap installs the user keymap consulted for every dialect.
func (r *Resolver) SetDefaultKeymap(k *Keymap) { r.defaultMap = k }

// Encode resolves a function or cursor key to wire bytes.  A binding
// that references an unset macro, or whose expansion is empty, falls
// through to the next layer, so binding F1 to "$USERNAME^M" with no
// username configured still yields the dialect's own F1 sequence.
func (r *Resolver) Encode(key Key, dialect emulation.Emulation, modes emulation.Modes, flags Flags) ([]byte, bool) {
	layers := []*Keymap{r.current, r.perEmulation[dialect], r.defaultMap}
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		raw, ok := layer.Lookup(key)
		if !ok {
			continue
		}
		if referencesEmptyMacro(raw, r.macros) {
			continue
		}
		if b := Expand(raw, r.macros); len(b) > 0 {
			return r.altPrefix(b, flags), true
		}
	}

	if b, ok := hardcoded(dialect, key, modes); ok {
		return r.altPrefix(b, flags), true
	}

	// Terminfo sequences are used verbatim, never macro-expanded.
	ti, ok := r.terminfoMaps[dialect]
	if !ok {
		ti = loadTerminfo(dialect)
		r.terminfoMaps[dialect] = ti
	}
	if raw, ok := ti.Lookup(key); ok {
		return r.altPrefix([]byte(raw), flags), true
	}

	return nil, false
}

// EncodeRune encodes a printable key through the character path.  UTF-8
// dialects encode the full code point; 8-bit dialects transmit the low
// byte.  A NUL rune (Ctrl-@) is sent as a literal NUL.
func (r *Resolver) EncodeRune(ch rune, dialect emulation.Emulation, modes emulation.Modes, flags Flags) []byte {
	var out []byte
	if flags.Alt {
		out = append(out, 0x1B)
	}

	switch {
	case ch == 0:
		out = append(out, 0)
	case ch == '\r':
		out = append(out, '\r')
		if modes.NewLine || flags.TelnetASCII {
			out = append(out, '\n')
		}
	case dialect.UTF8():
		out = utf8.AppendRune(out, ch)
	default:
		out = append(out, byte(ch))
	}

	return out
}

func (r *Resolver) altPrefix(b []byte, flags Flags) []byte {
	if !flags.Alt {
		return b
	}
	return append([]byte{0x1B}, b...)
}
