// Package keymap resolves logical keys to the byte sequences a remote
// system expects.  Bindings come from layered keymaps: an explicitly
// loaded file, a per-emulation user map, a default user map, the
// dialect's hardcoded sequences, and finally terminfo.
package keymap

import "fmt"

// Key names a logical key.  The value is the terminfo short capability
// name where one exists (kf1, kcuu1, ...), extended with alt_f* and np_*
// names that terminfo has no capability for.
type Key string

const (
	KeyUp    Key = "kcuu1"
	KeyDown  Key = "kcud1"
	KeyRight Key = "kcuf1"
	KeyLeft  Key = "kcub1"

	KeyHome      Key = "khome"
	KeyEnd       Key = "kend"
	KeyPageDown  Key = "knp"
	KeyPageUp    Key = "kpp"
	KeyBackspace Key = "kbs"
	KeyInsert    Key = "kich1"
	KeyDelete    Key = "kdch1"

	KeyPadPeriod   Key = "np_period"
	KeyPadDivide   Key = "np_divide"
	KeyPadMultiply Key = "np_multiply"
	KeyPadSubtract Key = "np_subtract"
	KeyPadAdd      Key = "np_add"
	KeyPadEnter    Key = "np_enter"
)

// KeyF returns the logical key for function key n, 1 through 36.
func KeyF(n int) Key {
	return Key(fmt.Sprintf("kf%d", n))
}

// KeyAltF returns the logical key for Alt-function key n, 1 through 12.
func KeyAltF(n int) Key {
	return Key(fmt.Sprintf("alt_f%d", n))
}

// KeyPad returns the logical key for numeric-pad digit n, 0 through 9.
func KeyPad(n int) Key {
	return Key(fmt.Sprintf("np_%d", n))
}

var knownKeys = buildKnownKeys()

func buildKnownKeys() map[Key]bool {
	known := map[Key]bool{
		KeyUp: true, KeyDown: true, KeyRight: true, KeyLeft: true,
		KeyHome: true, KeyEnd: true, KeyPageDown: true, KeyPageUp: true,
		KeyBackspace: true, KeyInsert: true, KeyDelete: true,
		KeyPadPeriod: true, KeyPadDivide: true, KeyPadMultiply: true,
		KeyPadSubtract: true, KeyPadAdd: true, KeyPadEnter: true,
	}
	for n := 1; n <= 36; n++ {
		known[KeyF(n)] = true
	}
	for n := 1; n <= 12; n++ {
		known[KeyAltF(n)] = true
	}
	for n := 0; n <= 9; n++ {
		known[KeyPad(n)] = true
	}
	return known
}

// Known reports whether name is a recognized key name.
func Known(name string) bool {
	return knownKeys[Key(name)]
}

// terminfoKeys are the keys whose names are real terminfo capabilities
// and can therefore be filled from a terminfo entry.
var terminfoKeys = buildTerminfoKeys()

func buildTerminfoKeys() []Key {
	keys := []Key{
		KeyUp, KeyDown, KeyRight, KeyLeft,
		KeyHome, KeyEnd, KeyPageDown, KeyPageUp,
		KeyBackspace, KeyInsert, KeyDelete,
	}
	for n := 1; n <= 36; n++ {
		keys = append(keys, KeyF(n))
	}
	return keys
}
