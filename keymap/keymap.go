package keymap

// Keymap is one layer of key bindings.  Values are stored unexpanded;
// macro substitution happens at resolution time so that $USERNAME and
// friends track the live session values.
type Keymap struct {
	bindings map[Key]string
}

// New returns an empty keymap.
func New() *Keymap {
	return &Keymap{bindings: make(map[Key]string)}
}

// Bind associates a key with a raw binding string.
func (k *Keymap) Bind(key Key, value string) {
	k.bindings[key] = value
}

// Lookup returns the raw binding for a key.
func (k *Keymap) Lookup(key Key) (string, bool) {
	v, ok := k.bindings[key]
	return v, ok
}

// Len returns the number of bound keys.
func (k *Keymap) Len() int { return len(k.bindings) }
