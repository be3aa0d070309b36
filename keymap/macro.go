package keymap

import "strings"

// hatSentinel stands in for an escaped '^' while control expansion runs.
// A private-use code point cannot collide with binding text.
const hatSentinel = ""

// Macros carries the substitution values available to keymap bindings.
type Macros struct {
	Username string
	Password string
}

// Expand substitutes $USERNAME and $PASSWORD, then translates
// hat-notation (^A through ^_) into control bytes.  `^^` produces a
// literal '^'; `^@` is not supported since a NUL would truncate the
// binding in most downstream consumers, and is left verbatim.
func Expand(value string, macros Macros) []byte {
	s := strings.ReplaceAll(value, "^^", hatSentinel)
	s = strings.ReplaceAll(s, "$USERNAME", macros.Username)
	s = strings.ReplaceAll(s, "$PASSWORD", macros.Password)

	var out []byte
	for i := 0; i < len(s); {
		if s[i] == '^' && i+1 < len(s) {
			c := s[i+1]
			if c >= 'a' && c <= 'z' {
				c -= 0x20
			}
			if c >= 'A' && c <= '_' {
				out = append(out, c-'@')
				i += 2
				continue
			}
		}
		out = append(out, s[i])
		i++
	}

	return []byte(strings.ReplaceAll(string(out), hatSentinel, "^"))
}

// referencesEmptyMacro reports whether the binding references a macro
// with no value.  Such a binding is skipped during resolution so the key
// can fall through to a lower layer instead of transmitting the rest of
// the binding without the macro text.
func referencesEmptyMacro(value string, macros Macros) bool {
	if macros.Username == "" && strings.Contains(value, "$USERNAME") {
		return true
	}
	if macros.Password == "" && strings.Contains(value, "$PASSWORD") {
		return true
	}
	return false
}
