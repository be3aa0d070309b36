package keymap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load parses a keymap file: one `name=value` binding per line, `#`
// comments and blank lines ignored.  Unknown key names are an error so
// that typos in a user's keymap surface instead of silently not binding.
func Load(r io.Reader) (*Keymap, error) {
	k := New()
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("keymap line %d: missing '=': %q", lineNo, line)
		}

		name = strings.TrimSpace(name)
		if !Known(name) {
			return nil, fmt.Errorf("keymap line %d: unknown key name %q", lineNo, name)
		}

		k.Bind(Key(name), value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading keymap: %w", err)
	}

	return k, nil
}

// LoadFile loads a keymap from a file on disk.
func LoadFile(path string) (*Keymap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap: %w", err)
	}
	defer f.Close()

	k, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}
