package utils

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// EscapeBytes renders a byte string legibly for logging: ESC becomes \e,
// other control bytes become <NAK>-style tags, printables pass through.
func EscapeBytes(data []byte) string {
	var sb strings.Builder

	for _, b := range data {
		switch {
		case b == ansi.ESC:
			sb.WriteString("\\e")
		case b == ansi.NUL:
			sb.WriteString("\\0")
		case b < 0x20 || b == 0x7F:
			sb.WriteString(controlTag(b))
		default:
			sb.WriteByte(b)
		}
	}

	return sb.String()
}

var controlTags = map[byte]string{
	ansi.SOH: "<SOH>",
	ansi.STX: "<STX>",
	ansi.EOT: "<EOT>",
	ansi.ENQ: "<ENQ>",
	ansi.ACK: "<ACK>",
	ansi.BEL: "<BEL>",
	ansi.BS:  "<BS>",
	ansi.HT:  "<HT>",
	ansi.LF:  "<LF>",
	ansi.VT:  "<VT>",
	ansi.FF:  "<FF>",
	ansi.CR:  "<CR>",
	ansi.SO:  "<SO>",
	ansi.SI:  "<SI>",
	ansi.NAK: "<NAK>",
	ansi.CAN: "<CAN>",
	ansi.SUB: "<SUB>",
	ansi.DEL: "<DEL>",
}

func controlTag(b byte) string {
	if tag, ok := controlTags[b]; ok {
		return tag
	}
	return fmt.Sprintf("<%02X>", b)
}
