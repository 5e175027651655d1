package expect

import "strings"

// Printable renders b for logs: control bytes in caret notation (^C, ^[),
// DEL as ^?, and tab, newline and carriage return as \t, \n and \r.
// Other bytes are written as-is.
func Printable(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		switch {
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c < 0x20:
			sb.WriteByte('^')
			sb.WriteByte(c + 0x40)
		case c == 0x7f:
			sb.WriteString("^?")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
