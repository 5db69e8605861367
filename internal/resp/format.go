package resp

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders v the way redis-cli prints replies
func (v Value) String() string {
	var b strings.Builder
	writeValue(&b, v, 0)
	return b.String()
}

func writeValue(b *strings.Builder, v Value, indent int) {
	if v.IsNil() {
		b.WriteString("(nil)")
		return
	}

	switch v.Type {
	case TypeSimpleString:
		b.Write(v.Str)
	case TypeError:
		b.WriteString("(error) ")
		b.Write(v.Str)
	case TypeInteger:
		b.WriteString("(integer) ")
		b.WriteString(strconv.FormatInt(v.Integer, 10))
	case TypeBulkString:
		writeQuoted(b, v.Str)
	case TypeArray:
		if len(v.Array) == 0 {
			b.WriteString("(empty array)")
			return
		}

		width := len(strconv.Itoa(len(v.Array)))
		for i, el := range v.Array {
			if i > 0 {
				b.WriteByte('\n')
				b.WriteString(strings.Repeat(" ", indent))
			}
			fmt.Fprintf(b, "%*d) ", width, i+1)
			writeValue(b, el, indent+width+2)
		}
	default:
		fmt.Fprintf(b, "(unknown type %q)", v.Type)
	}
}

// writeQuoted escapes like redis-cli: common control characters by name, other
// non-printable bytes as \xhh
func writeQuoted(b *strings.Builder, s []byte) {
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		default:
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				fmt.Fprintf(b, `\x%02x`, c)
			}
		}
	}
	b.WriteByte('"')
}
