package resp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eternalApril/moonwire/internal/resp"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		input resp.Value
		want  string
	}{
		{"OK", resp.MakeOK(), "OK"},
		{"Error", resp.MakeError("ERR boom"), "(error) ERR boom"},
		{"Integer", resp.MakeInteger(-3), "(integer) -3"},
		{"Bulk", resp.MakeBulkString("hello"), `"hello"`},
		{"Bulk escaped", resp.MakeBulkBytes([]byte("a\"b\\\r\n\x00\xfa")), `"a\"b\\\r\n\x00\xfa"`},
		{"Nil bulk", resp.MakeNilBulkString(), "(nil)"},
		{"Nil array", resp.MakeNilArray(), "(nil)"},
		{"Empty array", resp.MakeArray(nil), "(empty array)"},
		{
			"Nested array",
			resp.MakeArray([]resp.Value{
				resp.MakeBulkString("hello"),
				resp.MakeArray([]resp.Value{resp.MakeInteger(1), resp.MakeInteger(2)}),
			}),
			"1) \"hello\"\n2) 1) (integer) 1\n   2) (integer) 2",
		},
		{
			"Number width",
			resp.MakeArray([]resp.Value{
				resp.MakeInteger(1), resp.MakeInteger(2), resp.MakeInteger(3), resp.MakeInteger(4),
				resp.MakeInteger(5), resp.MakeInteger(6), resp.MakeInteger(7), resp.MakeInteger(8),
				resp.MakeInteger(9), resp.MakeArray([]resp.Value{resp.MakeOK(), resp.MakeOK()}),
			}),
			" 1) (integer) 1\n 2) (integer) 2\n 3) (integer) 3\n 4) (integer) 4\n" +
				" 5) (integer) 5\n 6) (integer) 6\n 7) (integer) 7\n 8) (integer) 8\n" +
				" 9) (integer) 9\n10) 1) OK\n    2) OK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.String())
		})
	}
}
