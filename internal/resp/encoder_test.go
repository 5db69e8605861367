package resp_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternalApril/moonwire/internal/resp"
)

func TestEncoder_Write(t *testing.T) {
	tests := []struct {
		name     string
		input    resp.Value
		expected string
	}{
		{
			name:     "Integer positive",
			input:    resp.Value{Type: resp.TypeInteger, Integer: 100},
			expected: ":100\r\n",
		},
		{
			name:     "Integer negative",
			input:    resp.Value{Type: resp.TypeInteger, Integer: -42},
			expected: ":-42\r\n",
		},
		{
			name:     "Simple String",
			input:    resp.Value{Type: resp.TypeSimpleString, Str: []byte("OK")},
			expected: "+OK\r\n",
		},
		{
			name:     "Error",
			input:    resp.Value{Type: resp.TypeError, Str: []byte("Error message")},
			expected: "-Error message\r\n",
		},
		{
			name:     "Bulk String",
			input:    resp.Value{Type: resp.TypeBulkString, Str: []byte("hello")},
			expected: "$5\r\nhello\r\n",
		},
		{
			name:     "Bulk String Empty",
			input:    resp.Value{Type: resp.TypeBulkString, Str: []byte("")},
			expected: "$0\r\n\r\n",
		},
		{
			name:     "Bulk String Binary",
			input:    resp.MakeBulkBytes([]byte{0xfa, 0xce, '\r', '\n'}),
			expected: "$4\r\n\xfa\xce\r\n\r\n",
		},
		{
			name:     "Bulk String Null",
			input:    resp.Value{Type: resp.TypeBulkString, IsNull: true},
			expected: "$-1\r\n",
		},
		{
			name: "Array of Strings",
			input: resp.Value{
				Type: resp.TypeArray,
				Array: []resp.Value{
					{Type: resp.TypeBulkString, Str: []byte("fff")},
					{Type: resp.TypeBulkString, Str: []byte("ttt")},
				},
			},
			expected: "*2\r\n$3\r\nfff\r\n$3\r\nttt\r\n",
		},
		{
			name:     "Array Null",
			input:    resp.Value{Type: resp.TypeArray, IsNull: true},
			expected: "*-1\r\n",
		},
		{
			name:     "Array Empty",
			input:    resp.Value{Type: resp.TypeArray, Array: []resp.Value{}},
			expected: "*0\r\n",
		},
		{
			name: "Mixed Array",
			input: resp.Value{
				Type: resp.TypeArray,
				Array: []resp.Value{
					{Type: resp.TypeInteger, Integer: 1},
					{Type: resp.TypeArray, Array: []resp.Value{
						{Type: resp.TypeSimpleString, Str: []byte("inner")},
					}},
				},
			},
			expected: "*2\r\n:1\r\n*1\r\n+inner\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := resp.NewEncoder(&buf)

			err := enc.Write(tt.input)
			if err != nil {
				t.Fatalf("Write() failed: %v", err)
			}

			err = enc.Flush()
			if err != nil {
				t.Fatalf("Flush() failed: %v", err)
			}

			if buf.String() != tt.expected {
				t.Errorf("Write() got = %q, want %q", buf.String(), tt.expected)
			}

			raw, err := resp.Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(raw))
		})
	}
}

func TestEncoder_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		input   resp.Value
		wantErr error
	}{
		{"Unknown type", resp.Value{Type: 'x'}, resp.ErrUnknownType},
		{"Zero value", resp.Value{}, resp.ErrUnknownType},
		{"Simple string with CRLF", resp.MakeSimpleString("a\r\nb"), resp.ErrInvalidSimple},
		{"Error with LF", resp.MakeError("a\nb"), resp.ErrInvalidSimple},
		{"Nested unknown", resp.MakeArray([]resp.Value{resp.MakeInteger(1), {Type: '?'}}), resp.ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := resp.NewEncoder(&buf)

			require.ErrorIs(t, enc.Write(tt.input), tt.wantErr)
			require.NoError(t, enc.Flush())
			assert.Zero(t, buf.Len(), "failed value must not reach the stream")
		})
	}
}

func TestEncoder_WriteError(t *testing.T) {
	errWriter := &errorWriter{}
	enc := resp.NewEncoder(errWriter)

	val := resp.Value{Type: resp.TypeSimpleString, Str: []byte("test")}

	err := enc.Write(val)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	if enc.Buffered() == 0 {
		t.Errorf("Buffered() = 0 before Flush")
	}

	err = enc.Flush()
	if !errors.Is(err, errWrite) {
		t.Errorf("Flush() error = %v, want %v", err, errWrite)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []resp.Value{
		resp.MakeOK(),
		resp.MakeSimpleString(""),
		resp.MakeSimpleString("héllo wörld"),
		resp.MakeError("ERR something bad"),
		resp.MakeInteger(0),
		resp.MakeInteger(-1),
		resp.MakeInteger(1<<63 - 1),
		resp.MakeInteger(-1 << 63),
		resp.MakeBulkString(""),
		resp.MakeBulkBytes([]byte{0, 1, 2, '\r', '\n', 0xff}),
		resp.MakeNilBulkString(),
		resp.MakeNilArray(),
		resp.MakeArray(nil),
		resp.MakeCommandStrings("SET", "key", "value"),
		resp.MakeArray([]resp.Value{
			resp.MakeNilBulkString(),
			resp.MakeArray([]resp.Value{
				resp.MakeNilArray(),
				resp.MakeArray([]resp.Value{resp.MakeError("deep"), resp.MakeInteger(7)}),
			}),
		}),
	}

	for _, v := range values {
		raw, err := resp.Encode(v)
		require.NoError(t, err)

		got, n, err := resp.Decode(raw)
		require.NoError(t, err, "decode %q", raw)
		assert.Equal(t, len(raw), n)
		assert.True(t, v.Equal(got), "round trip of %q: got %#v", raw, got)
	}
}

func TestSerializeCommand(t *testing.T) {
	raw, err := resp.SerializeCommand("ECHO", []resp.Value{resp.MakeBulkString("hi")})
	require.NoError(t, err)
	assert.Equal(t, "*2\r\n$4\r\nECHO\r\n$2\r\nhi\r\n", string(raw))
}

var errWrite = errors.New("write failed")

type errorWriter struct{}

func (w *errorWriter) Write(p []byte) (int, error) {
	return 0, errWrite
}
