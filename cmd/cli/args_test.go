package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "  \t ", nil},
		{"single word", "PING", []string{"PING"}},
		{"words", "ECHO  hello\tworld ", []string{"ECHO", "hello", "world"}},
		{"double quoted", `ECHO "hello world"`, []string{"ECHO", "hello world"}},
		{"escapes", `ECHO "a\r\nb\x00\"c"`, []string{"ECHO", "a\r\nb\x00\"c"}},
		{"single quoted", `ECHO 'raw \n text'`, []string{"ECHO", `raw \n text`}},
		{"empty quoted", `ECHO ""`, []string{"ECHO", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitArgs_Unbalanced(t *testing.T) {
	for _, line := range []string{
		`ECHO "hello`,
		`ECHO 'hello`,
		`ECHO "a"b`,
		`ECHO "bad \q escape"`,
	} {
		_, err := splitArgs(line)
		assert.ErrorIs(t, err, errUnbalancedQuotes, line)
	}
}
