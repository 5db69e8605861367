package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/resp"
)

// setupRegistry creates a fresh registry for each test
func setupRegistry() *Registry {
	return NewRegistry(zap.NewNop())
}

func TestPing(t *testing.T) {
	r := setupRegistry()

	tests := []struct {
		name     string
		args     []string
		wantType byte
		wantStr  string
	}{
		{"Simple PING", []string{}, resp.TypeSimpleString, "PONG"},
		{"PING with message", []string{"Hello"}, resp.TypeBulkString, "Hello"},
		{"PING too many args", []string{"a", "b"}, resp.TypeError, "ERR wrong number of arguments for 'ping' command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Dispatch(context.Background(), resp.MakeCommandStrings("PING", tt.args...))
			if res.Type != tt.wantType {
				t.Errorf("got type %q, want %q", res.Type, tt.wantType)
			}

			got := res.Text()
			if got != tt.wantStr {
				t.Errorf("got %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	r := setupRegistry()

	tests := []struct {
		name string
		req  resp.Value
		want resp.Value
	}{
		{"Lowercase name", resp.MakeCommandStrings("ping"), resp.MakeSimpleString("PONG")},
		{"Echo", resp.MakeCommandStrings("ECHO", "hi there"), resp.MakeBulkString("hi there")},
		{"Echo binary", resp.MakeCommand("ECHO", resp.MakeBulkBytes([]byte{0, 0xff})), resp.MakeBulkBytes([]byte{0, 0xff})},
		{"Echo without args", resp.MakeCommandStrings("ECHO"), resp.MakeError("ERR wrong number of arguments for 'echo' command")},
		{"Unknown command", resp.MakeCommandStrings("x"), resp.MakeError("ERR unknown command 'x'")},
		{"Unknown command keeps case", resp.MakeCommandStrings("GeT", "k"), resp.MakeError("ERR unknown command 'GeT'")},
		{"Not an array", resp.MakeSimpleString("PING"), resp.MakeError("ERR Protocol error: expected array of bulk strings")},
		{"Null array", resp.MakeNilArray(), resp.MakeError("ERR Protocol error: expected array of bulk strings")},
		{"Integer argument", resp.MakeCommand("ECHO", resp.MakeInteger(1)), resp.MakeError("ERR Protocol error: expected array of bulk strings")},
		{"Empty array", resp.MakeArray(nil), resp.MakeError("ERR empty command")},
		{"Command count", resp.MakeCommandStrings("COMMAND", "COUNT"), resp.MakeInteger(3)},
		{"Command bad subcommand", resp.MakeCommandStrings("COMMAND", "NOPE"), resp.MakeError("ERR unknown subcommand 'NOPE'. Try COMMAND HELP.")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Dispatch(context.Background(), tt.req)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCommand(t *testing.T) {
	r := setupRegistry()

	res := r.Dispatch(context.Background(), resp.MakeCommandStrings("COMMAND"))
	require.Equal(t, byte(resp.TypeArray), res.Type)
	require.Len(t, res.Array, 3)

	// sorted by name
	assert.Equal(t, "command", res.Array[0].Array[0].Text())
	assert.Equal(t, "echo", res.Array[1].Array[0].Text())
	assert.Equal(t, "ping", res.Array[2].Array[0].Text())

	echo := res.Array[1].Array
	assert.Equal(t, int64(2), echo[1].Integer)
	assert.Equal(t, "fast", echo[2].Array[0].Text())

	// every reply must be encodable
	_, err := resp.Encode(res)
	assert.NoError(t, err)
}

func TestCommandDocs(t *testing.T) {
	r := setupRegistry()

	res := r.Dispatch(context.Background(), resp.MakeCommandStrings("COMMAND", "DOCS", "ping", "missing"))
	require.Len(t, res.Array, 2)
	assert.Equal(t, "ping", res.Array[0].Text())
	assert.Equal(t, "summary", res.Array[1].Array[0].Text())
	assert.Equal(t, "Ping the server.", res.Array[1].Array[1].Text())

	all := r.Dispatch(context.Background(), resp.MakeCommandStrings("COMMAND", "DOCS"))
	assert.Len(t, all.Array, 6)
}

func TestRegister(t *testing.T) {
	r := setupRegistry()
	r.Register("hello", Metadata{Arity: 1}, CommandFunc(func(ctx *Context) resp.Value {
		return resp.MakeOK()
	}))

	got := r.Dispatch(context.Background(), resp.MakeCommandStrings("HELLO"))
	assert.True(t, resp.MakeOK().Equal(got))

	got = r.Dispatch(context.Background(), resp.MakeCommandStrings("HELLO", "3"))
	assert.Equal(t, byte(resp.TypeError), got.Type)
}

func TestCheckArity(t *testing.T) {
	assert.True(t, checkArity(2, 2))
	assert.False(t, checkArity(2, 3))
	assert.True(t, checkArity(-1, 1))
	assert.True(t, checkArity(-1, 5))
	assert.False(t, checkArity(-3, 2))
}
