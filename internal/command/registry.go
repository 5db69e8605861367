package command

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/resp"
)

type entry struct {
	cmd  Command
	meta Metadata
}

// Registry maps command names to their implementation. It is read-only after
// construction and safe for concurrent Dispatch calls
type Registry struct {
	commands map[string]entry // the key is the command name in uppercase
	logger   *zap.Logger
}

// NewRegistry returns a Registry with the connection commands registered
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		commands: make(map[string]entry),
		logger:   logger.Named("command"),
	}
	r.registerBasicCommands()
	return r
}

// Register adds a new command. The command name is uppercase
func (r *Registry) Register(name string, meta Metadata, cmd Command) {
	r.commands[strings.ToUpper(name)] = entry{cmd: cmd, meta: meta}
}

func (r *Registry) registerBasicCommands() {
	r.Register("PING", Metadata{
		Arity:      -1,
		Flags:      []string{"fast", "stale"},
		Summary:    "Ping the server.",
		Complexity: "O(1)",
		Group:      "connection",
		Since:      "1.0.0",
	}, CommandFunc(ping))

	r.Register("ECHO", Metadata{
		Arity:      2,
		Flags:      []string{"fast", "stale"},
		Summary:    "Returns the given string.",
		Complexity: "O(1)",
		Group:      "connection",
		Since:      "1.0.0",
	}, CommandFunc(echo))

	r.Register("COMMAND", Metadata{
		Arity:      -1,
		Flags:      []string{"random", "loading", "stale"},
		Summary:    "Get array of command details.",
		Complexity: "O(N) where N is the total number of commands",
		Group:      "server",
		Since:      "2.8.13",
	}, CommandFunc(r.command))
}

// Dispatch executes a request: an array whose first element is the command name.
// Every request gets exactly one reply; failures are reported as RESP errors
func (r *Registry) Dispatch(ctx context.Context, req resp.Value) resp.Value {
	if req.Type != resp.TypeArray || req.IsNull {
		return resp.MakeError("ERR Protocol error: expected array of bulk strings")
	}
	if len(req.Array) == 0 {
		return resp.MakeError("ERR empty command")
	}
	for _, arg := range req.Array {
		if arg.Type != resp.TypeBulkString || arg.IsNull {
			return resp.MakeError("ERR Protocol error: expected array of bulk strings")
		}
	}

	name := req.Array[0].Text()
	args := req.Array[1:]

	if r.logger.Core().Enabled(zap.DebugLevel) {
		// Log the command name and number of args
		r.logger.Debug("executing command",
			zap.String("cmd", name),
			zap.Int("args_count", len(args)),
		)
	}

	e, ok := r.commands[strings.ToUpper(name)]
	if !ok {
		return resp.MakeErrorUnknownCommand(name)
	}
	if !checkArity(e.meta.Arity, len(req.Array)) {
		return resp.MakeErrorWrongNumberOfArguments(strings.ToLower(name))
	}

	return e.cmd.Execute(&Context{Context: ctx, Args: args})
}

// names returns the registered command names in a stable order
func (r *Registry) names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
