package command

import (
	"strings"

	"github.com/eternalApril/moonwire/internal/resp"
)

func makeFlagsArray(flags []string) resp.Value {
	vals := make([]resp.Value, len(flags))
	for i, f := range flags {
		vals[i] = resp.MakeSimpleString(f)
	}
	return resp.MakeArray(vals)
}

func makeInfoCmdArray(name string, meta Metadata) resp.Value {
	return resp.MakeArray([]resp.Value{
		resp.MakeBulkString(strings.ToLower(name)),
		resp.MakeInteger(int64(meta.Arity)),
		makeFlagsArray(meta.Flags),
		resp.MakeInteger(int64(meta.FirstKey)),
		resp.MakeInteger(int64(meta.LastKey)),
		resp.MakeInteger(int64(meta.Step)),
	})
}

func (r *Registry) allCommands() resp.Value {
	names := r.names()
	cmdArray := make([]resp.Value, 0, len(names))
	for _, name := range names {
		cmdArray = append(cmdArray, makeInfoCmdArray(name, r.commands[name].meta))
	}
	return resp.MakeArray(cmdArray)
}

// commandDocs returns documentation for specified commands or all commands
// Format: [Name, [Summary, val, Since, val...], Name, [...]]
func (r *Registry) commandDocs(args []resp.Value) resp.Value {
	var targets []string

	if len(args) == 0 {
		targets = r.names()
	} else {
		targets = make([]string, 0, len(args))
		for _, arg := range args {
			targets = append(targets, strings.ToUpper(arg.Text()))
		}
	}

	result := make([]resp.Value, 0, len(targets)*2)

	for _, name := range targets {
		e, ok := r.commands[name]
		if !ok {
			continue
		}

		result = append(result, resp.MakeBulkString(strings.ToLower(name)))

		props := []resp.Value{
			resp.MakeBulkString("summary"),
			resp.MakeBulkString(e.meta.Summary),
			resp.MakeBulkString("since"),
			resp.MakeBulkString(e.meta.Since),
			resp.MakeBulkString("group"),
			resp.MakeBulkString(e.meta.Group),
			resp.MakeBulkString("complexity"),
			resp.MakeBulkString(e.meta.Complexity),
		}

		result = append(result, resp.MakeArray(props))
	}

	return resp.MakeArray(result)
}
