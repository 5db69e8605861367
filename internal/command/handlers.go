package command

import (
	"strings"

	"github.com/eternalApril/moonwire/internal/resp"
)

func ping(ctx *Context) resp.Value {
	switch len(ctx.Args) {
	case 0:
		return resp.MakeSimpleString("PONG")
	case 1:
		return resp.MakeBulkBytes(ctx.Args[0].Str)
	}
	return resp.MakeErrorWrongNumberOfArguments("ping")
}

func echo(ctx *Context) resp.Value {
	return resp.MakeBulkBytes(ctx.Args[0].Str)
}

// command implements COMMAND, COMMAND COUNT and COMMAND DOCS
func (r *Registry) command(ctx *Context) resp.Value {
	if len(ctx.Args) == 0 {
		return r.allCommands()
	}

	sub := strings.ToUpper(ctx.Args[0].Text())
	switch sub {
	case "COUNT":
		if len(ctx.Args) != 1 {
			return resp.MakeErrorWrongNumberOfArguments("command|count")
		}
		return resp.MakeInteger(int64(len(r.commands)))
	case "DOCS":
		return r.commandDocs(ctx.Args[1:])
	}

	return resp.MakeErrorf("ERR unknown subcommand '%s'. Try COMMAND HELP.", ctx.Args[0].Text())
}
