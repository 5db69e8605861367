// Package command is a minimal command dispatcher for the RESP server.
//
// It knows connection-level commands only (PING, ECHO, COMMAND) and keeps
// no keyspace. Everything else is answered with an unknown command error.
package command

import (
	"context"

	"github.com/eternalApril/moonwire/internal/resp"
)

// Context carries the arguments of one request, the command name excluded
type Context struct {
	context.Context
	Args []resp.Value
}

type Command interface {
	Execute(ctx *Context) resp.Value
}

type CommandFunc func(ctx *Context) resp.Value

func (c CommandFunc) Execute(ctx *Context) resp.Value {
	return c(ctx)
}

// Metadata describes a command the way COMMAND and COMMAND DOCS report it
type Metadata struct {
	Arity    int      // Arity includes the command name itself, negative means "at least"
	Flags    []string // readonly, fast, etc
	FirstKey int      // 1-based index of the first key
	LastKey  int      // 1-based index of the last key
	Step     int      // Step count for finding keys

	Summary    string
	Complexity string
	Group      string
	Since      string
}

// checkArity reports whether n arguments (command name included) satisfy arity
func checkArity(arity, n int) bool {
	if arity >= 0 {
		return n == arity
	}
	return n >= -arity
}
