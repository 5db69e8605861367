package resp

// SerializeCommand converts a command and its arguments to the request form:
// an array of bulk strings with the command name first
func SerializeCommand(cmd string, args []Value) ([]byte, error) {
	return Encode(MakeCommand(cmd, args...))
}

// MakeCommand builds the request Value for cmd
func MakeCommand(cmd string, args ...Value) Value {
	elements := make([]Value, 1+len(args))

	elements[0] = MakeBulkString(cmd)

	copy(elements[1:], args)

	return MakeArray(elements)
}

// MakeCommandStrings builds the request Value from plain string arguments
func MakeCommandStrings(cmd string, args ...string) Value {
	vals := make([]Value, len(args))
	for i, arg := range args {
		vals[i] = MakeBulkString(arg)
	}
	return MakeCommand(cmd, vals...)
}
