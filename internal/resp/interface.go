package resp

import "io"

type Reader interface {
	ReadValue() (Value, error)
}

type Writer interface {
	WriteValue(v Value) error
	Flush() error
}

type Stream interface {
	Reader
	Writer
	io.Closer
}

// Observer is notified about traffic crossing a Conn
type Observer interface {
	BytesRead(n int)
	BytesWritten(n int)
}
