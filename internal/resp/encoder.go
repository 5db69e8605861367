package resp

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
)

// AppendValue appends the wire form of v to dst and returns the extended slice.
// It allocates only when dst has to grow
func AppendValue(dst []byte, v Value) ([]byte, error) {
	switch v.Type {
	case TypeInteger:
		return appendHeader(dst, TypeInteger, v.Integer), nil

	case TypeSimpleString, TypeError:
		if bytes.ContainsAny(v.Str, "\r\n") {
			return dst, ErrInvalidSimple
		}
		dst = append(dst, v.Type)
		dst = append(dst, v.Str...)
		return append(dst, crlf...), nil

	case TypeBulkString:
		if v.IsNull {
			return append(dst, "$-1\r\n"...), nil
		}
		dst = appendHeader(dst, TypeBulkString, int64(len(v.Str)))
		dst = append(dst, v.Str...)
		return append(dst, crlf...), nil

	case TypeArray:
		if v.IsNull {
			return append(dst, "*-1\r\n"...), nil
		}
		dst = appendHeader(dst, TypeArray, int64(len(v.Array)))
		var err error
		for _, el := range v.Array {
			if dst, err = AppendValue(dst, el); err != nil {
				return dst, err
			}
		}
		return dst, nil
	}

	return dst, ErrUnknownType
}

// Encode returns the wire form of v
func Encode(v Value) ([]byte, error) {
	return AppendValue(nil, v)
}

// appendHeader writes the type prefix, numeric value, and CRLF
func appendHeader(dst []byte, prefix byte, n int64) []byte {
	dst = append(dst, prefix)
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, crlf...)
}

// Encoder handles the serialization of RESP Value objects into an output stream
type Encoder struct {
	writer  *bufio.Writer
	scratch []byte
}

// NewEncoder initializes an Encoder with a buffered writer
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		writer: bufio.NewWriter(w),
	}
}

// Write serializes a RESP Value into the buffer. Nothing reaches the
// underlying stream before Flush unless the buffer fills up.
// A Value that fails to encode leaves the stream untouched
func (e *Encoder) Write(v Value) error {
	var err error
	if e.scratch, err = AppendValue(e.scratch[:0], v); err != nil {
		return err
	}

	_, err = e.writer.Write(e.scratch)
	return err
}

// Flush writes any buffered data to the underlying stream
func (e *Encoder) Flush() error {
	return e.writer.Flush()
}

// Buffered returns the number of bytes waiting for Flush
func (e *Encoder) Buffered() int {
	return e.writer.Buffered()
}
