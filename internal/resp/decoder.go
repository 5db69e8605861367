package resp

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"unicode/utf8"
)

const (
	// DefaultMaxDepth bounds array nesting
	DefaultMaxDepth = 128
	// DefaultMaxBulkLen matches the proto-max-bulk-len default of Redis
	DefaultMaxBulkLen = 512 * 1024 * 1024
	// DefaultMaxArrayLen bounds the element count of a single array
	DefaultMaxArrayLen = 1024 * 1024
	// DefaultMaxLineLen bounds simple strings, errors, integers and length headers
	DefaultMaxLineLen = 64 * 1024
)

var crlf = []byte("\r\n")

// Decoder turns buffered bytes into Values. It keeps no state between calls,
// so it is safe for concurrent use. A zero limit disables that check
type Decoder struct {
	MaxDepth    int
	MaxBulkLen  int64
	MaxArrayLen int64
	MaxLineLen  int
}

// NewDecoder returns a Decoder with the default limits
func NewDecoder() *Decoder {
	return &Decoder{
		MaxDepth:    DefaultMaxDepth,
		MaxBulkLen:  DefaultMaxBulkLen,
		MaxArrayLen: DefaultMaxArrayLen,
		MaxLineLen:  DefaultMaxLineLen,
	}
}

var defaultDecoder = NewDecoder()

// Decode parses one frame from the start of buf using the default limits.
// See Decoder.Decode
func Decode(buf []byte) (Value, int, error) {
	return defaultDecoder.Decode(buf)
}

// Decode attempts to parse exactly one top-level frame from the start of buf.
//
// On success it returns the value and the number of bytes it occupied.
// If buf holds only a prefix of a frame it returns ErrIncomplete and, in place of
// the consumed count, the smallest buffer length that may let the next attempt progress.
// Malformed input yields a *ProtocolError.
// The returned Value never aliases buf
func (d *Decoder) Decode(buf []byte) (Value, int, error) {
	p := parser{dec: d, buf: buf}

	v, err := p.value(0)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			return Value{}, p.need, ErrIncomplete
		}
		return Value{}, 0, err
	}

	return v, p.pos, nil
}

// parser is a cursor over one Decode call
type parser struct {
	dec  *Decoder
	buf  []byte
	pos  int
	need int
}

func (p *parser) incomplete(need int) error {
	if need <= len(p.buf) {
		need = len(p.buf) + 1
	}
	p.need = need
	return ErrIncomplete
}

func (p *parser) value(depth int) (Value, error) {
	if p.pos >= len(p.buf) {
		return Value{}, p.incomplete(p.pos + 1)
	}

	switch p.buf[p.pos] {
	case TypeSimpleString, TypeError:
		return p.simple()
	case TypeInteger:
		return p.integer()
	case TypeBulkString:
		return p.bulk()
	case TypeArray:
		return p.array(depth)
	}

	return Value{}, protocolErrorf(p.pos, "unknown frame type %q, expected one of '+', '-', ':', '$', '*'", p.buf[p.pos])
}

// line consumes the type byte and returns the bytes up to the next CRLF
func (p *parser) line() ([]byte, int, error) {
	start := p.pos + 1

	idx := bytes.Index(p.buf[start:], crlf)
	if idx < 0 {
		// a trailing CR may be the first half of the terminator
		n := len(p.buf) - start
		if n > 0 && p.buf[len(p.buf)-1] == '\r' {
			n--
		}
		if p.dec.MaxLineLen > 0 && n > p.dec.MaxLineLen {
			return nil, start, protocolErrorf(start, "line exceeds %d bytes", p.dec.MaxLineLen)
		}
		return nil, start, p.incomplete(len(p.buf) + 1)
	}

	if p.dec.MaxLineLen > 0 && idx > p.dec.MaxLineLen {
		return nil, start, protocolErrorf(start, "line exceeds %d bytes", p.dec.MaxLineLen)
	}

	p.pos = start + idx + len(crlf)
	return p.buf[start : start+idx], start, nil
}

func (p *parser) simple() (Value, error) {
	tag := p.buf[p.pos]

	line, offset, err := p.line()
	if err != nil {
		return Value{}, err
	}

	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		return Value{}, protocolErrorf(offset+i, "line contains a bare CR or LF")
	}
	if !utf8.Valid(line) {
		return Value{}, protocolErrorf(offset, "line is not valid UTF-8")
	}

	return Value{Type: tag, Str: bytes.Clone(line)}, nil
}

func (p *parser) integer() (Value, error) {
	line, offset, err := p.line()
	if err != nil {
		return Value{}, err
	}

	n, err := parseInt(line)
	if err != nil {
		return Value{}, protocolErrorf(offset, "invalid integer %q: %s", line, err)
	}

	return MakeInteger(n), nil
}

// length reads a bulk or multibulk header. It returns -1 for the null form
func (p *parser) length(kind string) (int64, error) {
	line, offset, err := p.line()
	if err != nil {
		return 0, err
	}

	n, err := parseLength(line)
	if err != nil {
		return 0, protocolErrorf(offset, "invalid %s length %q: %s", kind, line, err)
	}

	return n, nil
}

func (p *parser) bulk() (Value, error) {
	offset := p.pos

	n, err := p.length("bulk")
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return MakeNilBulkString(), nil
	}
	if p.dec.MaxBulkLen > 0 && n > p.dec.MaxBulkLen {
		return Value{}, protocolErrorf(offset, "bulk length %d exceeds limit %d", n, p.dec.MaxBulkLen)
	}

	// the payload must be present in full, terminator included
	if n > int64(len(p.buf)-p.pos-len(crlf)) {
		return Value{}, p.incomplete(addLen(p.pos+len(crlf), n))
	}

	end := p.pos + int(n)
	if p.buf[end] != '\r' || p.buf[end+1] != '\n' {
		return Value{}, protocolErrorf(end, "expected CRLF after %d byte bulk payload", n)
	}

	payload := make([]byte, n)
	copy(payload, p.buf[p.pos:end])
	p.pos = end + len(crlf)

	return Value{Type: TypeBulkString, Str: payload}, nil
}

func (p *parser) array(depth int) (Value, error) {
	offset := p.pos
	if p.dec.MaxDepth > 0 && depth >= p.dec.MaxDepth {
		return Value{}, protocolErrorf(offset, "array nesting exceeds %d levels", p.dec.MaxDepth)
	}

	n, err := p.length("multibulk")
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return MakeNilArray(), nil
	}
	if p.dec.MaxArrayLen > 0 && n > p.dec.MaxArrayLen {
		return Value{}, protocolErrorf(offset, "multibulk length %d exceeds limit %d", n, p.dec.MaxArrayLen)
	}

	// n comes from the peer, so don't trust it for the preallocation
	elems := make([]Value, 0, min(n, 64))
	for i := int64(0); i < n; i++ {
		el, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, el)
	}

	return MakeArray(elems), nil
}

// parseInt parses a signed decimal with an optional leading sign
func parseInt(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, errors.New("empty")
	}

	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			if errors.Is(numErr.Err, strconv.ErrRange) {
				return 0, errors.New("out of int64 range")
			}
			return 0, errors.New("not a decimal number")
		}
		return 0, err
	}

	return n, nil
}

// parseLength accepts -1 or plain digits: no sign, no leading zeros
func parseLength(b []byte) (int64, error) {
	if string(b) == "-1" {
		return -1, nil
	}
	if len(b) == 0 {
		return 0, errors.New("empty")
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, errors.New("not a decimal number")
		}
	}
	if len(b) > 1 && b[0] == '0' {
		return 0, errors.New("leading zero")
	}

	return parseInt(b)
}

// addLen returns pos+n clamped to math.MaxInt
func addLen(pos int, n int64) int {
	if n > int64(math.MaxInt-pos) {
		return math.MaxInt
	}
	return pos + int(n)
}
