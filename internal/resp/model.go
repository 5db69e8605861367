package resp

import "bytes"

const (
	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
)

// Value is a single RESP message. Type selects which of the payload fields is meaningful.
// A null reply is a BulkString or Array with IsNull set, so the two null forms stay distinguishable
type Value struct {
	Str     []byte // SimpleString, Error, BulkString
	Array   []Value
	Integer int64
	Type    byte
	IsNull  bool // For nil BulkString and nil Array
}

// IsNil reports whether v is a null bulk string or a null array
func (v Value) IsNil() bool {
	return v.IsNull && (v.Type == TypeBulkString || v.Type == TypeArray)
}

// Text returns the payload of a string-like value as a Go string
func (v Value) Text() string {
	return string(v.Str)
}

// Equal reports whether v and other are structurally identical.
// An empty array and a null array are different values, as are a null bulk string and a null array
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type || v.IsNull != other.IsNull {
		return false
	}
	if v.IsNull {
		return true
	}

	switch v.Type {
	case TypeSimpleString, TypeError, TypeBulkString:
		return bytes.Equal(v.Str, other.Str)
	case TypeInteger:
		return v.Integer == other.Integer
	case TypeArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	}

	return false
}
