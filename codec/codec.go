// Package codec converts values to and from their stored text form. Besides
// whole-value Marshal and Unmarshal, a Codec gives token level access through
// a Reader and a Writer so composite values can be streamed one element at a
// time.
package codec

import (
	"fmt"
	"io"
)

// A Codec turns values into text and back. Values are encoded using their
// dynamic type; decoding is driven by the type of the target passed in.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	NewReader(data []byte) Reader
	NewWriter(w io.Writer) Writer
}

// A Reader walks an encoded value token by token.
type Reader interface {
	// BeginArray consumes the start of an array.
	BeginArray() error
	// HasNext reports whether the current array or object has more
	// elements.
	HasNext() bool
	EndArray() error
	BeginObject() error
	// NextName returns the name of the next object member. The member's
	// value is read with Decode.
	NextName() (string, error)
	EndObject() error
	// Decode reads the next complete value into v.
	Decode(v interface{}) error
	// End returns an error if anything other than white space follows the
	// value that was read.
	End() error
}

// A Writer produces an encoded value token by token. Nothing is guaranteed
// to reach the underlying io.Writer until Flush is called.
type Writer interface {
	BeginArray() error
	EndArray() error
	BeginObject() error
	// Name starts an object member. It must be followed by exactly one
	// Encode, BeginArray or BeginObject.
	Name(name string) error
	// Encode writes v as the next value.
	Encode(v interface{}) error
	EndObject() error
	Flush() error
}

// A TokenError means the input held a well formed token other than the one
// the caller asked for, e.g. an object where an array was expected.
type TokenError struct {
	Expected string
	Got      string
	Offset   int64 // input offset just after the unexpected token
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("expected %s but found %s at offset %d", e.Expected, e.Got, e.Offset)
}
