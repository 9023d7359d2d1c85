package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSON is the Codec using encoding/json. The zero value is ready to use.
type JSON struct{}

var _ Codec = JSON{}

// Marshal encodes v using its dynamic type.
func (JSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes data into v, which must be a pointer.
func (JSON) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// NewReader returns a Reader over data.
func (JSON) NewReader(data []byte) Reader {
	dec := json.NewDecoder(bytes.NewReader(data))
	return &jsonReader{dec: dec}
}

// NewWriter returns a Writer producing compact JSON on w.
func (JSON) NewWriter(w io.Writer) Writer {
	return &jsonWriter{w: bufio.NewWriter(w)}
}

type jsonReader struct {
	dec *json.Decoder
}

// expect reads the next token and checks that it is the delimiter d.
func (r *jsonReader) expect(d json.Delim) error {
	tok, err := r.dec.Token()
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	} else if err != nil {
		return err
	}
	if tok != d {
		return &TokenError{
			Expected: "'" + d.String() + "'",
			Got:      describe(tok),
			Offset:   r.dec.InputOffset(),
		}
	}
	return nil
}

func (r *jsonReader) BeginArray() error  { return r.expect('[') }
func (r *jsonReader) EndArray() error    { return r.expect(']') }
func (r *jsonReader) BeginObject() error { return r.expect('{') }
func (r *jsonReader) EndObject() error   { return r.expect('}') }

func (r *jsonReader) HasNext() bool {
	return r.dec.More()
}

func (r *jsonReader) NextName() (string, error) {
	tok, err := r.dec.Token()
	if err == io.EOF {
		return "", io.ErrUnexpectedEOF
	} else if err != nil {
		return "", err
	}
	name, ok := tok.(string)
	if !ok {
		return "", &TokenError{
			Expected: "member name",
			Got:      describe(tok),
			Offset:   r.dec.InputOffset(),
		}
	}
	return name, nil
}

func (r *jsonReader) Decode(v interface{}) error {
	err := r.dec.Decode(v)
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (r *jsonReader) End() error {
	tok, err := r.dec.Token()
	if err == io.EOF {
		return nil
	} else if err != nil {
		return err
	}
	return &TokenError{
		Expected: "end of input",
		Got:      describe(tok),
		Offset:   r.dec.InputOffset(),
	}
}

// describe names a token for error messages.
func describe(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		return "'" + t.String() + "'"
	case string:
		return fmt.Sprintf("string %q", t)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T %v", t, t)
	}
}

// scope is one level of nesting in a jsonWriter.
type scope struct {
	object  bool // false means array
	count   int  // number of values written so far
	inValue bool // in an object, a name has been written
}

type jsonWriter struct {
	w     *bufio.Writer
	stack []scope
	done  bool // a complete top level value has been written
}

var (
	errNameOutsideObject = errors.New("codec: member name outside of an object")
	errValueNeedsName    = errors.New("codec: object member without a name")
	errUnbalanced        = errors.New("codec: unbalanced array or object")
	errSecondValue       = errors.New("codec: more than one top level value")
)

// beforeValue writes any separator a new value needs and updates the state
// of the enclosing scope.
func (w *jsonWriter) beforeValue() error {
	if len(w.stack) == 0 {
		if w.done {
			return errSecondValue
		}
		return nil
	}
	top := &w.stack[len(w.stack)-1]
	if top.object {
		if !top.inValue {
			return errValueNeedsName
		}
		top.inValue = false
		top.count++
		return nil
	}
	if top.count > 0 {
		if err := w.w.WriteByte(','); err != nil {
			return err
		}
	}
	top.count++
	return nil
}

// afterValue marks the top level value as done when nothing is open.
func (w *jsonWriter) afterValue() {
	if len(w.stack) == 0 {
		w.done = true
	}
}

func (w *jsonWriter) begin(object bool, delim byte) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.stack = append(w.stack, scope{object: object})
	return w.w.WriteByte(delim)
}

func (w *jsonWriter) end(object bool, delim byte) error {
	if len(w.stack) == 0 {
		return errUnbalanced
	}
	top := w.stack[len(w.stack)-1]
	if top.object != object || top.inValue {
		return errUnbalanced
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.afterValue()
	return w.w.WriteByte(delim)
}

func (w *jsonWriter) BeginArray() error  { return w.begin(false, '[') }
func (w *jsonWriter) EndArray() error    { return w.end(false, ']') }
func (w *jsonWriter) BeginObject() error { return w.begin(true, '{') }
func (w *jsonWriter) EndObject() error   { return w.end(true, '}') }

func (w *jsonWriter) Name(name string) error {
	if len(w.stack) == 0 {
		return errNameOutsideObject
	}
	top := &w.stack[len(w.stack)-1]
	if !top.object {
		return errNameOutsideObject
	}
	if top.inValue {
		return errValueNeedsName
	}
	b, err := json.Marshal(name)
	if err != nil {
		return err
	}
	if top.count > 0 {
		if err := w.w.WriteByte(','); err != nil {
			return err
		}
	}
	top.inValue = true
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte(':')
}

func (w *jsonWriter) Encode(v interface{}) error {
	// marshal first so a failure leaves the output untouched
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := w.beforeValue(); err != nil {
		return err
	}
	_, err = w.w.Write(b)
	w.afterValue()
	return err
}

// Flush writes out any buffered output. It is an error to flush while an
// array or object is still open.
func (w *jsonWriter) Flush() error {
	if len(w.stack) != 0 {
		return errUnbalanced
	}
	return w.w.Flush()
}
