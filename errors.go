package objectstore

import (
	"fmt"

	"github.com/pkg/errors"
)

// A StorageError means the backing store failed: an I/O error, a lost
// connection, a full disk.
type StorageError struct {
	Op  string // the engine operation, e.g. "store" or "fillMap"
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("objectstore: %s %q: storage: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors find the underlying error.
func (e *StorageError) Cause() error { return cause(e.Err, "storage error") }

// A DecodeError means the stored text does not have the shape of the type it
// is being decoded into.
type DecodeError struct {
	Op  string
	ID  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("objectstore: %s %q: decode: %v", e.Op, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Cause() error { return cause(e.Err, "decode error") }

// An EncodeError means a value could not be turned into text, e.g. it holds
// a channel or a function. Nothing is written when it happens.
type EncodeError struct {
	Op  string
	ID  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("objectstore: %s %q: encode: %v", e.Op, e.ID, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Cause() error { return cause(e.Err, "encode error") }

// A ProtocolError means a stored map entry is not an object holding exactly
// the members "key" and "value", in that order.
type ProtocolError struct {
	Op     string
	ID     string
	Index  int    // position of the bad entry in the stored array
	Reason string // what was wrong with it
	Err    error  // the codec error, if there was one
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("objectstore: %s %q: map entry %d: %s", e.Op, e.ID, e.Index, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Cause returns the codec error, or an error holding Reason when the entry
// was well formed but had the wrong member names.
func (e *ProtocolError) Cause() error { return cause(e.Err, e.Reason) }

// cause never returns nil. errors.Cause hands its result to code, such as
// Sentry reporting, which does not expect nil.
func cause(err error, msg string) error {
	if err == nil {
		return errors.New(msg)
	}
	return err
}

// IsStorageError reports whether err is, or wraps, a *StorageError.
func IsStorageError(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsEncodeError reports whether err is, or wraps, an *EncodeError.
func IsEncodeError(err error) bool {
	var target *EncodeError
	return errors.As(err, &target)
}

// IsProtocolError reports whether err is, or wraps, a *ProtocolError.
func IsProtocolError(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}
