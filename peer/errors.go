package peer

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kinds of connection failure. A *ConnectionError matches its kind with
// errors.Is, so callers can test for e.g. errors.Is(err, ErrHandshake).
var (
	ErrConfig           = errors.New("invalid configuration")
	ErrResolution       = errors.New("address resolution failed")
	ErrConnect          = errors.New("connect failed")
	ErrConnectTimeout   = errors.New("connect timed out")
	ErrHandshake        = errors.New("handshake failed")
	ErrTruncatedRead    = errors.New("truncated read")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrMagicMismatch    = errors.New("network magic mismatch")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrSend             = errors.New("send failed")
	ErrNotConnected     = errors.New("not connected")
)

var (
	// ErrNoMessage is returned by UnpackMessage when no message has been
	// received since the last Pump.
	ErrNoMessage = errors.New("no message pending")

	// ErrCommandTooLong is returned by PackAndSend for a command that does
	// not fit in the message header.
	ErrCommandTooLong = errors.New("command too long")
)

// ConnectionError is an error that ends a connection, or keeps one from
// being established. Kind is one of the Err* sentinels of this package and
// Cause carries the underlying failure.
type ConnectionError struct {
	Kind  error
	Cause error
}

func (e *ConnectionError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the kind of this error.
func (e *ConnectionError) Is(target error) bool {
	return e.Kind == target
}

// newError returns a connection error of the given kind with the supplied
// message. It also records the stack trace at the point it was called.
func newError(kind error, message string) error {
	return &ConnectionError{
		Kind:  kind,
		Cause: errors.New(message),
	}
}

// errorf formats according to a format specifier and returns a connection
// error of the given kind.
func errorf(kind error, format string, args ...interface{}) error {
	return &ConnectionError{
		Kind:  kind,
		Cause: errors.Errorf(format, args...),
	}
}

// wrapf annotates err with a stack trace and the format specifier, and
// returns it as a connection error of the given kind.
func wrapf(kind error, err error, format string, args ...interface{}) error {
	return &ConnectionError{
		Kind:  kind,
		Cause: errors.Wrapf(err, format, args...),
	}
}

// asHandshakeError turns a failure that happened while handshaking into a
// handshake error, keeping the original error as its cause.
func asHandshakeError(err error) error {
	if errors.Is(err, ErrHandshake) {
		return err
	}
	return &ConnectionError{
		Kind:  ErrHandshake,
		Cause: err,
	}
}
