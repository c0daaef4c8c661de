// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDecodeUnderrun indicates that a field needed more bytes than were
	// left in the buffer.
	ErrDecodeUnderrun = errors.New("not enough bytes left to decode field")

	// ErrUnknownTag indicates a format string contains a tag outside of the
	// pack grammar.
	ErrUnknownTag = errors.New("unknown format tag")

	// ErrArgumentMismatch indicates the arguments given to Pack or Unpack do
	// not line up with the format string.
	ErrArgumentMismatch = errors.New("argument does not match format tag")

	// ErrStaleView indicates a VarStr was accessed after the buffer it was
	// decoded from had been prepared for another read or write.
	ErrStaleView = errors.New("varstr view outlived its buffer")
)

// FormatError describes a problem with a format string or with the arguments
// supplied for it. It matches ErrUnknownTag or ErrArgumentMismatch with
// errors.Is.
type FormatError struct {
	Format   string // the full format string
	Position int    // index of the offending tag, or len(Format) for a count mismatch
	Tag      byte   // the offending tag, zero for a count mismatch
	Err      error  // ErrUnknownTag or ErrArgumentMismatch
	Detail   string
}

// Error satisfies the error interface and prints human-readable errors.
func (e *FormatError) Error() string {
	if e.Tag == 0 {
		return fmt.Sprintf("format %q: %s: %s", e.Format, e.Err, e.Detail)
	}
	return fmt.Sprintf("format %q: tag '%c' at %d: %s: %s", e.Format, e.Tag,
		e.Position, e.Err, e.Detail)
}

// Unwrap returns the sentinel error describing the kind of failure.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// UnpackError describes a field that could not be decoded because the buffer
// ran out of bytes. Cursor is the buffer position that decoding reached,
// which is also the value Unpack returns alongside the error.
type UnpackError struct {
	Tag      byte
	Position int
	Cursor   int
}

// Error satisfies the error interface and prints human-readable errors.
func (e *UnpackError) Error() string {
	return fmt.Sprintf("unpack tag '%c' at %d: %s (cursor %d)", e.Tag,
		e.Position, ErrDecodeUnderrun, e.Cursor)
}

// Unwrap returns ErrDecodeUnderrun.
func (e *UnpackError) Unwrap() error {
	return ErrDecodeUnderrun
}

// MessageError describes an issue with a message header.
// An example of some potential issues are messages from the wrong
// chain, oversized commands, mismatched checksums, and exceeding max payloads.
//
// This provides a mechanism for the caller to type assert the error to
// differentiate between general io errors such as io.EOF and issues that
// resulted from malformed messages.
type MessageError struct {
	Func        string // Function name
	Description string // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e *MessageError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("%s: %s", e.Func, e.Description)
	}
	return e.Description
}

// messageError creates an error for the given function and description.
func messageError(f string, desc string) *MessageError {
	return &MessageError{Func: f, Description: desc}
}
