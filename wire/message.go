// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcp2p/btcp2p/util/binaryserializer"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// MessageHeaderSize is the number of bytes in a bitcoin message header.
// Bitcoin network (magic) 4 bytes + command 12 bytes + payload length 4 bytes +
// checksum 4 bytes.
const MessageHeaderSize = 24

// CommandSize is the fixed size of all commands in the common bitcoin message
// header. Shorter commands must be zero padded.
const CommandSize = 12

// ChecksumSize is the number of bytes of the payload's double sha256 that
// are carried in the message header.
const ChecksumSize = 4

// MaxMessagePayload is the maximum bytes a message can be regardless of other
// individual limits imposed by messages themselves.
const MaxMessagePayload = 1024 * 1024 * 32 // 32MB

// Commands used in bitcoin message headers which describe the type of message.
const (
	CmdVersion = "version"
	CmdVerAck  = "verack"
	CmdPing    = "ping"
	CmdPong    = "pong"
)

// MessageHeader defines the header structure for all bitcoin protocol messages.
type MessageHeader struct {
	Magic    BitcoinNet // 4 bytes
	Command  string     // 12 bytes
	Length   uint32     // 4 bytes
	Checksum [ChecksumSize]byte
}

// String returns the header in human-readable form.
func (h *MessageHeader) String() string {
	return fmt.Sprintf("%s command=%s length=%d checksum=%x", h.Magic,
		h.Command, h.Length, h.Checksum)
}

// NewMessageHeader returns the header that frames payload as a message with
// the given command on the given network.
func NewMessageHeader(magic BitcoinNet, command string, payload []byte) *MessageHeader {
	return &MessageHeader{
		Magic:    magic,
		Command:  command,
		Length:   uint32(len(payload)),
		Checksum: Checksum(payload),
	}
}

// Checksum returns the first four bytes of the double sha256 of payload. An
// empty payload still hashes the empty input.
func Checksum(payload []byte) [ChecksumSize]byte {
	var checksum [ChecksumSize]byte
	copy(checksum[:], chainhash.DoubleHashB(payload)[:ChecksumSize])
	return checksum
}

// ReadMessageHeader reads a bitcoin message header from r.
func ReadMessageHeader(r io.Reader) (*MessageHeader, error) {
	var hdr MessageHeader

	magic, err := binaryserializer.Uint32(r, littleEndian)
	if err != nil {
		return nil, err
	}
	hdr.Magic = BitcoinNet(magic)

	var command [CommandSize]byte
	if _, err := io.ReadFull(r, command[:]); err != nil {
		return nil, errors.WithStack(err)
	}
	// Strip trailing zeros from command string.
	hdr.Command = string(bytes.TrimRight(command[:], "\x00"))

	hdr.Length, err = binaryserializer.Uint32(r, littleEndian)
	if err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(r, hdr.Checksum[:]); err != nil {
		return nil, errors.WithStack(err)
	}
	return &hdr, nil
}

// WriteMessageHeader serializes hdr to w. Commands longer than CommandSize
// are rejected before anything is written.
func WriteMessageHeader(w io.Writer, hdr *MessageHeader) error {
	if len(hdr.Command) > CommandSize {
		str := fmt.Sprintf("command [%s] is too long [max %d]",
			hdr.Command, CommandSize)
		return messageError("WriteMessageHeader", str)
	}

	// Enforce max message payload.
	if hdr.Length > MaxMessagePayload {
		str := fmt.Sprintf("message payload is too large - header "+
			"indicates %d bytes, but max message payload is %d "+
			"bytes.", hdr.Length, MaxMessagePayload)
		return messageError("WriteMessageHeader", str)
	}

	var command [CommandSize]byte
	copy(command[:], hdr.Command)

	err := binaryserializer.PutUint32(w, littleEndian, uint32(hdr.Magic))
	if err != nil {
		return err
	}
	if _, err := w.Write(command[:]); err != nil {
		return errors.WithStack(err)
	}
	err = binaryserializer.PutUint32(w, littleEndian, hdr.Length)
	if err != nil {
		return err
	}
	_, err = w.Write(hdr.Checksum[:])
	return errors.WithStack(err)
}
