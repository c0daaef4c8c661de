package peer

import (
	"bytes"
	"io"
	"net"
	"time"

	"github.com/btcp2p/btcp2p/infrastructure/logger"
	"github.com/btcp2p/btcp2p/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

// Pump waits up to the poll timeout for the peer to start sending a message.
// If nothing arrives it returns nil and HasMessage reports false. Otherwise it
// reads the whole message, validates it and makes it available through
// HasMessage, Message and UnpackMessage until the next call.
//
// Any error returned is fatal: the connection must be disconnected.
func (c *Connection) Pump() error {
	if err := c.usable(); err != nil {
		return err
	}
	c.releaseMessage()

	ready, err := c.poll()
	if err != nil {
		return c.fail(err)
	}
	if !ready {
		return nil
	}

	if err := c.readMessage(); err != nil {
		return c.fail(err)
	}
	return nil
}

// poll reports whether at least one byte of a message is ready to be read,
// waiting at most the poll timeout for it.
func (c *Connection) poll() (bool, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PollTimeout)); err != nil {
		return false, wrapf(ErrTruncatedRead, err, "setting read deadline")
	}
	_, err := c.reader.Peek(1)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return false, nil
		}
		return false, wrapf(ErrTruncatedRead, err, "waiting for a message from %s", c)
	}
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return false, wrapf(ErrTruncatedRead, err, "clearing read deadline")
	}
	return true, nil
}

// readMessage reads exactly one message into the message slot: the fixed
// size header, then the number of payload bytes it announces. The network
// magic, the payload size and the checksum are all checked before the
// message is exposed.
func (c *Connection) readMessage() error {
	n, err := io.ReadFull(c.reader, c.headerBuf[:])
	c.bytesReceived += uint64(n)
	if err != nil {
		return wrapf(ErrTruncatedRead, err, "reading header from %s (%d of %d bytes)",
			c, n, wire.MessageHeaderSize)
	}
	hdr, err := wire.ReadMessageHeader(bytes.NewReader(c.headerBuf[:]))
	if err != nil {
		return wrapf(ErrTruncatedRead, err, "decoding header from %s", c)
	}

	if hdr.Magic != c.params.Net {
		return errorf(ErrMagicMismatch, "message from %s is for %s, expected %s",
			c, hdr.Magic, c.params.Net)
	}
	if hdr.Length > wire.MaxMessagePayload {
		return errorf(ErrPayloadTooLarge, "%s message from %s announces %d bytes, "+
			"max %d", hdr.Command, c, hdr.Length, wire.MaxMessagePayload)
	}

	payload := c.slot.payload.PrepareCopy(int(hdr.Length))
	n, err = io.ReadFull(c.reader, payload)
	c.bytesReceived += uint64(n)
	if err != nil {
		return wrapf(ErrTruncatedRead, err, "reading %s payload from %s (%d of %d bytes)",
			hdr.Command, c, n, hdr.Length)
	}

	checksum := wire.Checksum(payload)
	if checksum != hdr.Checksum {
		log.Errorf("Checksum mismatch on %s message from %s: expected %x, got %x",
			hdr.Command, c, hdr.Checksum, checksum)
		return errorf(ErrChecksumMismatch, "%s message from %s: header says %x, "+
			"payload hashes to %x", hdr.Command, c, hdr.Checksum, checksum)
	}

	c.slot.header = *hdr
	c.slot.state = slotPending
	c.cfg.Metrics.received(hdr.Command, wire.MessageHeaderSize+len(payload))

	log.Debugf("Received %s (%d bytes) from %s", hdr.Command, len(payload), c)
	log.Tracef("%s", logger.NewLogClosure(func() string {
		return spew.Sdump(payload)
	}))
	return nil
}
