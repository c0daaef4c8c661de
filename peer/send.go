package peer

import (
	"bytes"
	"fmt"
	"net"

	"github.com/btcp2p/btcp2p/infrastructure/logger"
	"github.com/btcp2p/btcp2p/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

// PackAndSend packs values into a payload according to format (see
// wire.Pack), frames it as a message with the given command and writes it
// to the peer.
//
// A bad command, format or value is reported without affecting the
// connection. A failed write is fatal: the connection must be
// disconnected.
func (c *Connection) PackAndSend(command string, format string, values ...wire.Value) error {
	if err := c.usable(); err != nil {
		return err
	}
	if len(command) > wire.CommandSize {
		return errors.Wrapf(ErrCommandTooLong, "command %q is %d bytes, max %d",
			command, len(command), wire.CommandSize)
	}

	c.writeBuf.PrepareWrite()
	if _, err := wire.Pack(c.writeBuf, format, values...); err != nil {
		return err
	}
	return c.send(command, c.writeBuf.Bytes())
}

// send frames payload and writes the header and the payload in full.
func (c *Connection) send(command string, payload []byte) error {
	hdr := wire.NewMessageHeader(c.params.Net, command, payload)
	var header bytes.Buffer
	if err := wire.WriteMessageHeader(&header, hdr); err != nil {
		return err
	}

	log.Debugf("%s", logger.NewLogClosure(func() string {
		return fmt.Sprintf("Sending %s (%d bytes) to %s", command,
			len(payload), c)
	}))
	log.Tracef("%s", logger.NewLogClosure(func() string {
		return spew.Sdump(payload)
	}))

	buffers := net.Buffers{header.Bytes(), payload}
	n, err := buffers.WriteTo(c.conn)
	c.bytesSent += uint64(n)
	if err != nil {
		return c.fail(wrapf(ErrSend, err, "sending %s to %s", command, c))
	}
	c.cfg.Metrics.sent(command, int(n))
	return nil
}
