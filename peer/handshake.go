package peer

import (
	"time"

	"github.com/btcp2p/btcp2p/wire"
	"github.com/pkg/errors"
)

// handshake performs the version exchange: our version goes out, the peer's
// version must come back first, followed by its verack, and our verack
// completes it. Every failure is returned as an ErrHandshake error whose
// cause is the underlying failure.
func (c *Connection) handshake() error {
	err := c.sendVersion()
	if err != nil {
		return asHandshakeError(err)
	}

	err = c.receiveHandshakeMessage(wire.CmdVersion)
	if err != nil {
		return asHandshakeError(err)
	}
	err = c.decodePeerVersion()
	if err != nil {
		return asHandshakeError(err)
	}

	err = c.receiveHandshakeMessage(wire.CmdVerAck)
	if err != nil {
		return asHandshakeError(err)
	}

	err = c.PackAndSend(wire.CmdVerAck, "")
	if err != nil {
		return asHandshakeError(err)
	}
	c.releaseMessage()
	return nil
}

// sendVersion sends our version message.
func (c *Connection) sendVersion() error {
	var relay wire.Uint8
	if c.cfg.Relay {
		relay = 1
	}
	return c.PackAndSend(wire.CmdVersion, wire.VersionFormat,
		wire.Uint32(c.params.ProtocolVersion),
		wire.Uint64(c.cfg.Services),
		wire.Int64(c.cfg.Clock.Now().Unix()),
		c.addrRecv,
		c.addrFrom,
		wire.NewVarStrString(c.cfg.UserAgent),
		wire.Int32(c.cfg.StartHeight),
		relay)
}

// receiveHandshakeMessage reads the next message, which must carry the
// given command, within the handshake timeout.
func (c *Connection) receiveHandshakeMessage(command string) error {
	c.releaseMessage()

	deadline := time.Now().Add(c.cfg.HandshakeTimeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return errors.WithStack(err)
	}
	defer c.conn.SetReadDeadline(time.Time{})

	if err := c.readMessage(); err != nil {
		return err
	}
	if !c.HasMessage(command) {
		return errorf(ErrHandshake, "expected %s from %s, received %s",
			command, c, c.slot.header.Command)
	}
	log.Debugf("Received handshake %s from %s", command, c)
	return nil
}

// decodePeerVersion records what the peer announced in its version message.
// Peers may append fields we don't know about, and may omit the relay flag,
// so only the fields up to the start height are required.
func (c *Connection) decodePeerVersion() error {
	var (
		version     uint32
		services    uint64
		timestamp   int64
		addrRecv    wire.NetAddress
		addrFrom    wire.NetAddress
		nonce       uint64
		userAgent   wire.VarStr
		startHeight int32
	)
	_, err := c.UnpackMessage("ilLNNljI", &version, &services, &timestamp,
		&addrRecv, &addrFrom, &nonce, &userAgent, &startHeight)
	if err != nil {
		return errors.Wrapf(err, "malformed version message from %s", c)
	}

	c.peerVersion = PeerVersion{
		ProtocolVersion: version,
		Services:        wire.ServiceFlag(services),
		Timestamp:       timestamp,
		UserAgent:       userAgent.String(),
		StartHeight:     startHeight,
		Relay:           true,
	}

	var relay uint8
	if _, err := c.UnpackMessage("b", &relay); err == nil {
		c.peerVersion.Relay = relay != 0
	}

	log.Debugf("%s announced protocol version %d, services %s, user agent %q, "+
		"start height %d", c, version, c.peerVersion.Services,
		c.peerVersion.UserAgent, startHeight)
	return nil
}
