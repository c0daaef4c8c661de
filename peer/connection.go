// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"bufio"
	"fmt"
	"net"
	"strconv"

	"github.com/btcp2p/btcp2p/chaincfg"
	"github.com/btcp2p/btcp2p/wire"
	"github.com/btcsuite/go-socks/socks"
	"github.com/pkg/errors"
)

// PeerVersion is what the remote peer announced about itself in its version
// message.
type PeerVersion struct {
	ProtocolVersion uint32
	Services        wire.ServiceFlag
	Timestamp       int64
	UserAgent       string
	StartHeight     int32
	Relay           bool
}

// Connection is an outbound connection to a single bitcoin peer. It is driven
// entirely by its caller: messages are sent with PackAndSend and received one
// at a time by calling Pump.
//
// A Connection is not safe for concurrent use.
type Connection struct {
	cfg    Config
	params *chaincfg.Params

	conn   net.Conn
	reader *bufio.Reader
	addr   string
	state  State

	addrRecv    *wire.NetAddress
	addrFrom    *wire.NetAddress
	peerVersion PeerVersion

	writeBuf  *wire.CheckedBuffer
	headerBuf [wire.MessageHeaderSize]byte
	slot      messageSlot

	bytesSent     uint64
	bytesReceived uint64

	// failure is the fatal error that ended the connection, if any.
	failure error
}

// Connect dials the peer described by cfg and performs the version
// handshake with it. The returned Connection is established; on any failure
// the socket is closed and a *ConnectionError describing the failure is
// returned.
func Connect(cfg *Config) (*Connection, error) {
	if cfg == nil {
		return nil, newError(ErrConfig, "nil config")
	}
	fullCfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	c := &Connection{
		cfg:      fullCfg,
		params:   fullCfg.Params,
		state:    StateConnecting,
		writeBuf: wire.NewCheckedBuffer(),
		slot:     messageSlot{payload: wire.NewCheckedBuffer()},
	}

	start := c.cfg.Clock.Now()
	err = c.connect()
	if err != nil {
		if c.failure == nil {
			c.cfg.Metrics.failed(err)
		}
		c.release()
		return nil, err
	}
	c.cfg.Metrics.handshakeDone(c.cfg.Clock.Now().Sub(start).Seconds())

	log.Infof("Connected to %s (%s, user agent %q)", c, c.params.Name,
		c.peerVersion.UserAgent)
	return c, nil
}

// connect runs every step of Connect after the configuration is settled.
func (c *Connection) connect() error {
	addr, err := c.resolveAddress()
	if err != nil {
		return err
	}
	c.addr = addr

	log.Debugf("Dialing %s with a %s timeout", addr, c.cfg.ConnectTimeout)
	conn, err := c.cfg.Dial("tcp", addr, c.cfg.ConnectTimeout)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			log.Errorf("Timed out connecting to %s: %s", addr, err)
			return wrapf(ErrConnectTimeout, err, "dial %s", addr)
		}
		log.Errorf("Failed to connect to %s: %s", addr, err)
		return wrapf(ErrConnect, err, "dial %s", addr)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)

	// The local address is announced as loopback on the network's port,
	// the remote one as whatever the socket connected to.
	port, err := strconv.ParseUint(c.params.DefaultPort, 10, 16)
	if err != nil {
		return wrapf(ErrConfig, err, "default port %q", c.params.DefaultPort)
	}
	c.addrRecv = wire.NewNetAddressIPPort(net.IPv4(127, 0, 0, 1), uint16(port),
		c.cfg.Services)
	c.addrFrom, err = newNetAddress(conn.RemoteAddr(), 0)
	if err != nil {
		return wrapf(ErrConnect, err, "remote address %s", conn.RemoteAddr())
	}

	c.state = StateHandshaking
	err = c.handshake()
	if err != nil {
		return err
	}
	c.state = StateEstablished
	return nil
}

// resolveAddress turns the configured address into a "host:port" to dial.
// Without a proxy, host names are resolved here so resolution failures are
// told apart from connection failures; with one, the proxy resolves them.
func (c *Connection) resolveAddress() (string, error) {
	host, port, err := net.SplitHostPort(c.cfg.Address)
	if err != nil {
		host, port = c.cfg.Address, c.params.DefaultPort
	}
	if host == "" {
		return "", errorf(ErrConfig, "no host in address %q", c.cfg.Address)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", wrapf(ErrConfig, err, "invalid port in address %q", c.cfg.Address)
	}

	if c.cfg.Proxy != nil || net.ParseIP(host) != nil {
		return net.JoinHostPort(host, port), nil
	}

	ips, err := c.cfg.Lookup(host)
	if err != nil {
		log.Errorf("Failed to resolve %s: %s", host, err)
		return "", wrapf(ErrResolution, err, "lookup %s", host)
	}
	if len(ips) == 0 {
		return "", errorf(ErrResolution, "no addresses found for %s", host)
	}
	return net.JoinHostPort(ips[0].String(), port), nil
}

// newNetAddress attempts to extract the IP address and port from the passed
// net.Addr interface and create a NetAddress structure using that information.
func newNetAddress(addr net.Addr, services wire.ServiceFlag) (*wire.NetAddress, error) {
	// addr will be a net.TCPAddr when not using a proxy.
	if tcpAddr, ok := addr.(*net.TCPAddr); ok {
		ip := tcpAddr.IP
		port := uint16(tcpAddr.Port)
		na := wire.NewNetAddressIPPort(ip, port, services)
		return na, nil
	}

	// addr will be a socks.ProxiedAddr when using a proxy.
	if proxiedAddr, ok := addr.(*socks.ProxiedAddr); ok {
		ip := net.ParseIP(proxiedAddr.Host)
		if ip == nil {
			ip = net.ParseIP("0.0.0.0")
		}
		port := uint16(proxiedAddr.Port)
		na := wire.NewNetAddressIPPort(ip, port, services)
		return na, nil
	}

	// For the most part, addr should be one of the two above cases, but
	// to be safe, fall back to trying to parse the information from the
	// address string as a last resort.
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	ip := net.ParseIP(host)
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	na := wire.NewNetAddressIPPort(ip, uint16(port), services)
	return na, nil
}

// Disconnect closes the connection and releases its buffers. Calling it
// again, or on a connection that failed, is harmless and returns nil.
func (c *Connection) Disconnect() error {
	if c.conn == nil {
		c.state = StateDisconnected
		return nil
	}
	log.Debugf("Disconnecting %s", c)
	err := c.conn.Close()
	c.conn = nil
	c.release()
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// release drops the socket and the buffers.
func (c *Connection) release() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.reader = nil
	c.state = StateDisconnected
	c.writeBuf = nil
	c.slot = messageSlot{}
}

// fail records err as the reason the connection is no longer usable, and
// returns it. The socket stays open until Disconnect.
func (c *Connection) fail(err error) error {
	c.failure = err
	c.state = StateDisconnected
	c.cfg.Metrics.failed(err)
	log.Errorf("Connection to %s failed: %s", c, err)
	return err
}

// usable returns an error unless the connection may carry messages. The
// handshake sends and receives while still handshaking.
func (c *Connection) usable() error {
	if c.state == StateEstablished || c.state == StateHandshaking {
		return nil
	}
	if c.failure != nil {
		return wrapf(ErrNotConnected, c.failure, "connection to %s", c)
	}
	return errorf(ErrNotConnected, "connection to %s is %s", c, c.state)
}

// State returns the lifecycle state of the connection.
func (c *Connection) State() State {
	return c.state
}

// Params returns the network parameters the connection was made with.
func (c *Connection) Params() *chaincfg.Params {
	return c.params
}

// RemoteAddr returns the "host:port" that was dialed.
func (c *Connection) RemoteAddr() string {
	return c.addr
}

// PeerVersion returns what the peer announced in its version message.
func (c *Connection) PeerVersion() PeerVersion {
	return c.peerVersion
}

// AddrRecv returns the receiving address announced in our version message.
func (c *Connection) AddrRecv() *wire.NetAddress {
	return c.addrRecv
}

// AddrFrom returns the sending address announced in our version message.
func (c *Connection) AddrFrom() *wire.NetAddress {
	return c.addrFrom
}

// BytesSent returns the number of bytes written to the peer, headers
// included.
func (c *Connection) BytesSent() uint64 {
	return c.bytesSent
}

// BytesReceived returns the number of bytes read from the peer, headers
// included.
func (c *Connection) BytesReceived() uint64 {
	return c.bytesReceived
}

// String returns the peer's address as a human-readable string.
func (c *Connection) String() string {
	return fmt.Sprintf("%s (outbound)", c.addr)
}
