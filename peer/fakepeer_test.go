package peer

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/btcp2p/btcp2p/chaincfg"
	"github.com/btcp2p/btcp2p/wire"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testTime = time.Date(2009, time.January, 3, 12, 0, 0, 0, time.UTC)

const fakePeerUserAgent = "/Satoshi:0.20.1/"

// fakePeer is the remote end of a test connection. It accepts a single
// connection and speaks the wire protocol by hand.
type fakePeer struct {
	t        *testing.T
	listener net.Listener
	magic    wire.BitcoinNet
	group    errgroup.Group
	done     chan struct{}
}

func newFakePeer(t *testing.T) *fakePeer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return &fakePeer{
		t:        t,
		listener: listener,
		magic:    chaincfg.RegtestParams.Net,
		done:     make(chan struct{}),
	}
}

// config returns a connection config that dials the fake peer.
func (p *fakePeer) config() *Config {
	return &Config{
		Params:           &chaincfg.RegtestParams,
		Address:          p.listener.Addr().String(),
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		PollTimeout:      20 * time.Millisecond,
		Clock:            clock.NewTestClock(testTime),
	}
}

// run accepts the connection and hands it to script on a separate
// goroutine. The connection stays open until script returns and finish has
// been called.
func (p *fakePeer) run(script func(conn net.Conn) error) {
	p.group.Go(func() error {
		defer p.listener.Close()
		conn, err := p.listener.Accept()
		if err != nil {
			return errors.WithStack(err)
		}
		defer conn.Close()
		if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
			return errors.WithStack(err)
		}
		if err := script(conn); err != nil {
			return err
		}
		<-p.done
		return nil
	})
}

// finish releases the fake peer's connection and fails the test if its
// script failed.
func (p *fakePeer) finish() {
	close(p.done)
	require.NoError(p.t, p.group.Wait())
}

// frame builds a complete message.
func frame(magic wire.BitcoinNet, command string, payload []byte) []byte {
	var buf bytes.Buffer
	err := wire.WriteMessageHeader(&buf, wire.NewMessageHeader(magic, command, payload))
	if err != nil {
		panic(err)
	}
	buf.Write(payload)
	return buf.Bytes()
}

// pack packs values into a fresh payload.
func pack(format string, values ...wire.Value) []byte {
	cb := wire.NewCheckedBuffer()
	cb.PrepareWrite()
	if _, err := wire.Pack(cb, format, values...); err != nil {
		panic(err)
	}
	return append([]byte(nil), cb.Bytes()...)
}

func (p *fakePeer) send(conn net.Conn, command string, payload []byte) error {
	_, err := conn.Write(frame(p.magic, command, payload))
	return errors.WithStack(err)
}

// receive reads one message and checks its command.
func (p *fakePeer) receive(conn net.Conn, command string) ([]byte, error) {
	hdr, err := wire.ReadMessageHeader(conn)
	if err != nil {
		return nil, err
	}
	if hdr.Command != command {
		return nil, errors.Errorf("expected %s, got %s", command, hdr.Command)
	}
	payload := make([]byte, hdr.Length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, errors.WithStack(err)
	}
	if wire.Checksum(payload) != hdr.Checksum {
		return nil, errors.Errorf("bad checksum on %s", command)
	}
	return payload, nil
}

// versionPayload is the version message the fake peer announces.
func versionPayload() []byte {
	addr := wire.NewNetAddressIPPort(net.ParseIP("127.0.0.1"), 18444, wire.SFNodeNetwork)
	return pack(wire.VersionFormat,
		wire.Uint32(70015),
		wire.Uint64(wire.SFNodeNetwork|wire.SFNodeWitness),
		wire.Int64(testTime.Unix()),
		addr,
		addr,
		wire.NewVarStrString(fakePeerUserAgent),
		wire.Int32(650000),
		wire.Uint8(0))
}

// handshake plays the remote side of a successful handshake.
func (p *fakePeer) handshake(conn net.Conn) error {
	if _, err := p.receive(conn, wire.CmdVersion); err != nil {
		return err
	}
	if err := p.send(conn, wire.CmdVersion, versionPayload()); err != nil {
		return err
	}
	if err := p.send(conn, wire.CmdVerAck, nil); err != nil {
		return err
	}
	_, err := p.receive(conn, wire.CmdVerAck)
	return err
}

// pumpUntil pumps c until a message with the given command arrives or an
// error occurs.
func pumpUntil(c *Connection, command string) error {
	for i := 0; i < 500; i++ {
		if err := c.Pump(); err != nil {
			return err
		}
		if c.HasMessage(command) {
			return nil
		}
	}
	return errors.Errorf("no %s message arrived", command)
}

// timeoutError is a net.Error reporting a timeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
