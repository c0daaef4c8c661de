package peer

import (
	"net"
	"time"

	"github.com/btcp2p/btcp2p/chaincfg"
	"github.com/btcp2p/btcp2p/wire"
	"github.com/btcsuite/go-socks/socks"
	"github.com/lightningnetwork/lnd/clock"
)

const (
	// DefaultConnectTimeout bounds how long Connect waits for the TCP
	// connection to be established.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultHandshakeTimeout bounds how long Connect waits for each
	// handshake message from the peer.
	DefaultHandshakeTimeout = 30 * time.Second

	// DefaultPollTimeout is how long Pump waits for the next message to
	// start arriving before it returns with nothing.
	DefaultPollTimeout = 100 * time.Millisecond
)

// Config is the set of options a Connection is created with. The zero value
// of every field except Address selects a default.
type Config struct {
	// Network names the chain to talk to: "mainnet", "testnet", "regtest",
	// or any network added with chaincfg.Register. Empty means mainnet.
	// Params, when set, takes precedence.
	Network string
	Params  *chaincfg.Params

	// Address is the peer to connect to, as "host" or "host:port". The
	// network's default port is used when no port is given.
	Address string

	// Services are the services announced in the version message.
	Services wire.ServiceFlag

	// UserAgent is announced in the version message. Empty means
	// wire.DefaultUserAgent.
	UserAgent string

	// StartHeight is the best height announced in the version message.
	StartHeight int32

	// Relay asks the peer to relay transactions to us.
	Relay bool

	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	PollTimeout      time.Duration

	// Proxy, when set, routes the connection through a SOCKS5 proxy and
	// leaves name resolution to it.
	Proxy *socks.Proxy

	// Dial connects to an address. It defaults to net.DialTimeout, or to
	// the proxy's DialTimeout when Proxy is set.
	Dial func(network, addr string, timeout time.Duration) (net.Conn, error)

	// Lookup resolves a host name. It defaults to net.LookupIP.
	Lookup func(host string) ([]net.IP, error)

	// Clock supplies the timestamp announced in the version message.
	// It defaults to the system clock.
	Clock clock.Clock

	// Metrics, when set, receives the connection's counters.
	Metrics *Metrics
}

// withDefaults returns a copy of cfg with every unset field filled in.
func (cfg Config) withDefaults() (Config, error) {
	if cfg.Params == nil {
		network := cfg.Network
		if network == "" {
			network = chaincfg.MainnetParams.Name
		}
		params, err := chaincfg.ParamsForName(network)
		if err != nil {
			return cfg, wrapf(ErrConfig, err, "network %q", network)
		}
		cfg.Params = params
	}
	if cfg.Address == "" {
		return cfg, newError(ErrConfig, "no peer address given")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = wire.DefaultUserAgent
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Dial == nil {
		cfg.Dial = net.DialTimeout
		if cfg.Proxy != nil {
			cfg.Dial = cfg.Proxy.DialTimeout
		}
	}
	if cfg.Lookup == nil {
		cfg.Lookup = net.LookupIP
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	return cfg, nil
}
