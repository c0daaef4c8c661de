// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcp2p/btcp2p/infrastructure/logger"
	"github.com/btcp2p/btcp2p/peer"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/go-socks/socks"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "btcp2p.log"
	defaultErrLogFilename = "btcp2p_err.log"
	defaultPingInterval   = 10 * time.Second
)

var (
	// DefaultAppDir is the default home directory for btcp2p.
	DefaultAppDir = btcutil.AppDataDir("btcp2p", false)

	defaultLogDir = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the command line options of the example client.
type Flags struct {
	LogDir           string        `long:"logdir" description:"Directory to log output"`
	DebugLevel       string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Connect          string        `short:"c" long:"connect" description:"Peer to connect to, as host or host:port (default port depends on the network)"`
	ConnectTimeout   time.Duration `long:"connecttimeout" description:"How long to wait for the TCP connection to be established"`
	HandshakeTimeout time.Duration `long:"handshaketimeout" description:"How long to wait for each handshake message from the peer"`
	PingInterval     time.Duration `long:"pinginterval" description:"How often to ping the peer"`
	StartHeight      int32         `long:"startheight" description:"Best height announced to the peer"`
	Proxy            string        `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser        string        `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass        string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	MetricsAddr      string        `long:"metricsaddr" description:"Serve prometheus metrics on this interface/port (eg. 127.0.0.1:9100)"`
	NetworkFlags
}

// Config is the fully resolved configuration of the example client.
type Config struct {
	*Flags

	// SOCKSProxy is set when --proxy is given.
	SOCKSProxy *socks.Proxy

	LogFile    string
	ErrLogFile string
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		LogDir:           defaultLogDir,
		DebugLevel:       defaultLogLevel,
		ConnectTimeout:   peer.DefaultConnectTimeout,
		HandshakeTimeout: peer.DefaultHandshakeTimeout,
		PingInterval:     defaultPingInterval,
	}
}

// LoadConfig parses args on top of the defaults and validates the result.
// Log levels are applied as a side effect.
func LoadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()
	parser := flags.NewParser(cfgFlags, flags.Default)
	parser.Usage = "[OPTIONS] --connect=<host[:port]>"
	_, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	funcName := "loadConfig"
	cfg := &Config{Flags: cfgFlags}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}
	err = logger.ParseAndSetDebugLevels(cfg.DebugLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", funcName)
	}

	if cfg.Connect == "" {
		return nil, errors.Errorf("%s: --connect must be specified", funcName)
	}

	if cfg.ConnectTimeout <= 0 {
		return nil, errors.Errorf("%s: connecttimeout must be positive, got %s",
			funcName, cfg.ConnectTimeout)
	}
	if cfg.HandshakeTimeout <= 0 {
		return nil, errors.Errorf("%s: handshaketimeout must be positive, got %s",
			funcName, cfg.HandshakeTimeout)
	}
	if cfg.PingInterval < time.Second {
		return nil, errors.Errorf("%s: pinginterval must be at least 1s, got %s",
			funcName, cfg.PingInterval)
	}

	// Namespace the log directory per network.
	logDir := filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)
	cfg.LogFile = filepath.Join(logDir, defaultLogFilename)
	cfg.ErrLogFile = filepath.Join(logDir, defaultErrLogFilename)

	if cfg.Proxy != "" {
		_, _, err := net.SplitHostPort(cfg.Proxy)
		if err != nil {
			return nil, errors.Errorf("%s: Proxy address '%s' is invalid: %s",
				funcName, cfg.Proxy, err)
		}
		cfg.SOCKSProxy = &socks.Proxy{
			Addr:     cfg.Proxy,
			Username: cfg.ProxyUser,
			Password: cfg.ProxyPass,
		}
	}

	if cfg.MetricsAddr != "" {
		_, _, err := net.SplitHostPort(cfg.MetricsAddr)
		if err != nil {
			return nil, errors.Errorf("%s: metricsaddr '%s' is invalid: %s",
				funcName, cfg.MetricsAddr, err)
		}
	}

	return cfg, nil
}

// PeerConfig returns the connection options selected by cfg.
func (cfg *Config) PeerConfig(metrics *peer.Metrics) *peer.Config {
	return &peer.Config{
		Params:           cfg.NetParams(),
		Address:          cfg.Connect,
		StartHeight:      cfg.StartHeight,
		ConnectTimeout:   cfg.ConnectTimeout,
		HandshakeTimeout: cfg.HandshakeTimeout,
		Proxy:            cfg.SOCKSProxy,
		Metrics:          metrics,
	}
}
