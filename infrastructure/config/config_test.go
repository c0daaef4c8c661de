package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/btcp2p/btcp2p/chaincfg"
	"github.com/btcp2p/btcp2p/infrastructure/logger"
	"github.com/btcp2p/btcp2p/peer"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]string{"--connect=seed.example.org"})
	require.NoError(t, err)

	require.Equal(t, &chaincfg.MainnetParams, cfg.NetParams())
	require.Equal(t, "seed.example.org", cfg.Connect)
	require.Equal(t, peer.DefaultConnectTimeout, cfg.ConnectTimeout)
	require.Equal(t, peer.DefaultHandshakeTimeout, cfg.HandshakeTimeout)
	require.Equal(t, defaultPingInterval, cfg.PingInterval)
	require.Nil(t, cfg.SOCKSProxy)
	require.Equal(t, filepath.Join(defaultLogDir, "mainnet", defaultLogFilename), cfg.LogFile)
	require.Equal(t, filepath.Join(defaultLogDir, "mainnet", defaultErrLogFilename), cfg.ErrLogFile)

	peerCfg := cfg.PeerConfig(nil)
	require.Equal(t, &chaincfg.MainnetParams, peerCfg.Params)
	require.Equal(t, "seed.example.org", peerCfg.Address)
	require.Nil(t, peerCfg.Proxy)
}

func TestLoadConfigOptions(t *testing.T) {
	logDir := t.TempDir()
	cfg, err := LoadConfig([]string{
		"--regtest",
		"--connect=127.0.0.1:18444",
		"--logdir=" + logDir,
		"--connecttimeout=3s",
		"--handshaketimeout=4s",
		"--pinginterval=1m",
		"--startheight=100",
		"--proxy=127.0.0.1:9050",
		"--proxyuser=alice",
		"--proxypass=secret",
		"--metricsaddr=127.0.0.1:9100",
		"--debuglevel=PEER=debug,WIRE=trace",
	})
	require.NoError(t, err)

	require.Equal(t, &chaincfg.RegtestParams, cfg.NetParams())
	require.Equal(t, filepath.Join(logDir, "regtest", defaultLogFilename), cfg.LogFile)
	require.Equal(t, time.Minute, cfg.PingInterval)
	require.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)

	require.NotNil(t, cfg.SOCKSProxy)
	require.Equal(t, "127.0.0.1:9050", cfg.SOCKSProxy.Addr)
	require.Equal(t, "alice", cfg.SOCKSProxy.Username)
	require.Equal(t, "secret", cfg.SOCKSProxy.Password)

	peerLog, _ := logger.Get(logger.SubsystemTags.PEER)
	require.Equal(t, logger.LevelDebug, peerLog.Level())
	wireLog, _ := logger.Get(logger.SubsystemTags.WIRE)
	require.Equal(t, logger.LevelTrace, wireLog.Level())

	peerCfg := cfg.PeerConfig(nil)
	require.Equal(t, 3*time.Second, peerCfg.ConnectTimeout)
	require.Equal(t, 4*time.Second, peerCfg.HandshakeTimeout)
	require.Equal(t, int32(100), peerCfg.StartHeight)
	require.Same(t, cfg.SOCKSProxy, peerCfg.Proxy)

	logger.SetLogLevels(logger.LevelInfo)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no peer", nil},
		{"two networks", []string{"--testnet", "--regtest", "--connect=a"}},
		{"bad proxy", []string{"--connect=a", "--proxy=localhost"}},
		{"bad metrics address", []string{"--connect=a", "--metricsaddr=9100"}},
		{"short ping interval", []string{"--connect=a", "--pinginterval=100ms"}},
		{"zero connect timeout", []string{"--connect=a", "--connecttimeout=0s"}},
		{"bad debug level", []string{"--connect=a", "--debuglevel=loud"}},
		{"unknown subsystem", []string{"--connect=a", "--debuglevel=NOPE=debug"}},
		{"unknown flag", []string{"--connect=a", "--simnet"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadConfig(test.args)
			require.Error(t, err)
		})
	}
}

func TestCleanAndExpandPath(t *testing.T) {
	t.Setenv("BTCP2P_TEST_DIR", "/var/tmp")
	require.Equal(t, filepath.Clean("/var/tmp/logs"), cleanAndExpandPath("$BTCP2P_TEST_DIR/logs/"))
	require.Equal(t, filepath.Join(filepath.Dir(DefaultAppDir), "logs"), cleanAndExpandPath("~/logs"))
}
