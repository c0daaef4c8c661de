package main

import (
	"fmt"
	"os"

	"github.com/btcp2p/btcp2p/infrastructure/config"
	"github.com/btcp2p/btcp2p/infrastructure/logger"
	"github.com/btcp2p/btcp2p/infrastructure/os/signal"
	"github.com/btcp2p/btcp2p/peer"
	"github.com/btcp2p/btcp2p/util/panics"
	"github.com/btcp2p/btcp2p/util/profiling"
	"github.com/btcp2p/btcp2p/util/timer"
	"github.com/btcp2p/btcp2p/version"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	defer panics.HandlePanic(log, nil)

	if err := btcp2pMain(); err != nil {
		os.Exit(1)
	}
}

// btcp2pMain is the real main function. It is necessary to work around the
// fact that deferred functions do not run when os.Exit() is called.
func btcp2pMain() error {
	interrupt := signal.InterruptListener()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		return err
	}

	err = logger.InitLog(cfg.LogFile, cfg.ErrLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing the logger: %s\n", err)
		return err
	}
	defer logger.BackendLog.Close()

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := peer.NewMetrics(registry)
	if cfg.MetricsAddr != "" {
		server := profiling.Start(cfg.MetricsAddr, registry, log)
		defer server.Close()
	}

	peerCfg := cfg.PeerConfig(metrics)
	peerCfg.UserAgent = version.UserAgent()
	log.Infof("Connecting to %s on %s", cfg.Connect, cfg.NetParams().Name)
	conn, err := peer.Connect(peerCfg)
	if err != nil {
		log.Errorf("Error connecting to %s: %s", cfg.Connect, err)
		return err
	}
	defer conn.Disconnect()

	err = run(conn, timer.New(cfg.PingInterval, nil), interrupt)
	if err != nil {
		log.Errorf("Connection to %s lost: %s", conn, err)
		return err
	}
	log.Infof("Sent %d bytes, received %d bytes", conn.BytesSent(), conn.BytesReceived())
	return nil
}
