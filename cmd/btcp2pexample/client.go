package main

import (
	"github.com/btcp2p/btcp2p/infrastructure/os/signal"
	"github.com/btcp2p/btcp2p/peer"
	"github.com/btcp2p/btcp2p/util/timer"
	"github.com/btcp2p/btcp2p/wire"
)

// run pumps conn until interrupt is closed or the connection fails. Pings
// from the peer are answered, and a ping is sent whenever pingTimer expires.
func run(conn *peer.Connection, pingTimer *timer.Timer, interrupt <-chan struct{}) error {
	for !signal.InterruptRequested(interrupt) {
		err := conn.Pump()
		if err != nil {
			return err
		}

		if conn.HasMessage("") {
			msg := conn.Message()
			log.Infof("Received %s (%d bytes) from %s", msg.Command(),
				msg.Header().Length, conn)
		}

		if conn.HasMessage(wire.CmdPing) {
			err := handlePing(conn)
			if err != nil {
				return err
			}
		}

		if pingTimer.Expired() {
			log.Infof("Ping timer expired, sending ping to %s", conn)
			err := conn.PackAndSend(wire.CmdPing, "o")
			if err != nil {
				return err
			}
			pingTimer.Reset()
		}
	}
	return nil
}

// handlePing answers a ping with a pong carrying the same nonce. Pings
// without a nonce are ignored.
func handlePing(conn *peer.Connection) error {
	var nonce uint64
	_, err := conn.UnpackMessage("l", &nonce)
	if err != nil {
		log.Warnf("Ignoring ping without a nonce from %s: %s", conn, err)
		return nil
	}
	return conn.PackAndSend(wire.CmdPong, "l", wire.Uint64(nonce))
}
