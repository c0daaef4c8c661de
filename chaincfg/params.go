// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"strings"

	"github.com/btcp2p/btcp2p/wire"
	"github.com/pkg/errors"
)

// Params defines a bitcoin network by the values a peer needs to talk to it:
// the magic number that starts every message, the port nodes listen on and
// the protocol version announced in the handshake.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net wire.BitcoinNet

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// ProtocolVersion is the protocol version announced to peers.
	ProtocolVersion uint32
}

// MainnetParams defines the network parameters for the main bitcoin network.
var MainnetParams = Params{
	Name:            "mainnet",
	Net:             wire.MainNet,
	DefaultPort:     "8333",
	ProtocolVersion: wire.ProtocolVersion,
}

// TestnetParams defines the network parameters for the test bitcoin network
// (version 3).
var TestnetParams = Params{
	Name:            "testnet",
	Net:             wire.TestNet3,
	DefaultPort:     "18333",
	ProtocolVersion: wire.ProtocolVersion,
}

// RegtestParams defines the network parameters for the regression test
// bitcoin network.
var RegtestParams = Params{
	Name:            "regtest",
	Net:             wire.RegTest,
	DefaultPort:     "18444",
	ProtocolVersion: wire.ProtocolVersion,
}

var (
	// ErrDuplicateNet describes an error where the parameters for a bitcoin
	// network could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate bitcoin network")

	// ErrUnknownNetwork describes an error where the requested network name
	// has not been registered.
	ErrUnknownNetwork = errors.New("unknown bitcoin network")
)

var (
	registeredNets  = make(map[wire.BitcoinNet]struct{})
	registeredNames = make(map[string]*Params)
)

// Register registers the network parameters for a bitcoin network. This may
// error with ErrDuplicateNet if the network or its name is already registered
// (either due to a previous Register call, or the network being one of the
// default networks).
//
// Network parameters should be registered into this package by a main package
// as early as possible. Then, library packages may lookup networks or network
// parameters based on inputs and work regardless of the network being standard
// or not.
func Register(params *Params) error {
	name := strings.ToLower(params.Name)
	if _, ok := registeredNets[params.Net]; ok {
		return ErrDuplicateNet
	}
	if _, ok := registeredNames[name]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Net] = struct{}{}
	registeredNames[name] = params

	return nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

// ParamsForName returns the registered network parameters with the given
// name, compared case-insensitively.
func ParamsForName(name string) (*Params, error) {
	params, ok := registeredNames[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNetwork, "%q", name)
	}
	return params, nil
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&RegtestParams)
}
