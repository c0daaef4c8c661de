package chaincfg_test

import (
	"testing"

	. "github.com/btcp2p/btcp2p/chaincfg"
	"github.com/btcp2p/btcp2p/wire"
	"github.com/pkg/errors"
)

// Define some of the required parameters for a user-registered
// network.  This is necessary to test the registration of and
// lookup of networks by name.
var mockNetParams = Params{
	Name:            "mocknet",
	Net:             1<<32 - 1,
	DefaultPort:     "28444",
	ProtocolVersion: wire.ProtocolVersion,
}

func TestRegister(t *testing.T) {
	type registerTest struct {
		name   string
		params *Params
		err    error
	}
	type lookupTest struct {
		name string
		want *Params
		err  error
	}

	tests := []struct {
		name     string
		register []registerTest
		lookups  []lookupTest
	}{
		{
			name: "default networks",
			register: []registerTest{
				{
					name:   "duplicate mainnet",
					params: &MainnetParams,
					err:    ErrDuplicateNet,
				},
				{
					name:   "duplicate testnet",
					params: &TestnetParams,
					err:    ErrDuplicateNet,
				},
				{
					name:   "duplicate regtest",
					params: &RegtestParams,
					err:    ErrDuplicateNet,
				},
			},
			lookups: []lookupTest{
				{name: "mainnet", want: &MainnetParams},
				{name: "TestNet", want: &TestnetParams},
				{name: "regtest", want: &RegtestParams},
				{name: "mocknet", err: ErrUnknownNetwork},
			},
		},
		{
			name: "register mocknet",
			register: []registerTest{
				{
					name:   "mocknet",
					params: &mockNetParams,
					err:    nil,
				},
			},
			lookups: []lookupTest{
				{name: "mocknet", want: &mockNetParams},
			},
		},
		{
			name: "more duplicates",
			register: []registerTest{
				{
					name:   "duplicate mocknet",
					params: &mockNetParams,
					err:    ErrDuplicateNet,
				},
				{
					name: "duplicate name",
					params: &Params{Name: "MainNet", Net: 0x01020304,
						DefaultPort: "1"},
					err: ErrDuplicateNet,
				},
			},
			lookups: []lookupTest{
				{name: "", err: ErrUnknownNetwork},
				{name: "simnet", err: ErrUnknownNetwork},
			},
		},
	}

	for _, test := range tests {
		for _, regTest := range test.register {
			err := Register(regTest.params)
			if err != regTest.err {
				t.Errorf("%s:%s: Registered network with unexpected error: got %v expected %v",
					test.name, regTest.name, err, regTest.err)
			}
		}
		for _, lookup := range test.lookups {
			params, err := ParamsForName(lookup.name)
			if !errors.Is(err, lookup.err) {
				t.Errorf("%s: ParamsForName(%q): got error %v expected %v",
					test.name, lookup.name, err, lookup.err)
				continue
			}
			if params != lookup.want {
				t.Errorf("%s: ParamsForName(%q): got %v expected %v",
					test.name, lookup.name, params, lookup.want)
			}
		}
	}
}

func TestDefaultParams(t *testing.T) {
	tests := []struct {
		params *Params
		net    wire.BitcoinNet
		port   string
	}{
		{&MainnetParams, 0xd9b4bef9, "8333"},
		{&TestnetParams, 0x0709110b, "18333"},
		{&RegtestParams, 0xdab5bffa, "18444"},
	}
	for _, test := range tests {
		if test.params.Net != test.net {
			t.Errorf("%s: wrong magic - got %x, want %x", test.params.Name,
				uint32(test.params.Net), uint32(test.net))
		}
		if test.params.DefaultPort != test.port {
			t.Errorf("%s: wrong port - got %s, want %s", test.params.Name,
				test.params.DefaultPort, test.port)
		}
		if test.params.ProtocolVersion != 70015 {
			t.Errorf("%s: wrong protocol version %d", test.params.Name,
				test.params.ProtocolVersion)
		}
	}
}
