// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"net"
	"time"
)

const (
	// NetAddressSize is the encoded size of a NetAddress without its
	// timestamp: services 8 bytes + ip 16 bytes + port 2 bytes.
	NetAddressSize = 26

	// NetAddressTimestampSize is the encoded size of a NetAddress that
	// carries its 4 byte timestamp.
	NetAddressTimestampSize = 30
)

// NetAddress defines information about a peer on the network including the time
// it was last seen, the services it supports, its IP address, and port.
type NetAddress struct {
	// Last time the address was seen. It is encoded as a 32 bit unix
	// timestamp, so only whole seconds survive the wire.
	Timestamp time.Time

	// Bitfield which identifies the services supported by the address.
	Services ServiceFlag

	// IP address of the peer.
	IP net.IP

	// Port the peer is using. This is encoded in big endian on the wire
	// which differs from most everything else.
	Port uint16
}

func (NetAddress) isValue() {}

// HasService returns whether the specified service is supported by the address.
func (na *NetAddress) HasService(service ServiceFlag) bool {
	return na.Services&service == service
}

// AddService adds service as a supported service by the peer generating the
// message.
func (na *NetAddress) AddService(service ServiceFlag) {
	na.Services |= service
}

// TCPAddress converts the NetAddress to *net.TCPAddr
func (na *NetAddress) TCPAddress() *net.TCPAddr {
	return &net.TCPAddr{
		IP:   na.IP,
		Port: int(na.Port),
	}
}

// NewNetAddressIPPort returns a new NetAddress using the provided IP, port, and
// supported services with defaults for the remaining fields.
func NewNetAddressIPPort(ip net.IP, port uint16, services ServiceFlag) *NetAddress {
	return NewNetAddressTimestamp(time.Now(), services, ip, port)
}

// NewNetAddressTimestamp returns a new NetAddress using the provided
// timestamp, IP, port, and supported services. The timestamp is truncated to
// whole seconds since the protocol doesn't support better.
func NewNetAddressTimestamp(
	timestamp time.Time, services ServiceFlag, ip net.IP, port uint16) *NetAddress {
	return &NetAddress{
		Timestamp: time.Unix(timestamp.Unix(), 0),
		Services:  services,
		IP:        ip,
		Port:      port,
	}
}

// NewNetAddress returns a new NetAddress using the provided TCP address and
// supported services with defaults for the remaining fields.
func NewNetAddress(addr *net.TCPAddr, services ServiceFlag) *NetAddress {
	return NewNetAddressIPPort(addr.IP, uint16(addr.Port), services)
}

// ReadNetAddress reads an encoded NetAddress from cb. The timestamp is only
// present on the wire when ts is set; some messages like version do not
// include it. Nothing is consumed and ErrDecodeUnderrun is returned when the
// buffer holds fewer bytes than the record needs.
func ReadNetAddress(cb *CheckedBuffer, na *NetAddress, ts bool) error {
	size := uint64(NetAddressSize)
	if ts {
		size = NetAddressTimestampSize
	}
	if !cb.HasReadableBytes(size) {
		return ErrDecodeUnderrun
	}

	var buf [NetAddressTimestampSize]byte
	cb.Read(buf[:size])
	record := buf[:size]

	var timestamp time.Time
	if ts {
		timestamp = time.Unix(int64(littleEndian.Uint32(record)), 0)
		record = record[4:]
	}

	ip := make(net.IP, net.IPv6len)
	copy(ip, record[8:24])

	*na = NetAddress{
		Timestamp: timestamp,
		Services:  ServiceFlag(littleEndian.Uint64(record)),
		IP:        ip,
		Port:      bigEndian.Uint16(record[24:]),
	}
	return nil
}

// WriteNetAddress serializes a NetAddress to cb, with the timestamp only when
// ts is set. IPv4 addresses are written in their IPv4-mapped IPv6 form.
func WriteNetAddress(cb *CheckedBuffer, na *NetAddress, ts bool) {
	var buf [NetAddressTimestampSize]byte
	record := buf[:]
	if ts {
		// The zero time is written as zero rather than as a wrapped
		// pre-epoch value.
		if !na.Timestamp.IsZero() {
			littleEndian.PutUint32(record, uint32(na.Timestamp.Unix()))
		}
		record = record[4:]
	}

	littleEndian.PutUint64(record, uint64(na.Services))

	// Ensure to always write 16 bytes even if the ip is nil.
	if na.IP != nil {
		copy(record[8:24], na.IP.To16())
	}
	bigEndian.PutUint16(record[24:], na.Port)

	if ts {
		cb.Write(buf[:NetAddressTimestampSize])
		return
	}
	cb.Write(buf[:NetAddressSize])
}
