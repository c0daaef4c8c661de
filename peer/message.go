package peer

import (
	"github.com/btcp2p/btcp2p/wire"
)

// slotState tracks the single received message a Connection holds.
type slotState int

const (
	// slotEmpty means no message was received by the last Pump.
	slotEmpty slotState = iota

	// slotPending means a message was received and not yet unpacked.
	slotPending

	// slotConsumed means the message was unpacked at least once.
	slotConsumed
)

// messageSlot holds the last message received by Pump. Its payload buffer
// is reused for every message.
type messageSlot struct {
	state   slotState
	header  wire.MessageHeader
	payload *wire.CheckedBuffer
}

// Message is a received message: its header and its payload. It is owned by
// the Connection and only valid until the next Pump.
type Message struct {
	slot *messageSlot
}

// Command returns the message's command.
func (m *Message) Command() string {
	return m.slot.header.Command
}

// Header returns the message's header.
func (m *Message) Header() wire.MessageHeader {
	return m.slot.header
}

// Payload returns the message's payload. The slice is borrowed from the
// Connection and is overwritten by the next Pump.
func (m *Message) Payload() []byte {
	if m.slot.payload == nil {
		return nil
	}
	return m.slot.payload.Bytes()
}

// HasMessage returns whether the last Pump received a message with the given
// command. An empty command matches any message.
func (c *Connection) HasMessage(command string) bool {
	if c.slot.state == slotEmpty {
		return false
	}
	return command == "" || c.slot.header.Command == command
}

// Message returns the message received by the last Pump, or nil.
func (c *Connection) Message() *Message {
	if c.slot.state == slotEmpty {
		return nil
	}
	return &Message{slot: &c.slot}
}

// UnpackMessage decodes fields of the received message's payload into dsts
// according to format, see wire.Unpack. Successive calls continue where the
// previous one stopped. It returns the payload position reached.
//
// VarStr fields borrow from the payload and become stale at the next Pump.
func (c *Connection) UnpackMessage(format string, dsts ...interface{}) (int, error) {
	if c.slot.state == slotEmpty {
		return 0, ErrNoMessage
	}
	c.slot.state = slotConsumed
	return wire.Unpack(c.slot.payload, format, dsts...)
}

// releaseMessage empties the slot ahead of the next receive.
func (c *Connection) releaseMessage() {
	if c.slot.state == slotPending {
		log.Debugf("Dropping unhandled %s message from %s",
			c.slot.header.Command, c)
	}
	c.slot.state = slotEmpty
	c.slot.header = wire.MessageHeader{}
}
