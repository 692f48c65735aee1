// Package reply composes the fixed-order binary frames this core emits to
// callers over the external IPC transport (spec §4.4, §6). Frames carry no
// overall length prefix; only the PTR name string is preceded by a 16-bit
// length. Field order is part of the wire contract: reply_tag always first,
// then message-specific fields in the order documented on each Write method.
package reply

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/mxresolve/mxcore/internal/errors"
	"github.com/mxresolve/mxcore/internal/protocol"
	"github.com/mxresolve/mxcore/internal/session"
)

// Composer writes framed reply messages to an underlying transport. It is
// not safe for concurrent use by multiple goroutines; the orchestrator's
// single dispatch loop is its only caller.
type Composer struct {
	w io.Writer
}

// New wraps w as a Composer.
func New(w io.Writer) *Composer {
	return &Composer{w: w}
}

func (c *Composer) write(fields ...interface{}) error {
	for _, f := range fields {
		if err := binary.Write(c.w, binary.BigEndian, f); err != nil {
			return &errors.NetworkError{Operation: "send reply", Err: err}
		}
	}
	return nil
}

// writeAddr encodes a net.IP as a one-byte family tag (4 or 6) followed by
// its raw 4- or 16-byte form, so the caller can decode either family
// without a separate length field.
func (c *Composer) writeAddr(addr net.IP) error {
	if v4 := addr.To4(); v4 != nil {
		if err := c.write(uint8(4)); err != nil {
			return err
		}
		return c.write([4]byte(v4))
	}
	v6 := addr.To16()
	if v6 == nil {
		return &errors.ValidationError{Field: "addr", Value: addr, Message: "neither a valid IPv4 nor IPv6 address"}
	}
	if err := c.write(uint8(6)); err != nil {
		return err
	}
	return c.write([16]byte(v6))
}

// WriteAddress emits one DNS_HOST message: reply_tag, sockaddr, preference.
func (c *Composer) WriteAddress(msg session.AddressMessage) error {
	if err := c.write(msg.ReplyTag); err != nil {
		return err
	}
	if err := c.writeAddr(msg.Addr); err != nil {
		return err
	}
	return c.write(msg.Preference)
}

// WriteTerminator emits one DNS_HOST_END message: reply_tag, status.
func (c *Composer) WriteTerminator(msg session.TerminatorMessage) error {
	if err := c.write(msg.ReplyTag); err != nil {
		return err
	}
	return c.write(int32(msg.Status))
}

// WritePTRReply emits one PTR reply: reply_tag, status, and — iff status is
// OK — a length-prefixed name string.
func (c *Composer) WritePTRReply(msg session.PTRReplyMessage) error {
	if err := c.write(msg.ReplyTag); err != nil {
		return err
	}
	if err := c.write(int32(msg.Status)); err != nil {
		return err
	}
	if msg.Status != protocol.StatusOK {
		return nil
	}
	nameBytes := []byte(msg.Name)
	if err := c.write(uint16(len(nameBytes))); err != nil {
		return err
	}
	if _, err := c.w.Write(nameBytes); err != nil {
		return &errors.NetworkError{Operation: "send reply", Err: err}
	}
	return nil
}

// WriteMxPreferenceReply emits one MX-preference reply: reply_tag, status,
// and — iff status is OK — the matched preference.
func (c *Composer) WriteMxPreferenceReply(msg session.MxPreferenceReplyMessage) error {
	if err := c.write(msg.ReplyTag); err != nil {
		return err
	}
	if err := c.write(int32(msg.Status)); err != nil {
		return err
	}
	if msg.Status != protocol.StatusOK {
		return nil
	}
	return c.write(msg.Preference)
}
