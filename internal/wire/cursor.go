package wire

import (
	"encoding/binary"

	"github.com/mxresolve/mxcore/internal/errors"
)

// Cursor is an immutable input buffer paired with a current offset and a
// sticky error. Once any read fails, every subsequent read becomes a no-op
// returning a zero value, so a caller can fold several small reads together
// and test the cursor's error state exactly once.
type Cursor struct {
	buf []byte
	pos int
	err error
}

// NewCursor wraps buf for decoding starting at offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the cursor's current offset into the buffer.
func (c *Cursor) Pos() int { return c.pos }

// Err returns the first error encountered, or nil if every read so far succeeded.
func (c *Cursor) Err() error { return c.err }

func (c *Cursor) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Cursor) need(n int) bool {
	if c.err != nil {
		return false
	}
	if n < 0 || c.pos+n > len(c.buf) {
		c.fail(&errors.WireFormatError{Operation: "read", Offset: c.pos, Message: "too short"})
		return false
	}
	return true
}

func (c *Cursor) u8() byte {
	if !c.need(1) {
		return 0
	}
	v := c.buf[c.pos]
	c.pos++
	return v
}

func (c *Cursor) u16() uint16 {
	if !c.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos : c.pos+2])
	c.pos += 2
	return v
}

func (c *Cursor) u32() uint32 {
	if !c.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v
}

func (c *Cursor) bytes(n int) []byte {
	if !c.need(n) {
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *Cursor) expandName() []byte {
	if c.err != nil {
		return nil
	}
	wireForm, newOffset, err := ExpandName(c.buf, c.pos)
	if err != nil {
		c.fail(err)
		return nil
	}
	c.pos = newOffset
	return wireForm
}

func (c *Cursor) name() string {
	wireForm := c.expandName()
	if c.err != nil {
		return ""
	}
	name, err := PrintName(wireForm)
	if err != nil {
		c.fail(err)
		return ""
	}
	return TrimTrailingDot(name)
}
