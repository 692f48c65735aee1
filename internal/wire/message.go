package wire

import (
	"net"

	"github.com/mxresolve/mxcore/internal/errors"
	"github.com/mxresolve/mxcore/internal/protocol"
)

// Header is the fixed 12-byte DNS message header (RFC 1035 §4.1.1).
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// RCode extracts the response code from the header's flag word.
func (h Header) RCode() uint16 { return h.Flags & 0x000F }

// Question is a single entry of a message's question section.
type Question struct {
	Name  string
	Type  protocol.RRType
	Class protocol.Class
}

// ResourceRecord is one decoded answer, authority, or additional record.
type ResourceRecord struct {
	Name  string
	Type  protocol.RRType
	Class protocol.Class
	TTL   uint32
	Body  RRBody
}

// RRBody is the decoded, type-specific payload of a resource record. Record
// types this core has no use for decode to OtherBody rather than failing the
// whole message, matching how a real resolver tolerates RR types it does not
// understand appearing alongside the ones it queried for.
type RRBody interface {
	rrBody()
}

// CNAMEBody is the canonical-name body of a CNAME record.
type CNAMEBody struct{ Target string }

func (CNAMEBody) rrBody() {}

// NSBody is the name-server body of an NS record.
type NSBody struct{ Target string }

func (NSBody) rrBody() {}

// MXBody is the preference/exchange body of an MX record (RFC 1035 §3.3.9).
type MXBody struct {
	Preference uint16
	Exchange   string
}

func (MXBody) rrBody() {}

// PTRBody is the domain-name body of a PTR record.
type PTRBody struct{ Target string }

func (PTRBody) rrBody() {}

// SOABody is the zone-authority body of an SOA record. Fields beyond MName
// and RName are rarely consulted by this core but are decoded for completeness.
type SOABody struct {
	MName   string
	RName   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func (SOABody) rrBody() {}

// ABody is the IPv4 address body of an A record.
type ABody struct{ Addr net.IP }

func (ABody) rrBody() {}

// AAAABody is the IPv6 address body of an AAAA record (RFC 3596).
type AAAABody struct{ Addr net.IP }

func (AAAABody) rrBody() {}

// OtherBody holds the raw rdata of a record type this core does not
// interpret. Presence on the wire is not an error; only malformed rdlength is.
type OtherBody struct {
	Type  protocol.RRType
	RData []byte
}

func (OtherBody) rrBody() {}

// Message is a decoded DNS message. Question is kept only for completeness;
// the orchestrator never issues a multi-question query.
type Message struct {
	Header    Header
	Questions []Question
	Answers   []ResourceRecord
}

// Header decodes the fixed 12-byte message header.
func (c *Cursor) Header() Header {
	return Header{
		ID:      c.u16(),
		Flags:   c.u16(),
		QDCount: c.u16(),
		ANCount: c.u16(),
		NSCount: c.u16(),
		ARCount: c.u16(),
	}
}

// Question decodes one question-section entry: name, type, class.
func (c *Cursor) Question() Question {
	name := c.name()
	qtype := protocol.RRType(c.u16())
	class := protocol.Class(c.u16())
	return Question{Name: name, Type: qtype, Class: class}
}

// RR decodes one resource record: name, type, class, TTL, rdlength, and a
// type-specific body. The body decoder is handed the exact rdlength so it
// can cross-check how many bytes it actually consumed; a mismatch ("bad
// dlen") is a wire-format error rather than a silently misaligned cursor.
func (c *Cursor) RR() ResourceRecord {
	name := c.name()
	rtype := protocol.RRType(c.u16())
	class := protocol.Class(c.u16())
	ttl := c.u32()
	rdlength := int(c.u16())

	if c.err != nil {
		return ResourceRecord{}
	}

	bodyStart := c.pos
	body := c.decodeBody(rtype, rdlength)
	if c.err != nil {
		return ResourceRecord{}
	}

	consumed := c.pos - bodyStart
	if consumed != rdlength {
		c.fail(&errors.WireFormatError{
			Operation: "decode rr",
			Offset:    bodyStart,
			Message:   "bad dlen",
		})
		return ResourceRecord{}
	}

	return ResourceRecord{Name: name, Type: rtype, Class: class, TTL: ttl, Body: body}
}

func (c *Cursor) decodeBody(rtype protocol.RRType, rdlength int) RRBody {
	switch rtype {
	case protocol.TypeCNAME:
		return CNAMEBody{Target: c.name()}
	case protocol.TypeNS:
		return NSBody{Target: c.name()}
	case protocol.TypePTR:
		return PTRBody{Target: c.name()}
	case protocol.TypeMX:
		pref := c.u16()
		exch := c.name()
		return MXBody{Preference: pref, Exchange: exch}
	case protocol.TypeSOA:
		return SOABody{
			MName:   c.name(),
			RName:   c.name(),
			Serial:  c.u32(),
			Refresh: c.u32(),
			Retry:   c.u32(),
			Expire:  c.u32(),
			Minimum: c.u32(),
		}
	case protocol.TypeA:
		raw := c.bytes(4)
		if c.err != nil {
			return nil
		}
		return ABody{Addr: net.IP(append([]byte(nil), raw...))}
	case protocol.TypeAAAA:
		raw := c.bytes(16)
		if c.err != nil {
			return nil
		}
		return AAAABody{Addr: net.IP(append([]byte(nil), raw...))}
	default:
		raw := c.bytes(rdlength)
		if c.err != nil {
			return nil
		}
		return OtherBody{Type: rtype, RData: append([]byte(nil), raw...)}
	}
}

// DecodeMessage decodes a complete DNS message from buf. On a truncation or
// malformed-record error encountered while walking the answer section, it
// returns the partial set of answers decoded so far alongside the error,
// rather than discarding them: the orchestrator logs the warning and keeps
// whatever MX/A/AAAA records it already has rather than failing the whole
// sub-lookup (spec: open question "decode-truncation" resolved in favor of
// partial-results-plus-log).
func DecodeMessage(buf []byte) (Message, error) {
	c := NewCursor(buf)
	var msg Message

	msg.Header = c.Header()
	if c.err != nil {
		return msg, c.err
	}

	msg.Questions = make([]Question, 0, msg.Header.QDCount)
	for i := 0; i < int(msg.Header.QDCount); i++ {
		msg.Questions = append(msg.Questions, c.Question())
		if c.err != nil {
			return msg, c.err
		}
	}

	msg.Answers = make([]ResourceRecord, 0, msg.Header.ANCount)
	for i := 0; i < int(msg.Header.ANCount); i++ {
		rr := c.RR()
		if c.err != nil {
			return msg, c.err
		}
		msg.Answers = append(msg.Answers, rr)
	}

	return msg, nil
}
