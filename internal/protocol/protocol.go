// Package protocol defines DNS wire-format constants shared by the decoder,
// encoder, and resolver adapter: record types, classes, the name-compression
// mask, and the length limits from RFC 1035 §2.3.4/§3.1.
package protocol

import "strconv"

// RRType is a DNS resource record type as carried on the wire (RFC 1035 §3.2.2).
type RRType uint16

const (
	TypeA     RRType = 1
	TypeNS    RRType = 2
	TypeCNAME RRType = 5
	TypeSOA   RRType = 6
	TypePTR   RRType = 12
	TypeMX    RRType = 15
	TypeAAAA  RRType = 28 // RFC 3596
)

// Class is a DNS resource record class (RFC 1035 §3.2.4).
type Class uint16

const (
	ClassIN Class = 1
)

// CompressionMask identifies a name-compression pointer: a label length byte
// whose top two bits are both set (RFC 1035 §4.1.4).
const CompressionMask = 0xC0

// CompressionOffsetMask extracts the 14-bit pointer offset once CompressionMask
// has identified the byte pair as a pointer.
const CompressionOffsetMask = 0x3FFF

const (
	// MaxLabelLength is the maximum length in bytes of a single DNS label (RFC 1035 §3.1).
	MaxLabelLength = 63

	// MaxDNAME is the maximum on-wire length in bytes of a domain name, including
	// length-prefix bytes and the terminating zero (RFC 1035 §3.1, "MAXDNAME").
	MaxDNAME = 255

	// MaxHostnameBuffer is the platform hostname buffer capacity this core assumes:
	// MaxDNAME plus a trailing NUL.
	MaxHostnameBuffer = MaxDNAME + 1

	// MaxLiteralBuffer bounds the internal buffer used while recognizing a
	// bracketed address literal.
	MaxLiteralBuffer = 255

	// HeaderSize is the fixed size in bytes of a DNS message header (RFC 1035 §4.1.1).
	HeaderSize = 12
)

// Status is the closed set of outcome codes visible across the reply-channel
// boundary. Numeric values are part of the wire contract and must not be
// renumbered once shipped.
type Status int32

const (
	StatusOK       Status = 0
	StatusNotFound Status = 1
	StatusNoName   Status = 2
	StatusInvalid  Status = 3
	StatusRetry    Status = 4
)

var statusNames = map[Status]string{
	StatusOK:       "OK",
	StatusNotFound: "NotFound",
	StatusNoName:   "NoName",
	StatusInvalid:  "Invalid",
	StatusRetry:    "Retry",
}

// String returns the status's mnemonic name, for logging.
func (s Status) String() string {
	if v, ok := statusNames[s]; ok {
		return v
	}
	return strconv.Itoa(int(s))
}

var typeNames = map[RRType]string{
	TypeA:     "A",
	TypeNS:    "NS",
	TypeCNAME: "CNAME",
	TypeSOA:   "SOA",
	TypePTR:   "PTR",
	TypeMX:    "MX",
	TypeAAAA:  "AAAA",
}

// Name returns the mnemonic for a record type, or its decimal value if unknown.
// Used only for logging; never influences a decode or dispatch decision.
func (t RRType) Name() string {
	if v, ok := typeNames[t]; ok {
		return v
	}
	return strconv.Itoa(int(t))
}

var rcodeNames = map[uint16]string{
	0: "NOERROR",
	1: "FORMERR",
	2: "SERVFAIL",
	3: "NXDOMAIN",
	4: "NOTIMP",
	5: "REFUSED",
}

// RCodeName returns the mnemonic for a DNS response code, or its decimal value
// if unknown. Logging aid only — resolver error classification (spec §7) comes
// from the resolver adapter, not from reinterpreting this field.
func RCodeName(rcode uint16) string {
	if v, ok := rcodeNames[rcode]; ok {
		return v
	}
	return strconv.Itoa(int(rcode))
}
