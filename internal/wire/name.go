// Package wire implements a hand-rolled decoder and encoder for DNS message
// wire format (RFC 1035 §4), including compressed-name expansion that
// rejects forward and self-referential pointer loops.
//
// Nothing in this package performs I/O or allocates beyond what the caller's
// input buffer requires; it is pure functions and one small cursor type over
// an immutable byte slice.
package wire

import (
	"strings"

	"github.com/mxresolve/mxcore/internal/errors"
	"github.com/mxresolve/mxcore/internal/protocol"
)

// ExpandName decodes a (possibly compressed) domain name from msg starting
// at offset, returning its canonical wire-form encoding — a sequence of
// length-prefixed labels terminated by a zero byte — and the offset in msg
// immediately following the first name encountered.
//
// Per RFC 1035 §4.1.4, a label length byte with both high bits set (0xC0) is
// a 14-bit pointer to an earlier position in the message. The pointer's
// target must be strictly less than start, the target of the most recently
// followed pointer (or the name's original offset, before the first jump);
// start is reset to each accepted target, so every jump must land strictly
// earlier than the last one. This mirrors dname_expand's offset = start = ptr
// reset on every jump: pointer targets form a strictly decreasing sequence
// bounded below by zero, which is what actually guarantees termination — a
// guard comparing only against the name's original offset does not, since
// two targets both less than that offset can still bounce between each
// other forever. The caller-visible offset returned is the position just
// past the terminating zero of the first pointer-free segment; once a
// pointer has been followed, that returned offset is frozen at two bytes
// past the pointer, regardless of how many further pointers are chased.
func ExpandName(msg []byte, offset int) (wireForm []byte, newOffset int, err error) {
	start := offset
	pos := offset
	jumped := false
	advance := -1
	out := make([]byte, 0, 32)

	for {
		if pos >= len(msg) {
			return nil, 0, &errors.WireFormatError{
				Operation: "expand name",
				Offset:    pos,
				Message:   "truncated name",
			}
		}

		length := int(msg[pos])

		if length&protocol.CompressionMask == protocol.CompressionMask {
			if pos+1 >= len(msg) {
				return nil, 0, &errors.WireFormatError{
					Operation: "expand name",
					Offset:    pos,
					Message:   "truncated compression pointer",
				}
			}

			target := (int(msg[pos]&^protocol.CompressionMask) << 8) | int(msg[pos+1])
			if target >= start {
				return nil, 0, &errors.WireFormatError{
					Operation: "expand name",
					Offset:    pos,
					Message:   "bad domain name",
				}
			}

			if !jumped {
				advance = pos + 2
				jumped = true
			}
			start = target
			pos = target
			continue
		}

		if length == 0 {
			out = append(out, 0)
			if !jumped {
				advance = pos + 1
			}
			break
		}

		if length > protocol.MaxLabelLength {
			return nil, 0, &errors.WireFormatError{
				Operation: "expand name",
				Offset:    pos,
				Message:   "label exceeds maximum length",
			}
		}

		if pos+1+length > len(msg) {
			return nil, 0, &errors.WireFormatError{
				Operation: "expand name",
				Offset:    pos,
				Message:   "label extends beyond message boundary",
			}
		}

		out = append(out, byte(length))
		out = append(out, msg[pos+1:pos+1+length]...)
		pos += 1 + length

		if len(out) > protocol.MaxDNAME {
			return nil, 0, &errors.WireFormatError{
				Operation: "expand name",
				Offset:    start,
				Message:   "domain name too long",
			}
		}
	}

	if len(out) > protocol.MaxDNAME {
		return nil, 0, &errors.WireFormatError{
			Operation: "expand name",
			Offset:    start,
			Message:   "domain name too long",
		}
	}

	return out, advance, nil
}

// PrintName converts the length-prefixed wire-form produced by ExpandName
// (or EncodeName) into dotted, NUL-free printable form. The root name
// (a bare zero byte) prints as ".". Every non-root name is printed with a
// trailing dot, which callers comparing against a caller-supplied name must
// strip themselves (spec: the orchestrator strips it before comparison).
func PrintName(wireForm []byte) (string, error) {
	var sb strings.Builder
	pos := 0

	for pos < len(wireForm) {
		length := int(wireForm[pos])
		if length == 0 {
			pos++
			break
		}
		pos++

		if pos+length > len(wireForm) {
			return "", &errors.WireFormatError{
				Operation: "print name",
				Offset:    pos,
				Message:   "truncated label",
			}
		}

		sb.Write(wireForm[pos : pos+length])
		sb.WriteByte('.')
		pos += length
	}

	if sb.Len() == 0 {
		return ".", nil
	}
	return sb.String(), nil
}

// EncodeName encodes a printable domain name into wire form. A trailing dot,
// if present, is trimmed first so "example.com" and "example.com." encode
// identically. The empty name and "." both encode to the root.
func EncodeName(name string) ([]byte, error) {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return []byte{0}, nil
	}

	labels := strings.Split(name, ".")
	buf := make([]byte, 0, len(name)+2)

	for _, label := range labels {
		if label == "" {
			return nil, &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: "empty label (consecutive dots)",
			}
		}
		if len(label) > protocol.MaxLabelLength {
			return nil, &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: "label exceeds maximum length",
			}
		}
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	buf = append(buf, 0)

	if len(buf) > protocol.MaxDNAME {
		return nil, &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: "encoded name exceeds MAXDNAME",
		}
	}
	return buf, nil
}

// TrimTrailingDot strips exactly one trailing dot, matching how the
// orchestrator normalizes a printed name before comparing it against a
// caller-supplied candidate.
func TrimTrailingDot(name string) string {
	return strings.TrimSuffix(name, ".")
}
