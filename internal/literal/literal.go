// Package literal recognizes bracketed address literals in the style of
// sendmail's map_lookup: "[a.b.c.d]" for IPv4 and "[IPv6:...]" for IPv6.
// A recognized literal bypasses DNS entirely, since the caller has already
// supplied the address.
package literal

import (
	"net"
	"strings"

	"github.com/mxresolve/mxcore/internal/errors"
	"github.com/mxresolve/mxcore/internal/protocol"
)

// ipv6Prefix is matched case-insensitively, matching real-world MTA input
// that may arrive as "IPv6:", "ipv6:", or any other casing.
const ipv6Prefix = "IPv6:"

// Recognize reports whether candidate is a bracketed address literal and, if
// so, returns the parsed address. A candidate longer than
// protocol.MaxLiteralBuffer is rejected before any parsing is attempted,
// mirroring the bounded stack buffer a C resolver would use here.
func Recognize(candidate string) (addr net.IP, ok bool, err error) {
	if len(candidate) > protocol.MaxLiteralBuffer {
		return nil, false, &errors.ValidationError{
			Field:   "literal",
			Value:   candidate,
			Message: "address literal exceeds maximum buffer size",
		}
	}

	if !strings.HasPrefix(candidate, "[") || !strings.HasSuffix(candidate, "]") {
		return nil, false, nil
	}

	inner := candidate[1 : len(candidate)-1]

	if len(inner) > len(ipv6Prefix) && strings.EqualFold(inner[:len(ipv6Prefix)], ipv6Prefix) {
		ip := net.ParseIP(inner[len(ipv6Prefix):])
		if ip == nil || ip.To4() != nil {
			return nil, false, &errors.ValidationError{
				Field:   "literal",
				Value:   candidate,
				Message: "malformed IPv6 address literal",
			}
		}
		return ip, true, nil
	}

	ip := net.ParseIP(inner)
	if ip == nil || ip.To4() == nil {
		return nil, false, &errors.ValidationError{
			Field:   "literal",
			Value:   candidate,
			Message: "malformed IPv4 address literal",
		}
	}
	return ip.To4(), true, nil
}
