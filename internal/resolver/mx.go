package resolver

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/mxresolve/mxcore/internal/errors"
	"github.com/mxresolve/mxcore/internal/protocol"
	"github.com/mxresolve/mxcore/internal/wire"
)

// MXResolver issues a raw UDP query and decodes the response itself,
// exercising internal/wire directly rather than treating it as an unused
// reference decoder: MX lookups in this core are res_query-style, operating
// on the raw message, unlike the structured getaddrinfo/getnameinfo style
// used for HostByName and PtrByAddress.
type MXResolver struct {
	Nameserver string // host:port, e.g. "192.0.2.53:53"
	Timeout    time.Duration
}

// NewMXResolver builds an MXResolver targeting the given nameserver address.
// If timeout is zero, a 5 second default is used.
func NewMXResolver(nameserver string, timeout time.Duration) *MXResolver {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &MXResolver{Nameserver: nameserver, Timeout: timeout}
}

func randomQueryID() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (r *MXResolver) lookup(ctx context.Context, domain string) Completion {
	id, err := randomQueryID()
	if err != nil {
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverSubmitFailed, Err: err}}
	}

	query, err := wire.BuildQuery(id, domain, protocol.TypeMX)
	if err != nil {
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverSubmitFailed, Err: err}}
	}

	conn, err := net.Dial("udp", r.Nameserver)
	if err != nil {
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverSubmitFailed, Err: err}}
	}
	defer conn.Close()

	deadline := time.Now().Add(r.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverSubmitFailed, Err: err}}
	}

	if _, err := conn.Write(query); err != nil {
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverTransient, Err: err}}
	}

	buf := make([]byte, 65535)
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverTransient, Err: err}}
		}
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverTransient, Err: err}}
	}

	msg, decodeErr := wire.DecodeMessage(buf[:n])
	if decodeErr != nil && len(msg.Answers) == 0 {
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverNoRecovery, Err: decodeErr}}
	}

	switch rcode := msg.Header.RCode(); rcode {
	case 0: // NOERROR
	case 3: // NXDOMAIN
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverNXDomain}}
	default: // SERVFAIL, FORMERR, REFUSED, etc. — transient, not an empty answer
		return Completion{Err: &errors.ResolverError{
			Operation: "lookup mx",
			Kind:      errors.ResolverTransient,
			Err:       fmt.Errorf("nameserver returned rcode %s", protocol.RCodeName(rcode)),
		}}
	}

	records := make([]MXRecord, 0, len(msg.Answers))
	for _, a := range msg.Answers {
		if mx, ok := a.Body.(wire.MXBody); ok {
			records = append(records, MXRecord{Preference: mx.Preference, Exchange: mx.Exchange})
		}
	}

	if len(records) == 0 && decodeErr == nil {
		return Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverNoData}}
	}

	return Completion{Result: &MXResult{Records: records, Truncated: decodeErr != nil}}
}
