package resolver

import (
	"context"
	"net"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/net/idna"

	"github.com/mxresolve/mxcore/internal/errors"
)

// DefaultResolver is the production Resolver: host and reverse lookups go
// through the standard library's net.Resolver (which already returns
// structured results, not raw wire bytes, so there is nothing for the
// hand-rolled decoder to do there), while MX lookups are built and decoded
// by hand so this core genuinely exercises its own wire-format code rather
// than delegating everything to the platform stub resolver.
type DefaultResolver struct {
	stdlib *net.Resolver
	mx     *MXResolver
}

// NewDefault constructs a DefaultResolver. mx may be nil, in which case
// LookupMXAsync always submit-fails; callers that only need host/PTR
// lookups (tests, tools) can use this to avoid standing up a UDP socket.
func NewDefault(mx *MXResolver) *DefaultResolver {
	return &DefaultResolver{stdlib: net.DefaultResolver, mx: mx}
}

func normalize(name string) (string, error) {
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: "failed IDNA normalization: " + err.Error(),
		}
	}
	return ascii, nil
}

// LookupHostAsync resolves name's A/AAAA addresses (getaddrinfo-style).
func (r *DefaultResolver) LookupHostAsync(ctx context.Context, name string) <-chan Completion {
	ch := make(chan Completion, 1)

	ascii, err := normalize(name)
	if err != nil {
		ch <- Completion{Err: &errors.ResolverError{Operation: "lookup host", Kind: errors.ResolverSubmitFailed, Err: err}}
		close(ch)
		return ch
	}

	go func() {
		defer close(ch)
		ipAddrs, err := r.stdlib.LookupIPAddr(ctx, ascii)
		if err != nil {
			ch <- Completion{Err: &errors.ResolverError{Operation: "lookup host", Kind: classifyDNSError(err), Err: err}}
			return
		}
		if len(ipAddrs) == 0 {
			ch <- Completion{Err: &errors.ResolverError{Operation: "lookup host", Kind: errors.ResolverNoData}}
			return
		}

		addrs := make([]net.IP, 0, len(ipAddrs))
		for _, a := range ipAddrs {
			addrs = append(addrs, a.IP)
		}
		ch <- Completion{Result: &HostResult{Addrs: addrs}}
	}()

	return ch
}

// LookupPTRAsync resolves addr's reverse-DNS hostnames (getnameinfo-style).
func (r *DefaultResolver) LookupPTRAsync(ctx context.Context, addr net.IP) <-chan Completion {
	ch := make(chan Completion, 1)

	go func() {
		defer close(ch)
		names, err := r.stdlib.LookupAddr(ctx, addr.String())
		if err != nil {
			ch <- Completion{Err: &errors.ResolverError{Operation: "lookup ptr", Kind: classifyDNSError(err), Err: err}}
			return
		}
		if len(names) == 0 {
			ch <- Completion{Err: &errors.ResolverError{Operation: "lookup ptr", Kind: errors.ResolverNoData}}
			return
		}
		ch <- Completion{Result: &PTRResult{Names: names}}
	}()

	return ch
}

// LookupMXAsync resolves domain's MX records via the hand-rolled UDP path.
func (r *DefaultResolver) LookupMXAsync(ctx context.Context, domain string) <-chan Completion {
	ch := make(chan Completion, 1)

	if r.mx == nil {
		ch <- Completion{Err: &errors.ResolverError{
			Operation: "lookup mx",
			Kind:      errors.ResolverSubmitFailed,
			Err:       pkgerrors.New("no MX resolver configured"),
		}}
		close(ch)
		return ch
	}

	ascii, err := normalize(domain)
	if err != nil {
		ch <- Completion{Err: &errors.ResolverError{Operation: "lookup mx", Kind: errors.ResolverSubmitFailed, Err: err}}
		close(ch)
		return ch
	}

	go func() {
		defer close(ch)
		ch <- r.mx.lookup(ctx, ascii)
	}()

	return ch
}

// classifyDNSError maps a stdlib *net.DNSError onto this core's
// ResolverKind vocabulary (spec §7's status mapping is a pure function of
// this classification).
func classifyDNSError(err error) errors.ResolverKind {
	var dnsErr *net.DNSError
	if pkgerrors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return errors.ResolverNXDomain
		case dnsErr.IsTemporary || dnsErr.Timeout():
			return errors.ResolverTransient
		default:
			return errors.ResolverNoRecovery
		}
	}
	return errors.ResolverTransient
}
