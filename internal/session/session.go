// Package session defines the in-flight request record the orchestrator
// allocates per inbound message and destroys exactly once its refcount of
// outstanding sub-lookups reaches zero.
//
// Every field here is touched only from the orchestrator's single dispatch
// goroutine; sub-lookup completions arrive as channel messages and are
// folded into a Session by that same goroutine, never concurrently, so no
// field needs a mutex (mirrors the teacher's single-owner-at-each-moment
// discipline, just collapsed onto one goroutine instead of split between a
// receiver goroutine and a lock).
package session

import (
	"net"

	"github.com/google/uuid"

	"github.com/mxresolve/mxcore/internal/protocol"
)

// Kind identifies which inbound request tag a Session answers, and
// determines its terminal message shape.
type Kind int

const (
	KindHostByName Kind = iota
	KindPtrMTA
	KindPtrSMTP
	KindMxByDomain
	KindMxPreference
)

func (k Kind) String() string {
	switch k {
	case KindHostByName:
		return "HostByName"
	case KindPtrMTA:
		return "PtrMTA"
	case KindPtrSMTP:
		return "PtrSMTP"
	case KindMxByDomain:
		return "MxByDomain"
	case KindMxPreference:
		return "MxPreferenceLookup"
	default:
		return "Unknown"
	}
}

// State is the session's position in the dispatch state machine (spec §4.3).
type State int

const (
	StateNew State = iota
	StateResolverPending
	StateFanoutPending
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateResolverPending:
		return "ResolverPending"
	case StateFanoutPending:
		return "FanoutPending"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Session is one in-flight request. ID is a correlation identifier used only
// for logging/tracing, distinct from ReplyTag, which is the caller-supplied
// value that must be echoed verbatim on the wire.
type Session struct {
	ID    string
	State State

	ReplyTag uint64
	Kind     Kind

	// Name is the origin domain (MxByDomain/MxPreferenceLookup) or host
	// (HostByName) this session was opened for, stored as received; no
	// length bound (such as protocol.MaxHostnameBuffer) is applied to it.
	Name string

	// Candidate is the comparison hostname for MxPreferenceLookup only.
	Candidate string

	FoundCount     int
	AggregateError error
	Outstanding    int
}

// New allocates a Session in state New with a fresh correlation ID.
func New(kind Kind, replyTag uint64, name string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		State:    StateNew,
		ReplyTag: replyTag,
		Kind:     kind,
		Name:     name,
	}
}

// SubLookup is one host-address query spawned either directly
// (HostByName) or as part of an MX fan-out. It carries only a back-link to
// the owning session (never owning) and the MX preference to tag emitted
// addresses with.
type SubLookup struct {
	Session    *Session
	Preference int32 // -1 for a direct HostByName request, 0 for the no-MX fallback, else the MX record's preference
}

// DirectPreference marks a SubLookup spawned from a direct HostByName
// request rather than an MX fan-out.
const DirectPreference int32 = -1

// FallbackPreference marks the single SubLookup spawned when an MX query
// returned zero usable records (RFC 5321 §5.1 implicit MX).
const FallbackPreference int32 = 0

// RecordAddress bumps FoundCount by the number of addresses a completing
// sub-lookup emitted and decrements Outstanding by one. It returns true when
// Outstanding has reached zero, meaning the caller must now emit the
// terminator and discard the session.
func (s *Session) RecordAddress(emitted int, lookupErr error) bool {
	s.FoundCount += emitted
	if lookupErr != nil {
		s.AggregateError = lookupErr
	}
	s.Outstanding--
	return s.Outstanding == 0
}

// TerminalStatus returns the terminator status for a HostByName or
// MxByDomain session once Outstanding has reached zero: OK iff at least one
// address was emitted, regardless of AggregateError (spec §9: the aggregate
// error is logged, never surfaced to the caller).
func (s *Session) TerminalStatus() protocol.Status {
	if s.FoundCount > 0 {
		return protocol.StatusOK
	}
	return protocol.StatusNotFound
}

// AddressMessage carries one resolved address back to the caller.
type AddressMessage struct {
	ReplyTag   uint64
	Addr       net.IP
	Preference int32
}

// TerminatorMessage is the single end-of-request message for a HostByName
// or MxByDomain session.
type TerminatorMessage struct {
	ReplyTag uint64
	Status   protocol.Status
}

// PTRReplyMessage is PtrMTA/PtrSMTP's single reply. It carries no
// request-kind tag: a PtrMTA reply and a PtrSMTP reply produce identical
// frames, told apart only by their reply_tag and the connection they
// return on.
type PTRReplyMessage struct {
	ReplyTag uint64
	Status   protocol.Status
	Name     string
}

// MxPreferenceReplyMessage is MxPreferenceLookup's single reply.
type MxPreferenceReplyMessage struct {
	ReplyTag   uint64
	Status     protocol.Status
	Preference uint16
}
