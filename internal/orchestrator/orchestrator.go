// Package orchestrator implements the single-goroutine dispatch loop that
// decomposes MxByDomain requests into an MX query followed by parallel
// host lookups, tracks each session's outstanding refcount, and emits
// exactly one terminal reply per request (spec §4.3, §5).
//
// All Session/SubLookup state is mutated only from Run's goroutine.
// Sub-lookup completions are delivered to that same goroutine over a
// channel by small per-submission forwarder goroutines; nothing outside
// Run ever reads or writes a Session field directly, which is this core's
// analogue of the teacher's single-owner-at-each-moment discipline without
// needing a mutex.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/mxresolve/mxcore/internal/errors"
	"github.com/mxresolve/mxcore/internal/literal"
	"github.com/mxresolve/mxcore/internal/logging"
	"github.com/mxresolve/mxcore/internal/metrics"
	"github.com/mxresolve/mxcore/internal/protocol"
	"github.com/mxresolve/mxcore/internal/reply"
	"github.com/mxresolve/mxcore/internal/resolver"
	"github.com/mxresolve/mxcore/internal/session"
)

// Request is one inbound message (spec §6). Addr is populated only for
// PtrMTA/PtrSMTP; Candidate only for MxPreferenceLookup.
type Request struct {
	Kind      session.Kind
	ReplyTag  uint64
	Name      string
	Candidate string
	Addr      net.IP
}

// Orchestrator owns the session registry and dispatch loop. Construct with
// New and drive it with Run; it is not safe to call any other method
// concurrently with Run.
type Orchestrator struct {
	resolver resolver.Resolver
	reply    *reply.Composer
	logger   logging.Logger
	metrics  *metrics.Metrics

	nextID      uint64
	sessions    map[uint64]*session.Session
	completions chan completionEvent
}

// New constructs an Orchestrator. Nothing is started until Run is called.
func New(r resolver.Resolver, composer *reply.Composer, logger logging.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		resolver:    r,
		reply:       composer,
		logger:      logger,
		metrics:     m,
		sessions:    make(map[uint64]*session.Session),
		completions: make(chan completionEvent, 64),
	}
}

type completionEvent struct {
	sessionID  uint64
	kind       string // "host" | "ptr" | "mx"
	preference int32  // meaningful only for kind == "host"
	resolver.Completion
}

// Run consumes requests until ctx is cancelled or requests is closed,
// interleaving them with sub-lookup completions on the same goroutine.
func (o *Orchestrator) Run(ctx context.Context, requests <-chan Request) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			o.dispatch(ctx, req)
		case ev := <-o.completions:
			o.processCompletion(ctx, ev)
		}
	}
}

func (o *Orchestrator) allocate(kind session.Kind, replyTag uint64, name string) (uint64, *session.Session) {
	o.nextID++
	id := o.nextID
	sess := session.New(kind, replyTag, name)
	o.sessions[id] = sess
	o.metrics.SessionsInFlight.Set(float64(len(o.sessions)))
	return id, sess
}

func (o *Orchestrator) retire(id uint64, status protocol.Status) {
	delete(o.sessions, id)
	o.metrics.SessionsInFlight.Set(float64(len(o.sessions)))
	o.metrics.TerminatorStatus.WithLabelValues(status.String()).Inc()
}

func (o *Orchestrator) dispatch(ctx context.Context, req Request) {
	switch req.Kind {
	case session.KindHostByName:
		o.dispatchHostByName(ctx, req)
	case session.KindPtrMTA, session.KindPtrSMTP:
		o.dispatchPtr(ctx, req)
	case session.KindMxByDomain:
		o.dispatchMxByDomain(ctx, req)
	case session.KindMxPreference:
		o.dispatchMxPreference(ctx, req)
	}
}

func (o *Orchestrator) dispatchHostByName(ctx context.Context, req Request) {
	id, sess := o.allocate(session.KindHostByName, req.ReplyTag, req.Name)
	sess.State = session.StateResolverPending
	sess.Outstanding = 1
	o.submitHost(ctx, id, normalizeHostLiteral(req.Name), session.DirectPreference)
}

// normalizeHostLiteral strips a bracketed-literal wrapper down to its bare
// address form before handing the name to the resolver, per spec §4.3's
// HostByName normalization step. A name that isn't a literal passes through
// unchanged; the resolver itself still accepts and resolves plain hostnames.
func normalizeHostLiteral(name string) string {
	if !strings.HasPrefix(name, "[") {
		return name
	}
	inner := strings.TrimPrefix(name, "[")
	inner = strings.TrimSuffix(inner, "]")
	if len(inner) > 5 && strings.EqualFold(inner[:5], "IPv6:") {
		return inner[5:]
	}
	return inner
}

func (o *Orchestrator) dispatchPtr(ctx context.Context, req Request) {
	id, sess := o.allocate(req.Kind, req.ReplyTag, req.Addr.String())
	sess.State = session.StateResolverPending
	ch := o.resolver.LookupPTRAsync(ctx, req.Addr)
	go func() {
		o.completions <- completionEvent{sessionID: id, kind: "ptr", Completion: <-ch}
	}()
}

func (o *Orchestrator) dispatchMxByDomain(ctx context.Context, req Request) {
	if addr, ok, _ := literal.Recognize(req.Name); ok {
		if err := o.reply.WriteAddress(session.AddressMessage{ReplyTag: req.ReplyTag, Addr: addr, Preference: session.DirectPreference}); err != nil {
			o.logger.Error("send address literal reply", zap.Error(err))
		}
		if err := o.reply.WriteTerminator(session.TerminatorMessage{ReplyTag: req.ReplyTag, Status: protocol.StatusOK}); err != nil {
			o.logger.Error("send terminator", zap.Error(err))
		}
		o.metrics.TerminatorStatus.WithLabelValues(protocol.StatusOK.String()).Inc()
		return
	}

	id, sess := o.allocate(session.KindMxByDomain, req.ReplyTag, req.Name)
	sess.State = session.StateResolverPending
	o.submitMx(ctx, id, req.Name)
}

func (o *Orchestrator) dispatchMxPreference(ctx context.Context, req Request) {
	id, sess := o.allocate(session.KindMxPreference, req.ReplyTag, req.Name)
	sess.State = session.StateResolverPending
	sess.Candidate = req.Candidate
	o.submitMx(ctx, id, req.Name)
}

func (o *Orchestrator) submitHost(ctx context.Context, sessionID uint64, name string, preference int32) {
	ch := o.resolver.LookupHostAsync(ctx, name)
	go func() {
		o.completions <- completionEvent{sessionID: sessionID, kind: "host", preference: preference, Completion: <-ch}
	}()
}

func (o *Orchestrator) submitMx(ctx context.Context, sessionID uint64, domain string) {
	ch := o.resolver.LookupMXAsync(ctx, domain)
	go func() {
		o.completions <- completionEvent{sessionID: sessionID, kind: "mx", Completion: <-ch}
	}()
}

func (o *Orchestrator) processCompletion(ctx context.Context, ev completionEvent) {
	sess, ok := o.sessions[ev.sessionID]
	if !ok {
		return
	}

	switch ev.kind {
	case "host":
		o.completeHost(ev.sessionID, sess, ev)
	case "ptr":
		o.completePtr(ev.sessionID, sess, ev)
	case "mx":
		o.completeMx(ctx, ev.sessionID, sess, ev)
	}
}

func (o *Orchestrator) completeHost(id uint64, sess *session.Session, ev completionEvent) {
	var emitted int
	var lookupErr error

	if ev.Err != nil {
		lookupErr = ev.Err
		// Spec §4.3's New->Done "submit fails -> Invalid" transition is about
		// a session's sole, initial submission (HostByName has exactly one
		// sub-lookup and no siblings). A submit failure on one leg of an
		// already-fanned-out MX session must not tear the whole session down
		// while sibling sub-lookups are still outstanding — it folds into
		// AggregateError and decrements Outstanding like any other failure.
		if sess.Kind == session.KindHostByName && isSubmitFailure(ev.Err) {
			o.finishFanout(id, sess, protocol.StatusInvalid)
			return
		}
	} else {
		result := ev.Result.(*resolver.HostResult)
		for _, addr := range result.Addrs {
			if err := o.reply.WriteAddress(session.AddressMessage{ReplyTag: sess.ReplyTag, Addr: addr, Preference: ev.preference}); err != nil {
				o.logger.Error("send address", zap.Error(err))
				continue
			}
			emitted++
		}
	}

	done := sess.RecordAddress(emitted, lookupErr)
	if !done {
		return
	}
	if sess.AggregateError != nil {
		o.logger.Debug("sub-lookup error recorded for session",
			zap.String("session", sess.ID),
			zap.Error(sess.AggregateError),
		)
	}
	o.finishFanout(id, sess, sess.TerminalStatus())
}

func (o *Orchestrator) finishFanout(id uint64, sess *session.Session, status protocol.Status) {
	sess.State = session.StateDone
	if err := o.reply.WriteTerminator(session.TerminatorMessage{ReplyTag: sess.ReplyTag, Status: status}); err != nil {
		o.logger.Error("send terminator", zap.Error(err))
	}
	o.retire(id, status)
}

func (o *Orchestrator) completePtr(id uint64, sess *session.Session, ev completionEvent) {
	msg := session.PTRReplyMessage{ReplyTag: sess.ReplyTag}

	switch {
	case ev.Err != nil && isSubmitFailure(ev.Err):
		msg.Status = protocol.StatusInvalid
	case ev.Err != nil:
		msg.Status = protocol.StatusNotFound
	default:
		result := ev.Result.(*resolver.PTRResult)
		msg.Status = protocol.StatusOK
		msg.Name = strings.TrimSuffix(result.Names[0], ".")
	}

	sess.State = session.StateDone
	if err := o.reply.WritePTRReply(msg); err != nil {
		o.logger.Error("send ptr reply", zap.Error(err))
	}
	o.retire(id, msg.Status)
}

func (o *Orchestrator) completeMx(ctx context.Context, id uint64, sess *session.Session, ev completionEvent) {
	if ev.Err != nil {
		o.completeMxError(ctx, id, sess, ev.Err)
		return
	}

	result := ev.Result.(*resolver.MXResult)
	if result.Truncated {
		o.logTruncation(sess, len(result.Records))
	}

	if sess.Kind == session.KindMxPreference {
		o.replyMxPreference(id, sess, result.Records)
		return
	}

	o.fanoutMx(ctx, id, sess, result.Records)
}

func (o *Orchestrator) completeMxError(ctx context.Context, id uint64, sess *session.Session, err error) {
	kind := resolverKindOf(err)

	if sess.Kind == session.KindMxPreference {
		status := statusForMxPreferenceError(kind)
		sess.State = session.StateDone
		if werr := o.reply.WriteMxPreferenceReply(session.MxPreferenceReplyMessage{ReplyTag: sess.ReplyTag, Status: status}); werr != nil {
			o.logger.Error("send mx preference reply", zap.Error(werr))
		}
		o.retire(id, status)
		return
	}

	if kind == errors.ResolverNoData {
		// Spec §4.3: NO_DATA is treated as an empty MX set, not an error —
		// fall through to the implicit-MX fallback.
		o.fanoutMx(ctx, id, sess, nil)
		return
	}

	status := statusForMxByDomainError(kind)
	o.finishFanout(id, sess, status)
}

// fanoutMx schedules one host sub-lookup per MX record found, or a single
// fallback sub-lookup at preference 0 on the origin name if records is
// empty (RFC 5321 §5.1 implicit MX).
func (o *Orchestrator) fanoutMx(ctx context.Context, id uint64, sess *session.Session, records []resolver.MXRecord) {
	sess.State = session.StateFanoutPending

	if len(records) == 0 {
		sess.Outstanding = 1
		o.submitHost(ctx, id, sess.Name, session.FallbackPreference)
		return
	}

	sess.Outstanding = len(records)
	for _, rec := range records {
		o.submitHost(ctx, id, rec.Exchange, int32(rec.Preference))
	}
}

func (o *Orchestrator) replyMxPreference(id uint64, sess *session.Session, records []resolver.MXRecord) {
	var status protocol.Status
	var preference uint16

	status = protocol.StatusNotFound
	for _, rec := range records {
		if strings.EqualFold(rec.Exchange, sess.Candidate) {
			status = protocol.StatusOK
			preference = rec.Preference
			break
		}
	}

	sess.State = session.StateDone
	if err := o.reply.WriteMxPreferenceReply(session.MxPreferenceReplyMessage{ReplyTag: sess.ReplyTag, Status: status, Preference: preference}); err != nil {
		o.logger.Error("send mx preference reply", zap.Error(err))
	}
	o.retire(id, status)
}

func (o *Orchestrator) logTruncation(sess *session.Session, recordCount int) {
	var warn *multierror.Error
	warn = multierror.Append(warn, fmt.Errorf("mx answer section decode stopped early after %d usable record(s)", recordCount))
	if sess.AggregateError != nil {
		warn = multierror.Append(warn, sess.AggregateError)
	}
	o.logger.Warn("mx decode truncated, proceeding with partial record set",
		zap.String("session", sess.ID),
		zap.String("domain", sess.Name),
		zap.Error(warn.ErrorOrNil()),
	)
	o.metrics.DecodeTruncations.Inc()
}

func isSubmitFailure(err error) bool {
	return resolverKindOf(err) == errors.ResolverSubmitFailed
}

func resolverKindOf(err error) errors.ResolverKind {
	var rerr *errors.ResolverError
	if stderrors.As(err, &rerr) {
		return rerr.Kind
	}
	return errors.ResolverTransient
}

func statusForMxByDomainError(kind errors.ResolverKind) protocol.Status {
	switch kind {
	case errors.ResolverNXDomain:
		return protocol.StatusNoName
	case errors.ResolverNoRecovery:
		return protocol.StatusInvalid
	case errors.ResolverSubmitFailed:
		return protocol.StatusInvalid
	default:
		return protocol.StatusRetry
	}
}

func statusForMxPreferenceError(kind errors.ResolverKind) protocol.Status {
	switch kind {
	case errors.ResolverNXDomain:
		return protocol.StatusNoName
	case errors.ResolverNoRecovery, errors.ResolverNoData:
		return protocol.StatusInvalid
	case errors.ResolverSubmitFailed:
		return protocol.StatusInvalid
	default:
		return protocol.StatusRetry
	}
}
