// Package errs defines the failure taxonomy shared by the resolver, the
// dispatcher and the pipeline.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an Error with the category that decides how it is narrated.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAmbiguous
	KindRemoteFailure
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAmbiguous:
		return "ambiguous"
	case KindRemoteFailure:
		return "remote_failure"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Entity levels used in errors and narratives.
const (
	EntityBoard  = "board"
	EntityList   = "list"
	EntityCard   = "card"
	EntityMember = "member"
	EntityEvent  = "event"
)

// Error is the single error type produced by the resolution and mutation
// layers. Detail carries upstream diagnostics and is for logs only.
type Error struct {
	Kind       Kind
	Entity     string
	Term       string
	Op         string
	Candidates []string
	// Status is the upstream HTTP status of a RemoteFailure, 0 when the
	// call never got a response.
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(" [" + e.Op + "]")
	}
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s %q", e.Entity, e.Term)
	}
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, " matches %s", strings.Join(e.Candidates, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, errs.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && t.Entity == "" && t.Term == ""
}

// Sentinels for errors.Is.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAmbiguous     = &Error{Kind: KindAmbiguous}
	ErrRemoteFailure = &Error{Kind: KindRemoteFailure}
	ErrValidation    = &Error{Kind: KindValidation}
)

// upstreamDetailer is implemented by transport errors that carry the raw
// response payload.
type upstreamDetailer interface {
	UpstreamDetail() string
}

type upstreamStatuser interface {
	UpstreamStatus() int
}

func NotFound(entity, term string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Term: term}
}

func Ambiguous(entity, term string, candidates []string) *Error {
	return &Error{Kind: KindAmbiguous, Entity: entity, Term: term, Candidates: candidates}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// Remote wraps a failed listing or mutation call. The upstream payload, when
// the cause exposes one, lands in Detail.
func Remote(op, entity, term string, cause error) *Error {
	e := &Error{Kind: KindRemoteFailure, Op: op, Entity: entity, Term: term, Err: cause}

	var d upstreamDetailer
	if errors.As(cause, &d) {
		e.Detail = d.UpstreamDetail()
	} else if cause != nil {
		e.Detail = cause.Error()
	}

	var st upstreamStatuser
	if errors.As(cause, &st) {
		e.Status = st.UpstreamStatus()
	}
	return e
}

// Summary is a short category for a failure, safe to persist or show. It
// never includes Detail.
func (e *Error) Summary() string {
	switch {
	case e == nil:
		return ""
	case e.Kind == KindRemoteFailure && e.Status != 0:
		return fmt.Sprintf("%s failed with status %d", e.Op, e.Status)
	case e.Kind == KindRemoteFailure:
		return e.Op + " failed: no response"
	case e.Entity != "":
		return fmt.Sprintf("%s: %s %q", e.Kind, e.Entity, e.Term)
	}
	return e.Kind.String()
}

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := From(err); ok {
		return e.Kind
	}
	return KindUnknown
}
