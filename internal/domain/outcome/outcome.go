// Package outcome is the tagged result of one collection: OK, NotFound or Fault.
package outcome

import (
	"errors"

	"github.com/kailas-cloud/transparencia/internal/domain"
	"github.com/kailas-cloud/transparencia/internal/domain/record"
)

// Kind tags an Outcome.
type Kind string

// Outcome kinds.
const (
	KindOK       Kind = "ok"
	KindNotFound Kind = "not_found"
	KindFault    Kind = "fault"
)

// FaultKind classifies a Fault for logging and metrics.
type FaultKind string

// Fault kinds.
const (
	FaultNone           FaultKind = ""
	FaultExtraction     FaultKind = "extraction"
	FaultInfrastructure FaultKind = "infrastructure"
)

// Outcome is the result of a collection.
type Outcome struct {
	kind    Kind
	result  record.CollectionResult
	message string
	fault   FaultKind
	err     error
}

// OK wraps a successful collection.
func OK(r record.CollectionResult) Outcome {
	return Outcome{kind: KindOK, result: r}
}

// NotFound is a domain validation failure with a client-facing message.
func NotFound(message string) Outcome {
	return Outcome{kind: KindNotFound, message: message}
}

// Fault is any other failure.
func Fault(kind FaultKind, err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = domain.MsgUnexpected
	}
	return Outcome{kind: KindFault, fault: kind, message: msg, err: err}
}

// FromError classifies a pipeline error.
func FromError(err error) Outcome {
	var nf *domain.NotFoundError
	var fnf *domain.FilterNotFoundError
	switch {
	case errors.As(err, &nf):
		return NotFound(nf.Message)
	case errors.As(err, &fnf):
		return NotFound(fnf.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrFilterNotFound):
		return NotFound(err.Error())
	case errors.Is(err, domain.ErrExtraction):
		return Fault(FaultExtraction, err)
	case errors.Is(err, domain.ErrInfrastructure):
		return Fault(FaultInfrastructure, err)
	default:
		// Unclassified errors come from outside the pipeline steps.
		return Fault(FaultInfrastructure, err)
	}
}

// Kind returns the tag.
func (o Outcome) Kind() Kind { return o.kind }

// Result returns the collected record. Only meaningful for KindOK.
func (o Outcome) Result() record.CollectionResult { return o.result }

// Message returns the client-facing message for NotFound and Fault.
func (o Outcome) Message() string { return o.message }

// FaultKind returns the fault classification, FaultNone unless KindFault.
func (o Outcome) FaultKind() FaultKind { return o.fault }

// Err returns the underlying error of a Fault.
func (o Outcome) Err() error { return o.err }

// Label is the metrics label for the outcome.
func (o Outcome) Label() string {
	if o.kind == KindFault {
		return string(o.kind) + "_" + string(o.fault)
	}
	return string(o.kind)
}
