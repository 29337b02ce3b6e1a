package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a search that returned zero results.
	ErrNotFound = errors.New("not found")
	// ErrFilterNotFound signals a refinement filter that matches no option on the page.
	ErrFilterNotFound = errors.New("filter not found")
	// ErrExtraction signals a page whose structure does not match what the extractor expects.
	ErrExtraction = errors.New("extraction failed")
	// ErrInfrastructure signals a browser, navigation or network failure.
	ErrInfrastructure = errors.New("infrastructure failure")
)

// Client-facing messages.
const (
	// MsgDocumentNotFound is returned when a CPF/NIS search yields nothing.
	// A zero-result document search usually means the portal timed out, not a wrong input.
	MsgDocumentNotFound = "Não foi possível retornar os dados no tempo de resposta solicitado"
	// MsgUnexpected replaces empty fault messages.
	MsgUnexpected = "Erro inesperado"
	// MsgUnauthorized is returned for rejected tokens.
	MsgUnauthorized = "Não autorizado"
)

// NotFoundError wraps ErrNotFound with the message shown to the caller.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewDocumentNotFound creates the zero-result error for document searches.
func NewDocumentNotFound() error {
	return &NotFoundError{Message: MsgDocumentNotFound}
}

// NewNameNotFound creates the zero-result error for name searches.
// term is the term displayed by the portal, not the raw input.
func NewNameNotFound(term string) error {
	return &NotFoundError{Message: fmt.Sprintf("Foram encontrados 0 resultados para o termo %s", term)}
}

// FilterNotFoundError wraps ErrFilterNotFound with the requested filter text.
type FilterNotFoundError struct {
	Filter string
}

func (e *FilterNotFoundError) Error() string {
	return fmt.Sprintf("Filtro de busca não encontrado: %s", e.Filter)
}

func (e *FilterNotFoundError) Unwrap() error { return ErrFilterNotFound }

// NewFilterNotFound creates a filter lookup error.
func NewFilterNotFound(filter string) error {
	return &FilterNotFoundError{Filter: filter}
}

// Extractionf formats an error wrapping ErrExtraction.
func Extractionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExtraction, fmt.Sprintf(format, args...))
}

// infrastructureError marks err as ErrInfrastructure without changing its message.
type infrastructureError struct {
	err error
}

func (e *infrastructureError) Error() string { return e.err.Error() }

func (e *infrastructureError) Unwrap() error { return e.err }

func (e *infrastructureError) Is(target error) bool { return target == ErrInfrastructure }

// Infrastructure tags err as an infrastructure failure. Errors already
// classified (not found, filter not found, extraction, infrastructure) and
// nil are returned unchanged.
func Infrastructure(err error) error {
	if err == nil || Classified(err) {
		return err
	}
	return &infrastructureError{err: err}
}

// Classified reports whether err wraps one of the domain sentinels.
func Classified(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrFilterNotFound) ||
		errors.Is(err, ErrExtraction) ||
		errors.Is(err, ErrInfrastructure)
}
