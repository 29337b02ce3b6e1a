package query

import (
	"strings"
	"unicode"
)

// Kind is the classification of a search term.
type Kind string

// Query kinds.
const (
	// Document is an 11-digit CPF or NIS number.
	Document Kind = "cpf_nis"
	// Name is any other term, searched as a person name.
	Name Kind = "nome"
)

// DocumentLength is the number of digits in a CPF/NIS.
const DocumentLength = 11

// Query is a sanitized, classified search request. Immutable once built.
type Query struct {
	term   string
	filter string
	kind   Kind
}

// New sanitizes raw and classifies it. filter passes through unchanged;
// an empty filter means no refinement. Any input is accepted.
func New(raw, filter string) Query {
	term := Sanitize(raw)
	kind := Name
	if isDocument(term) {
		kind = Document
	}
	return Query{term: term, filter: filter, kind: kind}
}

// Term returns the sanitized term typed into the portal.
func (q Query) Term() string { return q.term }

// Filter returns the refinement filter, possibly empty.
func (q Query) Filter() string { return q.filter }

// HasFilter reports whether a refinement filter was requested.
func (q Query) HasFilter() bool { return q.filter != "" }

// Kind returns the term classification.
func (q Query) Kind() Kind { return q.kind }

// Sanitize drops every rune that is not a letter, digit or whitespace.
// Letters are Unicode letters on purpose: an ASCII-only filter would turn
// "José" into "Jos" and search for the wrong person.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

func isDocument(term string) bool {
	if len(term) != DocumentLength {
		return false
	}
	for i := 0; i < len(term); i++ {
		if term[i] < '0' || term[i] > '9' {
			return false
		}
	}
	return true
}
