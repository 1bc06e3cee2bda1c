package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMaxDepth is recorded when descent goes deeper than the configured limit.
	ErrMaxDepth = errors.New("maximum traversal depth exceeded")
	// ErrNoLetters means the brand index exposed no glossary anchors.
	ErrNoLetters = errors.New("no letter anchors found on brand index")
)

// FetchError is a transport or HTTP failure for one URL.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means a document was received but could not be read as HTML.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExportError is fatal: the run cannot deliver its output.
type ExportError struct {
	Sink string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s: %v", e.Sink, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Failure is the diagnostic record of one node that could not be harvested.
type Failure struct {
	Component  string `json:"component"` // "brand" or "category"
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Err        error  `json:"-"`
}

func (f Failure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

func (f Failure) String() string {
	return fmt.Sprintf("%s %q (%s): %s", f.Component, f.Name, f.Identifier, f.Message())
}
