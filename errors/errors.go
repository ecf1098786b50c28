package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrNotFound indicates a requested context item does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrParse indicates a locality document could not be turned into a knowledge base
	ErrParse = errors.New("document parse failed")

	// ErrNoKnowledgeBase indicates no locality document has been loaded yet
	ErrNoKnowledgeBase = errors.New("no local context is loaded")

	// ErrDocumentRead indicates the locality document could not be read
	ErrDocumentRead = errors.New("locality document unreadable")
)

// ParseError reports a locality document that cannot produce a usable
// knowledge base. Section names the part of the document at fault.
type ParseError struct {
	Section string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %q: %s", e.Section, e.Reason)
}

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError builds a ParseError for the named section.
func NewParseError(section, reason string) *ParseError {
	return &ParseError{Section: section, Reason: reason}
}

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsParseError checks if error is a document parse error
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsNoKnowledgeBase checks if error reports a missing knowledge base
func IsNoKnowledgeBase(err error) bool {
	return errors.Is(err, ErrNoKnowledgeBase)
}

// AsParseError extracts a ParseError from the chain, if any.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
