package docfill

import (
	"fmt"
	"strings"
)

// TemplateNotFoundError indicates that the template could not be fetched
// from the blob store.
type TemplateNotFoundError struct {
	Key   string
	Cause error
}

func (e *TemplateNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template not found: %s: %v", e.Key, e.Cause)
	}
	return fmt.Sprintf("template not found: %s", e.Key)
}

func (e *TemplateNotFoundError) Unwrap() error {
	return e.Cause
}

// NewTemplateNotFoundError creates a new template-not-found error
func NewTemplateNotFoundError(key string, cause error) error {
	return &TemplateNotFoundError{Key: key, Cause: cause}
}

// ImageError indicates that a single image token could not be filled, either
// because its base64 payload was malformed or because the decoded bytes are
// not a recognizable image. It aborts only that insertion; other image tokens
// in the same document are still processed.
type ImageError struct {
	Token string
	Cause error
}

func (e *ImageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("image error for token %s: %v", e.Token, e.Cause)
	}
	return fmt.Sprintf("image error for token %s", e.Token)
}

func (e *ImageError) Unwrap() error {
	return e.Cause
}

// NewImageError creates a new image error for the given token name
func NewImageError(token string, cause error) error {
	return &ImageError{Token: token, Cause: cause}
}

// StoreError indicates that the filled document was computed but could not be
// written to the blob store. The caller may retry the store step alone.
type StoreError struct {
	Key   string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store error for key %s: %v", e.Key, e.Cause)
	}
	return fmt.Sprintf("store error for key %s", e.Key)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new store error
func NewStoreError(key string, cause error) error {
	return &StoreError{Key: key, Cause: cause}
}

// DocumentError represents an error during document parse or repackage
// operations.
type DocumentError struct {
	Operation string
	Part      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Part != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Part, e.Cause)
	} else if e.Part != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Part)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, part string, cause error) error {
	return &DocumentError{Operation: operation, Part: part, Cause: cause}
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns the collected errors
func (m *MultiError) Errors() []error {
	return m.errors
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// IsTemplateNotFound checks if an error is a template-not-found error
func IsTemplateNotFound(err error) bool {
	_, ok := err.(*TemplateNotFoundError)
	return ok
}

// IsImageError checks if an error is an image error
func IsImageError(err error) bool {
	_, ok := err.(*ImageError)
	return ok
}

// IsStoreError checks if an error is a store error
func IsStoreError(err error) bool {
	_, ok := err.(*StoreError)
	return ok
}

// IsDocumentError checks if an error is a document error
func IsDocumentError(err error) bool {
	_, ok := err.(*DocumentError)
	return ok
}
