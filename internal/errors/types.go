package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ExtractError represents a failure of one extraction run with its category and context
type ExtractError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Err       error     `json:"-"`
}

// ErrorType represents the categories of extraction failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeArchiveCorrupt
	ErrorTypeNoAttachmentsFound
	ErrorTypeNoPDFAttachmentsFound
	ErrorTypeEntryTooLarge
	ErrorTypeMergeFailure
	ErrorTypeExtractionFailed
	ErrorTypeInvalidInput
)

// Sentinels for use with errors.Is. Matching compares the error type only.
var (
	ErrArchiveCorrupt        = &ExtractError{Type: ErrorTypeArchiveCorrupt}
	ErrNoAttachmentsFound    = &ExtractError{Type: ErrorTypeNoAttachmentsFound}
	ErrNoPDFAttachmentsFound = &ExtractError{Type: ErrorTypeNoPDFAttachmentsFound}
	ErrEntryTooLarge         = &ExtractError{Type: ErrorTypeEntryTooLarge}
	ErrMergeFailure          = &ExtractError{Type: ErrorTypeMergeFailure}
	ErrExtractionFailed      = &ExtractError{Type: ErrorTypeExtractionFailed}
	ErrInvalidInput          = &ExtractError{Type: ErrorTypeInvalidInput}
)

// Error implements the error interface
func (e *ExtractError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Type.Description()
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Context)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type.String(), msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type.String(), msg)
}

// Unwrap returns the underlying cause
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an ExtractError of the same type
func (e *ExtractError) Is(target error) bool {
	t, ok := target.(*ExtractError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeArchiveCorrupt:
		return "ARCHIVE_CORRUPT"
	case ErrorTypeNoAttachmentsFound:
		return "NO_ATTACHMENTS_FOUND"
	case ErrorTypeNoPDFAttachmentsFound:
		return "NO_PDF_ATTACHMENTS_FOUND"
	case ErrorTypeEntryTooLarge:
		return "ENTRY_TOO_LARGE"
	case ErrorTypeMergeFailure:
		return "MERGE_FAILURE"
	case ErrorTypeExtractionFailed:
		return "EXTRACTION_FAILED"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	default:
		return "UNKNOWN"
	}
}

// Description returns the user-facing message for an error type
func (et ErrorType) Description() string {
	switch et {
	case ErrorTypeArchiveCorrupt:
		return "failed to read the GoodNotes file, it may be corrupted"
	case ErrorTypeNoAttachmentsFound:
		return "no files found in the attachments folder"
	case ErrorTypeNoPDFAttachmentsFound:
		return "no PDF files found in the attachments folder"
	case ErrorTypeEntryTooLarge:
		return "archive entry exceeds the size limit"
	case ErrorTypeMergeFailure:
		return "failed to merge PDF attachments"
	case ErrorTypeExtractionFailed:
		return "error reading file"
	case ErrorTypeInvalidInput:
		return "invalid input"
	default:
		return "unknown error"
	}
}

// Hint suggests what the user can do about an error of this type, or
// returns "" when there is nothing to suggest
func (et ErrorType) Hint() string {
	switch et {
	case ErrorTypeArchiveCorrupt:
		return "check that the file is a complete .goodnotes export"
	case ErrorTypeNoAttachmentsFound, ErrorTypeNoPDFAttachmentsFound:
		return "the notebook holds no imported PDF documents to recover"
	case ErrorTypeEntryTooLarge:
		return "raise --maxentrysize to allow larger attachments"
	default:
		return ""
	}
}

// IsFatal reports whether an error of this type aborts the whole run.
// A merge failure only drops the combined document.
func (et ErrorType) IsFatal() bool {
	return et != ErrorTypeMergeFailure
}

// New creates a new ExtractError
func New(errorType ErrorType, message string) *ExtractError {
	return &ExtractError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps a cause as an ExtractError of the given type
func Wrap(errorType ErrorType, err error, message string) *ExtractError {
	return &ExtractError{
		Type:      errorType,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// WithContext adds context to an existing ExtractError
func (e *ExtractError) WithContext(context string) *ExtractError {
	e.Context = context
	return e
}

// WithPath adds the archive entry or file path to an existing ExtractError
func (e *ExtractError) WithPath(path string) *ExtractError {
	e.Path = path
	return e
}

// TypeOf returns the ErrorType of the first ExtractError in err's chain
func TypeOf(err error) ErrorType {
	var ee *ExtractError
	if stderrors.As(err, &ee) {
		return ee.Type
	}
	return ErrorTypeUnknown
}
