package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected string
	}{
		{ErrorTypeArchiveCorrupt, "ARCHIVE_CORRUPT"},
		{ErrorTypeNoAttachmentsFound, "NO_ATTACHMENTS_FOUND"},
		{ErrorTypeNoPDFAttachmentsFound, "NO_PDF_ATTACHMENTS_FOUND"},
		{ErrorTypeEntryTooLarge, "ENTRY_TOO_LARGE"},
		{ErrorTypeMergeFailure, "MERGE_FAILURE"},
		{ErrorTypeExtractionFailed, "EXTRACTION_FAILED"},
		{ErrorTypeInvalidInput, "INVALID_INPUT"},
		{ErrorTypeUnknown, "UNKNOWN"},
		{ErrorType(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.errType.String())
		})
	}
}

func TestErrorType_IsFatal(t *testing.T) {
	assert.True(t, ErrorTypeArchiveCorrupt.IsFatal())
	assert.True(t, ErrorTypeNoAttachmentsFound.IsFatal())
	assert.True(t, ErrorTypeNoPDFAttachmentsFound.IsFatal())
	assert.True(t, ErrorTypeExtractionFailed.IsFatal())
	assert.False(t, ErrorTypeMergeFailure.IsFatal())
}

func TestExtractError_Error(t *testing.T) {
	err := New(ErrorTypeNoAttachmentsFound, "")
	assert.Equal(t, "[NO_ATTACHMENTS_FOUND] no files found in the attachments folder", err.Error())

	err = New(ErrorTypeMergeFailure, "cannot load document").WithPath("attachments/doc1").WithContext("page tree")
	assert.Equal(t, "[MERGE_FAILURE] cannot load document (attachments/doc1): page tree", err.Error())

	wrapped := Wrap(ErrorTypeArchiveCorrupt, io.ErrUnexpectedEOF, "zip: not a valid zip file")
	assert.Contains(t, wrapped.Error(), "ARCHIVE_CORRUPT")
	assert.Contains(t, wrapped.Error(), io.ErrUnexpectedEOF.Error())
}

func TestExtractError_IsAndAs(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := fmt.Errorf("run failed: %w", Wrap(ErrorTypeArchiveCorrupt, cause, "bad zip"))

	assert.True(t, stderrors.Is(err, ErrArchiveCorrupt))
	assert.False(t, stderrors.Is(err, ErrMergeFailure))
	assert.True(t, stderrors.Is(err, cause))

	var ee *ExtractError
	assert.True(t, stderrors.As(err, &ee))
	assert.Equal(t, ErrorTypeArchiveCorrupt, ee.Type)
	assert.True(t, TypeOf(err).IsFatal())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeMergeFailure, TypeOf(New(ErrorTypeMergeFailure, "x")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(io.EOF))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestErrorType_Hint(t *testing.T) {
	assert.Contains(t, ErrorTypeEntryTooLarge.Hint(), "--maxentrysize")
	assert.Contains(t, ErrorTypeArchiveCorrupt.Hint(), ".goodnotes")
	assert.Equal(t, ErrorTypeNoAttachmentsFound.Hint(), ErrorTypeNoPDFAttachmentsFound.Hint())
	assert.Empty(t, ErrorTypeInvalidInput.Hint())
	assert.Empty(t, ErrorTypeUnknown.Hint())
}
