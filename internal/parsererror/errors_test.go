package parsererror

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeError(t *testing.T) {
	err := &DecodeError{
		FilePath: "statement.csv",
		Tried:    []string{"utf-8-sig", "utf-8"},
		Err:      io.ErrUnexpectedEOF,
	}

	assert.Contains(t, err.Error(), "statement.csv")
	assert.Contains(t, err.Error(), "utf-8-sig, utf-8")
	assert.Contains(t, err.Error(), "re-save as CSV UTF-8")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	wrapped := fmt.Errorf("preview: %w", err)
	var decodeErr *DecodeError
	require.True(t, errors.As(wrapped, &decodeErr))
	assert.Equal(t, "statement.csv", decodeErr.FilePath)
}

func TestDecodeError_NoPath(t *testing.T) {
	err := &DecodeError{Tried: []string{"latin-1"}}
	assert.Contains(t, err.Error(), "upload")
	assert.Nil(t, err.Unwrap())
}

func TestParseError(t *testing.T) {
	base := errors.New("not a number")
	err := &ParseError{Parser: "rowparser", Field: "debit", Value: "abc", Err: base}

	assert.Equal(t, "rowparser: failed to parse debit='abc': not a number", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Subject: "storage.driver", Reason: "unknown driver \"redis\""}
	assert.Equal(t, "validation failed for storage.driver: unknown driver \"redis\"", err.Error())
}

func TestCategorizationError(t *testing.T) {
	err := &CategorizationError{Transaction: "NETFLIX.COM", Strategy: "ai_fallback", Err: errors.New("deadline exceeded")}
	assert.Contains(t, err.Error(), "NETFLIX.COM")
	assert.Contains(t, err.Error(), "ai_fallback")
	assert.EqualError(t, errors.Unwrap(err), "deadline exceeded")
}

func TestInvalidFormatError(t *testing.T) {
	err := &InvalidFormatError{FilePath: "empty.csv", ExpectedFormat: "CSV", Msg: "file has no rows"}
	assert.Equal(t, "invalid format in file 'empty.csv': file has no rows. Expected: CSV", err.Error())
	assert.Nil(t, err.Unwrap())
}
