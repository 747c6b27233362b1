package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldConstantsAreUnique(t *testing.T) {
	all := []string{
		FieldFile, FieldOwner, FieldRow, FieldStage, FieldCategory, FieldSource,
		FieldReason, FieldOperation, FieldError, FieldDuration, FieldCount,
		FieldEncoding, FieldPattern, FieldKeyType, FieldInputFile, FieldOutputFile,
	}

	seen := make(map[string]bool, len(all))
	for _, name := range all {
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate field name %q", name)
		seen[name] = true
	}
}
