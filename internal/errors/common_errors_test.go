package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  NewNotFoundError("site 204"),
			want: "[NOT_FOUND] site 204 not found",
		},
		{
			name: "with cause",
			err:  NewParsingError("failed to open workbook", errors.New("zip: not a valid zip file")),
			want: "[PARSING] failed to open workbook: zip: not a valid zip file",
		},
		{
			name: "with sorted context",
			err: NewStorageError("insert failed", fs.ErrClosed).
				WithContext("table", "missing_pages").
				WithContext("file", "Study 1_Global_Missing_Pages.xlsx"),
			want: "[STORAGE] insert failed (file=Study 1_Global_Missing_Pages.xlsx, table=missing_pages): file already closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fs.ErrPermission
	err := NewSourceError("root not readable", cause)

	assert.True(t, errors.Is(err, fs.ErrPermission))

	wrapped := fmt.Errorf("ingest: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeSource, appErr.Type)
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"parsing", NewParsingError("x", nil), ErrTypeParsing},
		{"wrapped config", fmt.Errorf("load: %w", NewConfigError("bad", nil)), ErrTypeConfig},
		{"validation", NewValidationError("comment required", nil), ErrTypeValidation},
		{"classification", NewClassificationError("legacy format", nil), ErrTypeClassification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			if tt.want != "" {
				assert.True(t, IsType(tt.err, tt.want))
			}
		})
	}
}

func TestWithContext_InitializesMap(t *testing.T) {
	err := &AppError{Type: ErrTypeStorage, Message: "x"}
	err.WithContext("k", 1)
	require.NotNil(t, err.Context)
	assert.Equal(t, 1, err.Context["k"])
}
