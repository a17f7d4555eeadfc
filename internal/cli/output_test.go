package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "bad", errors.New("x"))), ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapExitError(ExitCommandError, "ingestion aborted", cause)
	assert.Equal(t, "ingestion aborted: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad", NewExitError(ExitFailure, "bad").Error())
}

func TestOutputFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	assert.NoError(t, f.Success(map[string]int{"a": 1}, func(w io.Writer) { fmt.Fprint(w, "plain") }))
	assert.Equal(t, "plain", buf.String())

	buf.Reset()
	f = &OutputFormatter{Format: "json", Writer: &buf, TraceID: "run-1"}
	assert.NoError(t, f.Success(map[string]int{"a": 1}, func(io.Writer) { t.Fatal("text renderer called") }))
	assert.JSONEq(t, `{"status":"ok","data":{"a":1},"trace_id":"run-1"}`, buf.String())
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"site", "dqi"}, [][]string{{"101", "82"}, {"2040", "7"}})
	assert.Equal(t, "SITE  DQI\n101   82\n2040  7\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
