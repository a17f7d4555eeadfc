// Package shared holds helpers used across packages that belong to no
// single layer.
//
// The testutil subpackage builds fixture workbooks with excelize and
// captures slog output so tests can assert on log records:
//
//	logger, logs := testutil.NewTestLogger(t)
//	testutil.WriteWorkbook(t, path, rows)
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "root not found")
package shared
