package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/joeyyy09/clinical-flow/internal/errors"
)

func touch(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiscoveryList(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		wantNames []string
	}{
		{
			name:      "flat directory",
			files:     []string{"b.xlsx", "a.xls", "notes.txt"},
			wantNames: []string{"a.xls", "b.xlsx", "notes.txt"},
		},
		{
			name:      "nested directories in lexical order",
			files:     []string{"study1/Global_Missing_Pages.xlsx", "study1/sub/EDC_Metrics.xlsx", "a_top.xlsx"},
			wantNames: []string{"a_top.xlsx", "Global_Missing_Pages.xlsx", "EDC_Metrics.xlsx"},
		},
		{
			name:      "empty directory",
			files:     nil,
			wantNames: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(root, f), "x")
			}

			got, err := NewDiscovery("", nil).List(context.Background(), root)
			require.NoError(t, err)

			var names []string
			for _, f := range got {
				names = append(names, f.Name)
				assert.True(t, filepath.IsAbs(f.Path))
				assert.Equal(t, int64(1), f.Size)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestDiscoveryRelativeRoot(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "raw", "Study 1_EDC_Metrics.xlsx"), "x")

	got, err := NewDiscovery(base, nil).List(context.Background(), "raw")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(base, "raw", "Study 1_EDC_Metrics.xlsx"), got[0].Path)
}

func TestDiscoveryFileRoot(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Study 1_eSAE.xlsx")
	touch(t, path, "abc")

	got, err := NewDiscovery("", nil).List(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, path, got[0].Path)
	assert.Equal(t, int64(3), got[0].Size)
}

func TestDiscoveryMissingRoot(t *testing.T) {
	_, err := NewDiscovery("", nil).List(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootNotFound))
}

func TestDiscoveryUnreadableRoot(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}

	root := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(root, 0000))
	defer os.Chmod(root, 0755)

	_, err := NewDiscovery("", nil).List(context.Background(), root)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRootNotFound))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSource))
}

func TestDiscoveryCancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.xlsx"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDiscovery("", nil).List(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoveryReadFile(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "raw", "a.xlsx"), "payload")

	d := NewDiscovery(base, nil)
	data, err := d.ReadFile(context.Background(), filepath.Join("raw", "a.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = d.ReadFile(context.Background(), "raw/missing.xlsx")
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	local := t.TempDir()
	touch(t, filepath.Join(local, "a.xlsx"), "local")

	fake := &fakeS3{objects: map[string]string{"exports/b.xlsx": "remote"}}
	r := &Router{Local: NewDiscovery("", nil), S3: NewS3Source(fake)}

	ctx := context.Background()

	got, err := r.List(ctx, local)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = r.List(ctx, "s3://bucket/exports")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s3://bucket/exports/b.xlsx", got[0].Path)

	data, err := r.ReadFile(ctx, got[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))

	_, err = (&Router{Local: NewDiscovery("", nil)}).List(ctx, "s3://bucket/x")
	assert.Error(t, err)
}
