package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Moon Show.txt"), []byte(sourceForm), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.docx"), []byte("not a zip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte("%PDF"), 0o644))

	lib := newLibrary(t)

	report, err := ImportDirectory(context.Background(), lib, dir, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalAttempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Failed)

	entry := lib.Entry("moon-show")
	require.NotNil(t, entry)
	assert.Equal(t, "Moon Show.txt", entry.SourceName)
	assert.Equal(t, "txt", entry.Format)

	again, err := ImportDirectory(context.Background(), lib, dir, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Skipped)
}

func TestImportDirectoryCanceled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(sourceForm), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ImportDirectory(ctx, newLibrary(t), dir, ImportOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = ImportDirectory(context.Background(), newLibrary(t), filepath.Join(dir, "missing"), ImportOptions{})
	assert.Error(t, err)
}
