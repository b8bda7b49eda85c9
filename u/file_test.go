package u

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert"
)

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "store.txt")
	assert.False(t, FileExists(path))

	assert.NoError(t, EnsureParentDir(path))
	st, err := os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
	assert.True(t, st.IsDir())
	assert.False(t, FileExists(filepath.Dir(path)))

	assert.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	assert.True(t, FileExists(path))

	// relative file in current dir has nothing to create
	assert.NoError(t, EnsureParentDir("store.txt"))
}

func TestFileExistsFollowsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "store.txt")
	assert.NoError(t, os.WriteFile(target, []byte("day=Mon\n"), 0644))
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %s", err)
	}
	assert.True(t, FileExists(link))

	// dangling link
	assert.NoError(t, os.Remove(target))
	assert.False(t, FileExists(link))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "12 bytes", FormatSize(12))
	assert.Equal(t, "1 kB", FormatSize(1024))
	assert.Equal(t, "1.50 kB", FormatSize(1536))
	assert.Equal(t, "2 MB", FormatSize(2*1024*1024))
}
