package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentedLog_AppendIsWriteOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commented.txt")
	l, err := OpenCommentedLog(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.False(t, l.Contains("1"))

	require.NoError(t, l.Append("1"))
	require.NoError(t, l.Append("2"))
	require.NoError(t, l.Append("1"))
	assert.True(t, l.Contains("1"))
	assert.Equal(t, 2, l.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(data))
}

func TestCommentedLog_ReloadsExistingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commented.txt")
	require.NoError(t, os.WriteFile(path, []byte("10\n\n20\n"), 0o644))

	l, err := OpenCommentedLog(path)
	require.NoError(t, err)
	assert.True(t, l.Contains("10"))
	assert.True(t, l.Contains("20"))
	assert.Equal(t, 2, l.Len())

	n, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
