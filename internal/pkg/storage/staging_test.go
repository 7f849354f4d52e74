package storage

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageWritesAndReportsSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	staging, err := NewStaging(fs, "/staging")
	require.NoError(t, err)

	staged, err := staging.Stage("report.pdf", strings.NewReader("hello world"))
	require.NoError(t, err)

	assert.Equal(t, int64(11), staged.Size)
	assert.True(t, strings.HasPrefix(staged.Path, "/staging/upload-"))
	assert.True(t, strings.HasSuffix(staged.Path, "-report.pdf"))

	rc, err := staging.Open(staged.Path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello world", string(data))

	require.NoError(t, staging.Remove(staged.Path))
	exists, err := afero.Exists(fs, staged.Path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStageSameNameTwiceUsesDistinctPaths(t *testing.T) {
	staging, err := NewStaging(afero.NewMemMapFs(), "/staging")
	require.NoError(t, err)

	first, err := staging.Stage("a.txt", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := staging.Stage("a.txt", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestStageRemovesPartialFileOnReadError(t *testing.T) {
	fs := afero.NewMemMapFs()
	staging, err := NewStaging(fs, "/staging")
	require.NoError(t, err)

	_, err = staging.Stage("a.txt", failingReader{})
	require.Error(t, err)

	entries, err := afero.ReadDir(fs, "/staging")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
