package disk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-desk/internal/apperror"
)

func newTestStore(t *testing.T) *MediaStore {
	t.Helper()
	s, err := NewMediaStore(filepath.Join(t.TempDir(), "media"))
	require.NoError(t, err)
	return s
}

func TestSave(t *testing.T) {
	s := newTestStore(t)

	name, n, err := s.Save(context.Background(), "../../Shot.PNG", strings.NewReader("png-bytes"), 1<<20)
	require.NoError(t, err)

	assert.Equal(t, int64(9), n)
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.Equal(t, name, filepath.Base(name))

	b, err := os.ReadFile(filepath.Join(s.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}

func TestSave_UniqueNames(t *testing.T) {
	s := newTestStore(t)

	a, _, err := s.Save(context.Background(), "a.png", strings.NewReader("1"), 10)
	require.NoError(t, err)
	b, _, err := s.Save(context.Background(), "a.png", strings.NewReader("2"), 10)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSave_TooLarge(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Save(context.Background(), "big.bin", strings.NewReader("0123456789"), 4)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_CancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Save(ctx, "a.png", strings.NewReader("data"), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	name, _, err := s.Save(context.Background(), "a.txt", strings.NewReader("x"), 10)
	require.NoError(t, err)

	require.NoError(t, s.Remove(name))
	require.NoError(t, s.Remove(name))
	assert.ErrorIs(t, s.Remove("../escape"), apperror.ErrValidation)
}

func TestCleanExt(t *testing.T) {
	assert.Equal(t, ".jpg", cleanExt("photo.JPG"))
	assert.Equal(t, "", cleanExt("noext"))
	assert.Equal(t, "", cleanExt("weird.p n g"))
	assert.Equal(t, ".mp4", cleanExt("dir/clip.mp4"))
}
