package vision

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePathKnownNames(t *testing.T) {
	s := NewStore("templates")
	path, ok := s.Path(TplFriendHeader)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("templates", "friend.png"), path)

	_, ok = s.Path("nonsense")
	assert.False(t, ok)
}

func TestStoreRegisterOverrides(t *testing.T) {
	s := NewStore("templates")
	s.Register(TplFriendHeader, "custom.png")
	path, ok := s.Path(TplFriendHeader)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("templates", "custom.png"), path)
}

func TestStoreMissingListsAbsentFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	writeTemplate(t, dir, "friend.png", image.NewRGBA(image.Rect(0, 0, 4, 4)))

	missing := s.Missing()
	assert.Len(t, missing, len(defaultFiles)-1)
	assert.NotContains(t, missing, filepath.Join(dir, "friend.png"))
}

func TestStoreLoadMissingFileErrors(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Load(TplFriendHeader)
	assert.Error(t, err)

	_, err = s.Load("never-registered")
	assert.Error(t, err)
}

func TestStoreLoadReadsImage(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	writeTemplate(t, dir, "friend.png", patternImage(8, 8, 1))

	img, err := s.Load(TplFriendHeader)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}
