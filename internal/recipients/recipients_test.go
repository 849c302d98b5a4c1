package recipients

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipients.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadReadsNames(t *testing.T) {
	path := writeFile(t, "name\nAlice\nBob\n  Carol  \n")
	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Alice": true, "Bob": true, "Carol": true}, set)
}

func TestLoadIgnoresExtraColumns(t *testing.T) {
	path := writeFile(t, "Alice,friend\nBob,coworker\n")
	set, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestLoadEmptyPathAllowsAll(t *testing.T) {
	set, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestLoadEmptyFileYieldsNilSet(t *testing.T) {
	path := writeFile(t, "\n\n")
	set, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestFilter(t *testing.T) {
	assert.Nil(t, Filter(nil))

	f := Filter(map[string]bool{"Alice": true})
	require.NotNil(t, f)
	assert.True(t, f("Alice"))
	assert.False(t, f("Bob"))
}
