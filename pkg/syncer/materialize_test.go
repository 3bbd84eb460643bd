package syncer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMaterializer(t *testing.T) {
	copier, err := NewMaterializer(StrategyCopy)
	require.NoError(t, err)
	assert.Equal(t, "copy", copier.Name())

	linker, err := NewMaterializer(StrategyLink)
	require.NoError(t, err)
	assert.Equal(t, "link", linker.Name())

	_, err = NewMaterializer(Strategy("hardlink"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestCopyMaterializer(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.cbz")
	target := filepath.Join(dir, "target.cbz")
	writeTestFile(t, source, "pages")

	m, err := NewMaterializer(StrategyCopy)
	require.NoError(t, err)
	require.NoError(t, m.Materialize(source, target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "pages", string(data))

	// A real file, not a link.
	info, err := os.Lstat(target)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
}

func TestCopyMaterializerMissingSource(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMaterializer(StrategyCopy)
	require.NoError(t, err)

	err = m.Materialize(filepath.Join(dir, "absent.cbz"), filepath.Join(dir, "target.cbz"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "target.cbz"))
}

func TestLinkMaterializer(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.cbz")
	target := filepath.Join(dir, "target.cbz")
	writeTestFile(t, source, "pages")

	m, err := NewMaterializer(StrategyLink)
	require.NoError(t, err)
	require.NoError(t, m.Materialize(source, target))

	info, err := os.Lstat(target)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSymlink, info.Mode()&os.ModeSymlink)

	resolved, err := os.Readlink(target)
	require.NoError(t, err)
	assert.Equal(t, source, resolved)
}

func TestMaterializerReplacesExistingTarget(t *testing.T) {
	// Switching strategies must not leave a stale file or link behind.
	dir := t.TempDir()
	source := filepath.Join(dir, "source.cbz")
	target := filepath.Join(dir, "target.cbz")
	writeTestFile(t, source, "new pages")
	writeTestFile(t, target, "old pages")

	linker, err := NewMaterializer(StrategyLink)
	require.NoError(t, err)
	require.NoError(t, linker.Materialize(source, target))
	info, err := os.Lstat(target)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSymlink, info.Mode()&os.ModeSymlink)

	copier, err := NewMaterializer(StrategyCopy)
	require.NoError(t, err)
	require.NoError(t, copier.Materialize(source, target))
	info, err = os.Lstat(target)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
}
