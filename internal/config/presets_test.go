package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCoversKnownPlatforms(t *testing.T) {
	catalog := DefaultCatalog()
	for _, platform := range []string{"linux", "darwin", "windows"} {
		assert.Contains(t, catalog.Archive, platform)
		assert.Contains(t, catalog.Open, platform)
	}
}

func TestArchiveCommandExpandsPlaceholders(t *testing.T) {
	catalog := &Catalog{
		Archive: map[string]string{
			runtime.GOOS: "tar -czf {archive_name} -C {file_path} .",
		},
	}

	cmd, err := catalog.ArchiveCommand(map[string]string{
		"archive_name": "/tmp/out.tgz",
		"file_path":    "/srv/project",
	})
	require.NoError(t, err)
	assert.Equal(t, "tar -czf /tmp/out.tgz -C /srv/project .", cmd)
}

func TestCommandForUnknownPlatform(t *testing.T) {
	catalog := &Catalog{Archive: map[string]string{}}
	_, err := catalog.ArchiveCommand(nil)
	assert.Error(t, err)
}

func TestLoadCatalogMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
archive:
  linux: "zip -r {archive_name} {file_path}"
`), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, "zip -r {archive_name} {file_path}", catalog.Archive["linux"])
	assert.Equal(t, DefaultCatalog().Archive["darwin"], catalog.Archive["darwin"])
	assert.Equal(t, DefaultCatalog().Open["linux"], catalog.Open["linux"])
}

func TestLoadCatalogEmptyPathUsesDefaults(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), catalog)
}

func TestLoadCatalogMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("archive: [not a map"), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}
