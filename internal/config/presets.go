package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog holds the per-platform command presets the panel uses for actions
// it delegates to the host, such as building archives and opening files.
// Templates carry {placeholder} references that CommandFor fills in.
type Catalog struct {
	Archive map[string]string `yaml:"archive"`
	Open    map[string]string `yaml:"open"`
}

// DefaultCatalog returns the built-in presets used when no presets file is
// configured.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Archive: map[string]string{
			"linux":   "tar -czf {archive_name} -C {file_path} .",
			"darwin":  "tar -czf {archive_name} -C {file_path} .",
			"windows": "powershell -Command \"Compress-Archive -Path '{file_path}' -DestinationPath '{archive_name}'\"",
		},
		Open: map[string]string{
			"linux":   "xdg-open {file_path}",
			"darwin":  "open {file_path}",
			"windows": "explorer {file_path}",
		},
	}
}

// LoadCatalog reads a presets file in YAML form. An empty path returns the
// built-in defaults. Platforms missing from the file fall back to defaults.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}

	var loaded Catalog
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse presets file: %w", err)
	}

	for platform, tmpl := range loaded.Archive {
		catalog.Archive[platform] = tmpl
	}
	for platform, tmpl := range loaded.Open {
		catalog.Open[platform] = tmpl
	}
	return catalog, nil
}

// ArchiveCommand renders the archive preset for the current platform.
func (c *Catalog) ArchiveCommand(vars map[string]string) (string, error) {
	return c.render(c.Archive, vars)
}

// OpenCommand renders the open preset for the current platform.
func (c *Catalog) OpenCommand(vars map[string]string) (string, error) {
	return c.render(c.Open, vars)
}

func (c *Catalog) render(presets map[string]string, vars map[string]string) (string, error) {
	tmpl, ok := presets[runtime.GOOS]
	if !ok {
		return "", fmt.Errorf("no preset for platform %s", runtime.GOOS)
	}
	return expandPlaceholders(tmpl, vars), nil
}

func expandPlaceholders(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
