package loader

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// configNames are tried in order inside every configuration directory.
var configNames = []string{"config.yaml", "config.yml", "config.toml", "config.json"}

// DefaultSearchPaths lists candidate configuration files for app, the user's
// XDG config home first and system directories after it.
func DefaultSearchPaths(app string) []string {
	dirs := append([]string{xdg.ConfigHome}, xdg.ConfigDirs...)
	paths := make([]string, 0, len(dirs)*len(configNames))
	for _, dir := range dirs {
		for _, name := range configNames {
			paths = append(paths, filepath.Join(dir, app, name))
		}
	}
	return paths
}

// Discover returns the DefaultSearchPaths entries that exist, strongest
// first.
func Discover(app string) []string {
	var found []string
	for _, path := range DefaultSearchPaths(app) {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found = append(found, path)
		}
	}
	return found
}
