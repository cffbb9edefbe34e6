package source

import (
	"os"
	"path/filepath"

	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

var extensions = []string{".csv", ".xlsx"}

// Locate returns the source file of kind: override when set, otherwise
// <dir>/<kind>.csv then <dir>/<kind>.xlsx. ok is false when nothing exists.
func Locate(dir, override string, kind schema.Kind) (path string, ok bool) {
	if override != "" {
		return override, fileExists(override)
	}
	if dir == "" {
		return "", false
	}
	for _, ext := range extensions {
		p := filepath.Join(dir, string(kind)+ext)
		if fileExists(p) {
			return p, true
		}
	}
	return filepath.Join(dir, string(kind)+extensions[0]), false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
