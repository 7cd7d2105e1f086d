package imageio

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultExtensions lists the sprite extensions picked up when none are configured.
var DefaultExtensions = []string{".png"}

// List returns the names of regular files in dir whose extension matches one
// of exts, compared case-insensitively. Names are sorted so that runs are
// reproducible.
func List(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if want[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Stem returns name without its extension. It is the key of a sprite in the
// metadata document.
func Stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
