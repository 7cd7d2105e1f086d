package batch

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"sprite-normalizer/internal/imageio"
	"sprite-normalizer/internal/log"
	"sprite-normalizer/internal/postprocess"
)

// Reference is the sprite that defined a target height.
type Reference struct {
	File   string
	Height int
	// Bounded is false when the reference was fully transparent and the raw
	// image height was used instead.
	Bounded bool
}

// ReferenceHeight measures the content height of refFile in dir. When refFile
// does not exist the first sprite of the directory listing is measured
// instead. despeckle is applied as in Run so the reference pose keeps a
// scale of 1.
func ReferenceHeight(dir, refFile string, exts []string, threshold uint8, despeckle float64) (Reference, error) {
	name := refFile
	if _, err := os.Stat(filepath.Join(dir, refFile)); err != nil {
		names, err := imageio.List(dir, exts)
		if err != nil {
			return Reference{}, err
		}
		if len(names) == 0 {
			return Reference{}, errors.Errorf("no sprites in %s to use as reference", dir)
		}
		name = names[0]
		log.Printf("  Warning: no %s found, using %s as reference", refFile, name)
	}

	img, err := imageio.Load(filepath.Join(dir, name))
	if err != nil {
		return Reference{}, errors.Wrap(err, "load reference")
	}
	if despeckle > 0 {
		img = postprocess.RemoveSmallClusters(img, threshold, despeckle)
	}

	if b, ok := postprocess.ContentBounds(img, threshold); ok {
		return Reference{File: name, Height: b.Dy(), Bounded: true}, nil
	}
	log.Printf("  Warning: could not detect bounds in %s, using full height: %dpx", name, img.Bounds().Dy())
	return Reference{File: name, Height: img.Bounds().Dy()}, nil
}
