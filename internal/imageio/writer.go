package imageio

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// ParseFormat accepts "png" or "webp" in any case. Empty selects PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", PNG:
		return PNG, nil
	case WebP:
		return WebP, nil
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == WebP {
		return ".webp"
	}
	return ".png"
}

// OutputName replaces the extension of name with the one for f. Names that
// already carry it, in any case, are kept as they are.
func OutputName(name string, f Format) string {
	if strings.EqualFold(filepath.Ext(name), f.Ext()) {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + f.Ext()
}

// Save encodes img to path, creating the parent directory if needed.
func Save(path string, img image.Image, f Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create dir for %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	switch f {
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	default:
		err = imaging.Encode(w, img, imaging.PNG)
	}
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return file.Close()
}
