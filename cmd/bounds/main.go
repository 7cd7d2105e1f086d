package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"sprite-normalizer/internal/imageio"
	"sprite-normalizer/internal/postprocess"
)

func main() {
	threshold := flag.Int("threshold", int(postprocess.DefaultAlphaThreshold), "Alpha values above this count as content")
	flag.Parse()

	if *threshold < 0 || *threshold > 255 {
		fmt.Fprintf(os.Stderr, "Error: threshold must be 0-255, got %d\n", *threshold)
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: bounds [flags] <dir or sprite>...")
		os.Exit(1)
	}

	var paths []string
	for _, arg := range flag.Args() {
		info, err := os.Stat(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		names, err := imageio.List(arg, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, n := range names {
			paths = append(paths, filepath.Join(arg, n))
		}
	}

	failed := 0
	for _, p := range paths {
		img, err := imageio.Load(p)
		if err != nil {
			fmt.Printf("%s: error: %v\n", p, err)
			failed++
			continue
		}
		b := img.Bounds()
		r, ok := postprocess.ContentBounds(img, uint8(*threshold))
		if !ok {
			fmt.Printf("%s: %dx%d, no visible content\n", p, b.Dx(), b.Dy())
			continue
		}
		fmt.Printf("%s: %dx%d, content x=%d y=%d w=%d h=%d\n", p, b.Dx(), b.Dy(),
			r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	}
	if failed > 0 {
		os.Exit(1)
	}
}
