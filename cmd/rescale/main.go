package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sprite-normalizer/internal/imageio"
	"sprite-normalizer/internal/postprocess"
)

func main() {
	factor := flag.Float64("factor", 0.8, "Scale factor applied to width and height")
	backup := flag.Bool("backup", true, "Save a <name>_backup copy before overwriting")
	output := flag.String("output", "", "Write here instead of overwriting the input")
	filterName := flag.String("filter", "lanczos", "Resampling filter")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: rescale [flags] <sprite.png>")
		os.Exit(1)
	}
	if *factor <= 0 {
		fmt.Fprintf(os.Stderr, "Error: factor must be positive, got %g\n", *factor)
		os.Exit(1)
	}
	filter, err := postprocess.ParseFilter(*filterName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	path := flag.Arg(0)
	img, err := imageio.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	format, err := imageio.ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		format = imageio.PNG
	}

	dst := *output
	if dst == "" {
		dst = path
		if *backup {
			ext := filepath.Ext(path)
			bak := imageio.OutputName(strings.TrimSuffix(path, ext)+"_backup"+ext, format)
			if err := imageio.Save(bak, img, format); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing backup: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Backup: %s\n", bak)
		}
	}

	dst = imageio.OutputName(dst, format)
	out := postprocess.Rescale(img, *factor, filter)
	if err := imageio.Save(dst, out, format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %dx%d -> %dx%d\n", dst, img.Bounds().Dx(), img.Bounds().Dy(), out.Bounds().Dx(), out.Bounds().Dy())
}
