package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"sprite-normalizer/internal/config"
	"sprite-normalizer/internal/imageio"
	"sprite-normalizer/internal/log"
	"sprite-normalizer/internal/postprocess"
)

// Config holds everything needed to normalize one directory of sprites.
type Config struct {
	InputDir     string
	OutputDir    string
	MetadataFile string
	Extensions   []string

	Mode      postprocess.Mode
	Threshold uint8
	Transform postprocess.Options
	Despeckle float64
	Format    imageio.Format

	// Degenerate keeps a metadata record for fully transparent sprites.
	Degenerate bool
	Workers    int
}

// Result holds the outcome of processing one file.
type Result struct {
	File     string
	Success  bool
	Error    string
	Metadata *postprocess.Metadata
}

// Report is the outcome of one directory run.
type Report struct {
	Results      []Result
	Document     Document
	MetadataPath string
}

// Failed returns the results that did not produce an output.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Success {
			failed = append(failed, res)
		}
	}
	return failed
}

// Run normalizes every sprite of cfg.InputDir into cfg.OutputDir and writes
// the metadata document once all files are done. A file that fails is
// logged and left out of the document; it never stops the batch.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Mode == "" {
		cfg.Mode = postprocess.ModeNormalize
	}
	if cfg.Mode == postprocess.ModeNormalize && cfg.Transform.TargetHeight <= 0 {
		return Report{}, errors.Errorf("target height must be positive, got %d", cfg.Transform.TargetHeight)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return Report{}, errors.Wrapf(err, "create output dir %s", cfg.OutputDir)
	}

	names, err := imageio.List(cfg.InputDir, cfg.Extensions)
	if err != nil {
		return Report{}, err
	}

	results := make([]Result, len(names))
	var processed atomic.Int64
	stop := reportProgress(len(names), &processed)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, name := range names {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = processFile(cfg, name)
			processed.Add(1)
			return nil
		})
	}
	g.Wait()
	stop()

	if err := ctx.Err(); err != nil {
		return Report{Results: results}, err
	}

	report := Report{
		Results:      results,
		Document:     BuildDocument(results),
		MetadataPath: filepath.Join(cfg.OutputDir, cfg.metadataFile()),
	}
	if err := WriteDocument(report.MetadataPath, report.Document); err != nil {
		return report, err
	}
	log.Printf("  Saved metadata to %s", report.MetadataPath)

	return report, nil
}

func (cfg Config) metadataFile() string {
	if cfg.MetadataFile == "" {
		return config.DefaultMetadataFile
	}
	return cfg.MetadataFile
}

func processFile(cfg Config, name string) Result {
	res := Result{File: name}

	img, err := imageio.Load(filepath.Join(cfg.InputDir, name))
	if err != nil {
		res.Error = err.Error()
		log.Printf("  %s: error processing: %v", name, err)
		return res
	}

	if cfg.Despeckle > 0 {
		img = postprocess.RemoveSmallClusters(img, cfg.Threshold, cfg.Despeckle)
	}

	bounds, visible := postprocess.ContentBounds(img, cfg.Threshold)

	var out *image.NRGBA
	var md postprocess.Metadata
	switch {
	case !visible:
		out, md = postprocess.Passthrough(img, cfg.Mode)
		log.Printf("  %s: warning: no visible content, copied unchanged", name)
	case cfg.Mode == postprocess.ModeCrop:
		out, md = postprocess.CropToContent(img, bounds)
		log.Printf("  %s: %dx%d -> %dx%d, offset (%.1f, %.1f)", name,
			md.OriginalWidth, md.OriginalHeight, md.CropWidth, md.CropHeight,
			*md.CenterOffsetX, *md.CenterOffsetY)
	default:
		out, md = postprocess.Normalize(img, bounds, name, cfg.Transform)
		log.Printf("  %s: %dx%d -> %dx%d (factor: %.2f) on %dx%d", name,
			md.CropWidth, md.CropHeight, md.NewWidth, md.NewHeight,
			md.ScaleFactor, md.CanvasWidth, md.CanvasHeight)
	}

	outPath := filepath.Join(cfg.OutputDir, imageio.OutputName(name, cfg.Format))
	if err := imageio.Save(outPath, out, cfg.Format); err != nil {
		res.Error = err.Error()
		log.Printf("  %s: error processing: %v", name, err)
		return res
	}

	res.Success = true
	if visible || cfg.Degenerate {
		res.Metadata = &md
	}
	return res
}

// reportProgress prints a rate line every two seconds until stop is called.
func reportProgress(total int, processed *atomic.Int64) (stop func()) {
	start := time.Now()
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Printf("  [%d/%d] %.1f sprites/sec", p, total, rate)
				}
			}
		}
	}()
	return func() { close(done) }
}

// Summary formats the success count of a report.
func (r Report) Summary() string {
	return fmt.Sprintf("%d/%d sprites, %d metadata entries", len(r.Results)-len(r.Failed()), len(r.Results), len(r.Document))
}
