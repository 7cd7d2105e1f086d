package batch

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"sprite-normalizer/internal/config"
	"sprite-normalizer/internal/imageio"
	"sprite-normalizer/internal/log"
	"sprite-normalizer/internal/postprocess"
)

// CharacterReport is the outcome for one roster entry.
type CharacterReport struct {
	Name         string
	Skipped      bool
	TargetHeight int
	Report       Report
	Err          error
}

// RunRoster processes every character of cfg in order. A character whose
// input directory is missing is skipped; the remaining characters still run.
// The returned error is reserved for failures that affect the whole roster:
// an unresolvable cross-character reference or a cancelled context.
func RunRoster(ctx context.Context, cfg config.Config) ([]CharacterReport, error) {
	base, err := baseConfig(cfg)
	if err != nil {
		return nil, err
	}

	shared := 0
	if cfg.Mode == postprocess.ModeNormalize {
		switch cfg.ReferencePolicy {
		case config.ReferenceFixed:
			shared = cfg.TargetHeight
		case config.ReferenceCross:
			ch := cfg.Find(cfg.ReferenceCharacter)
			if ch == nil {
				return nil, errors.Errorf("reference character %q is not in the roster", cfg.ReferenceCharacter)
			}
			ref, err := ReferenceHeight(ch.Input, cfg.ReferenceFile, cfg.Extensions, cfg.Threshold(), cfg.DespeckleRatio)
			if err != nil {
				return nil, errors.Wrapf(err, "reference character %s", ch.Name)
			}
			shared = ref.Height
			log.Printf("Reference: %s's %s height = %dpx", ch.Name, ref.File, shared)
		}
	}

	reports := make([]CharacterReport, 0, len(cfg.Characters))
	for _, ch := range cfg.Characters {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		rep := CharacterReport{Name: ch.Name}
		if info, err := os.Stat(ch.Input); err != nil || !info.IsDir() {
			log.Printf("Skipping %s: directory %s not found", ch.Name, ch.Input)
			rep.Skipped = true
			reports = append(reports, rep)
			continue
		}

		log.Printf("Processing %s sprites...", ch.Name)

		target := shared
		if cfg.Mode == postprocess.ModeNormalize && cfg.ReferencePolicy == config.ReferenceSelf {
			ref, err := ReferenceHeight(ch.Input, cfg.ReferenceFile, cfg.Extensions, cfg.Threshold(), cfg.DespeckleRatio)
			if err != nil {
				log.Printf("Skipping %s: %v", ch.Name, err)
				rep.Err = err
				reports = append(reports, rep)
				continue
			}
			log.Printf("  Reference sprite: %s", ref.File)
			target = ref.Height
		}
		if target > 0 {
			log.Printf("  Target height: %dpx", target)
		}

		bc := base
		bc.InputDir = ch.Input
		bc.OutputDir = ch.Output
		bc.Transform.TargetHeight = target

		rep.TargetHeight = target
		rep.Report, rep.Err = Run(ctx, bc)
		if rep.Err != nil {
			log.Printf("Error processing %s: %v", ch.Name, rep.Err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return append(reports, rep), ctxErr
			}
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// baseConfig translates the shared settings of cfg into a batch Config.
func baseConfig(cfg config.Config) (Config, error) {
	filter, err := postprocess.ParseFilter(cfg.Resample)
	if err != nil {
		return Config{}, err
	}
	format, err := imageio.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return Config{}, err
	}
	return Config{
		MetadataFile: cfg.MetadataFile,
		Extensions:   cfg.Extensions,
		Mode:         cfg.Mode,
		Threshold:    cfg.Threshold(),
		Transform: postprocess.Options{
			CanvasWidthRatio:  cfg.CanvasWidthRatio,
			CanvasHeightRatio: cfg.CanvasHeightRatio,
			Rules:             cfg.ScaleRules,
			Filter:            filter,
		},
		Despeckle:  cfg.DespeckleRatio,
		Format:     format,
		Degenerate: cfg.DegenerateMetadata,
		Workers:    cfg.Workers,
	}, nil
}
