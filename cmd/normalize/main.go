package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"sprite-normalizer/internal/batch"
	"sprite-normalizer/internal/config"
	"sprite-normalizer/internal/log"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	baseDir := flag.String("data", "", "Base directory for relative paths (default: current directory)")
	input := flag.String("input", "", "Normalize a single sprite directory instead of the roster")
	output := flag.String("output", "", "Output directory for -input (default: <input>_normalized)")
	name := flag.String("name", "", "Character name for -input (default: directory name)")
	mode := flag.String("mode", "", "normalize or crop (default: normalize)")
	policy := flag.String("policy", "", "Reference height policy: self, cross or fixed")
	reference := flag.String("reference", "", "Character whose reference sprite sets the height for everyone")
	height := flag.Int("height", 0, "Fixed target height in pixels")
	format := flag.String("format", "", "Output format: png or webp (default: png)")
	workers := flag.Int("workers", 0, "Number of worker goroutines per character (default: 1)")
	logFile := flag.String("log", "", "Also write the log to this file")
	degenerate := flag.Bool("degenerate", false, "Record metadata for fully transparent sprites")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		BaseDir:      *baseDir,
		Input:        *input,
		Output:       *output,
		Name:         *name,
		Mode:         *mode,
		Policy:       *policy,
		Reference:    *reference,
		TargetHeight: *height,
		Format:       *format,
		Workers:      *workers,
		LogFile:      *logFile,
		Degenerate:   *degenerate,
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Setup(cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Sprite normalizer (%s, %s reference)\n", cfg.Mode, cfg.ReferencePolicy)
	fmt.Printf("Characters: %d, Workers: %d, Format: %s\n", len(cfg.Characters), cfg.Workers, cfg.OutputFormat)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	reports, err := batch.RunRoster(ctx, cfg)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	exit := 0
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit = 1
	}

	var failed []string
	for _, r := range reports {
		switch {
		case r.Skipped:
			fmt.Printf("  %-12s skipped\n", r.Name)
		case r.Err != nil:
			fmt.Printf("  %-12s error: %v\n", r.Name, r.Err)
			exit = 1
		default:
			fmt.Printf("  %-12s %s\n", r.Name, r.Report.Summary())
			for _, f := range r.Report.Failed() {
				failed = append(failed, fmt.Sprintf("%s/%s: %s", r.Name, f.File, f.Error))
			}
		}
	}

	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		limit := 20
		if len(failed) < limit {
			limit = len(failed)
		}
		for _, f := range failed[:limit] {
			fmt.Printf("  %s\n", f)
		}
		if len(failed) > limit {
			fmt.Printf("  ... and %d more\n", len(failed)-limit)
		}
		exit = 1
	}

	if exit != 0 {
		log.Close()
		os.Exit(exit)
	}
}
