package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sprite-normalizer/internal/imageio"
	"sprite-normalizer/internal/postprocess"
)

// ReferencePolicy selects where the target height of a character comes from.
type ReferencePolicy string

const (
	// ReferenceSelf measures each character's own reference sprite.
	ReferenceSelf ReferencePolicy = "self"
	// ReferenceCross measures one designated character once and applies it to the roster.
	ReferenceCross ReferencePolicy = "cross"
	// ReferenceFixed uses TargetHeight as is.
	ReferenceFixed ReferencePolicy = "fixed"
)

// Character is one input/output directory pair of the roster.
type Character struct {
	Name   string `json:"name"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Config holds the roster and the normalization settings.
type Config struct {
	// Paths
	BaseDir    string      `json:"base_dir"`
	Characters []Character `json:"characters"`
	LogFile    string      `json:"log_file"`

	// Reference height
	ReferencePolicy    ReferencePolicy `json:"reference_policy"`
	ReferenceCharacter string          `json:"reference_character"`
	ReferenceFile      string          `json:"reference_file"`
	TargetHeight       int             `json:"target_height"`

	// Transform settings
	Mode              postprocess.Mode       `json:"mode"`
	AlphaThreshold    *int                   `json:"alpha_threshold"`
	CanvasWidthRatio  float64                `json:"canvas_width_ratio"`
	CanvasHeightRatio float64                `json:"canvas_height_ratio"`
	ScaleRules        postprocess.ScaleRules `json:"scale_rules"`
	Resample          string                 `json:"resample"`
	DespeckleRatio    float64                `json:"despeckle_ratio"`

	// Output settings
	OutputFormat       string   `json:"output_format"`
	MetadataFile       string   `json:"metadata_file"`
	Extensions         []string `json:"extensions"`
	DegenerateMetadata bool     `json:"degenerate_metadata"`
	Workers            int      `json:"workers"`
}

// DefaultMetadataFile is written next to the transformed sprites.
const DefaultMetadataFile = "sprite_metadata.json"

// DefaultReferenceFile is the pose whose height defines a character.
const DefaultReferenceFile = "standing.png"

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir      string
	Input        string
	Output       string
	Name         string
	Mode         string
	Policy       string
	Reference    string
	TargetHeight int
	Format       string
	Workers      int
	LogFile      string
	Degenerate   bool
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.Input != "" {
		// A single directory on the command line replaces the roster.
		name := flags.Name
		if name == "" {
			name = filepath.Base(flags.Input)
		}
		c.Characters = []Character{{Name: name, Input: flags.Input, Output: flags.Output}}
	}
	if flags.Mode != "" {
		c.Mode = postprocess.Mode(flags.Mode)
	}
	if flags.Policy != "" {
		c.ReferencePolicy = ReferencePolicy(flags.Policy)
	}
	if flags.Reference != "" {
		c.ReferenceCharacter = flags.Reference
	}
	if flags.TargetHeight > 0 {
		c.TargetHeight = flags.TargetHeight
	}
	if flags.Format != "" {
		c.OutputFormat = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogFile != "" {
		c.LogFile = flags.LogFile
	}
	if flags.Degenerate {
		c.DegenerateMetadata = true
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}

	// Resolve relative paths against base dir
	for i := range c.Characters {
		ch := &c.Characters[i]
		if ch.Name == "" {
			ch.Name = filepath.Base(ch.Input)
		}
		ch.Input = c.abs(ch.Input)
		if ch.Output == "" {
			ch.Output = ch.Input + "_normalized"
		} else {
			ch.Output = c.abs(ch.Output)
		}
	}
	if c.LogFile != "" {
		c.LogFile = c.abs(c.LogFile)
	}

	// Policy: an explicit height wins unless a policy was chosen.
	if c.ReferencePolicy == "" {
		switch {
		case c.TargetHeight > 0:
			c.ReferencePolicy = ReferenceFixed
		case c.ReferenceCharacter != "":
			c.ReferencePolicy = ReferenceCross
		default:
			c.ReferencePolicy = ReferenceSelf
		}
	}
	if c.ReferenceFile == "" {
		c.ReferenceFile = DefaultReferenceFile
	}

	// Transform defaults
	if c.Mode == "" {
		c.Mode = postprocess.ModeNormalize
	}
	if c.AlphaThreshold == nil {
		t := int(postprocess.DefaultAlphaThreshold)
		c.AlphaThreshold = &t
	}
	if c.CanvasWidthRatio <= 0 {
		c.CanvasWidthRatio = postprocess.DefaultCanvasWidthRatio
	}
	if c.CanvasHeightRatio <= 0 {
		c.CanvasHeightRatio = postprocess.DefaultCanvasHeightRatio
	}
	if c.ScaleRules == nil {
		c.ScaleRules = postprocess.DefaultScaleRules()
	}
	if c.Resample == "" {
		c.Resample = "lanczos"
	}

	// Output defaults
	if c.OutputFormat == "" {
		c.OutputFormat = string(imageio.PNG)
	}
	if c.MetadataFile == "" {
		c.MetadataFile = DefaultMetadataFile
	}
	if len(c.Extensions) == 0 {
		c.Extensions = imageio.DefaultExtensions
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

// Validate reports settings that cannot produce a run.
func (c *Config) Validate() error {
	if len(c.Characters) == 0 {
		return fmt.Errorf("config: no characters to process")
	}
	for i, ch := range c.Characters {
		if ch.Input == "" {
			return fmt.Errorf("config: character %d (%s): empty input directory", i, ch.Name)
		}
		if ch.Input == ch.Output {
			return fmt.Errorf("config: character %s: output directory equals input", ch.Name)
		}
	}

	switch c.ReferencePolicy {
	case ReferenceSelf:
	case ReferenceCross:
		if c.Find(c.ReferenceCharacter) == nil {
			return fmt.Errorf("config: reference character %q is not in the roster", c.ReferenceCharacter)
		}
	case ReferenceFixed:
		if c.TargetHeight <= 0 {
			return fmt.Errorf("config: fixed reference policy needs a positive target_height")
		}
	default:
		return fmt.Errorf("config: unknown reference policy %q", c.ReferencePolicy)
	}

	switch c.Mode {
	case postprocess.ModeNormalize, postprocess.ModeCrop:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}

	if c.AlphaThreshold != nil && (*c.AlphaThreshold < 0 || *c.AlphaThreshold > 255) {
		return fmt.Errorf("config: alpha_threshold %d out of range 0-255", *c.AlphaThreshold)
	}
	if c.DespeckleRatio < 0 || c.DespeckleRatio >= 1 {
		return fmt.Errorf("config: despeckle_ratio %g out of range [0, 1)", c.DespeckleRatio)
	}
	if err := c.ScaleRules.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := postprocess.ParseFilter(c.Resample); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := imageio.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Find returns the roster entry called name, or nil.
func (c *Config) Find(name string) *Character {
	for i := range c.Characters {
		if c.Characters[i].Name == name {
			return &c.Characters[i]
		}
	}
	return nil
}

// Threshold returns the resolved alpha threshold.
func (c *Config) Threshold() uint8 {
	if c.AlphaThreshold == nil {
		return postprocess.DefaultAlphaThreshold
	}
	return uint8(*c.AlphaThreshold)
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}
