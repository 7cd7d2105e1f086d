package postprocess

import (
	"fmt"
	"strings"
)

// ScaleRule multiplies the scale factor of sprites whose file name contains Match.
type ScaleRule struct {
	Match      string  `json:"match"`
	Multiplier float64 `json:"multiplier"`
}

// ScaleRules is checked in order; the first matching rule wins.
type ScaleRules []ScaleRule

// DefaultScaleRules shrinks poses that are naturally shorter than the
// reference pose: crouching and thrown sprites to 70%, jumps to 90%.
func DefaultScaleRules() ScaleRules {
	return ScaleRules{
		{Match: "crouch", Multiplier: 0.7},
		{Match: "thrown", Multiplier: 0.7},
		{Match: "jump", Multiplier: 0.9},
	}
}

// Multiplier returns the multiplier of the first rule whose Match is a
// case-insensitive substring of name, or 1 when none matches.
func (rules ScaleRules) Multiplier(name string) float64 {
	lower := strings.ToLower(name)
	for _, r := range rules {
		if r.Match == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(r.Match)) {
			return r.Multiplier
		}
	}
	return 1.0
}

// Validate rejects rules that could produce a non-positive scale factor.
func (rules ScaleRules) Validate() error {
	for i, r := range rules {
		if r.Match == "" {
			return fmt.Errorf("scale rule %d: empty match", i)
		}
		if r.Multiplier <= 0 {
			return fmt.Errorf("scale rule %d (%q): multiplier must be positive, got %g", i, r.Match, r.Multiplier)
		}
	}
	return nil
}
