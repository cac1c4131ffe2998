package enhance

import (
	"path/filepath"
	"strings"

	"brandcss/common"
)

// Default policy knobs. Kept in one place so the CLI, the config template
// and the tests agree on what "safe" means.
const (
	DefaultMaxChanges    = 5
	DefaultTolerance     = 0.02
	DefaultAutoThreshold = 0.9
	DefaultAdvisoryFloor = 0.8
	DefaultMinContrast   = 4.5
)

// DefaultExclude lists path patterns that never get enhanced: vendored,
// generated and minified sources.
var DefaultExclude = []string{
	"node_modules", "bower_components", "dist", "build", "out", "coverage", "*.min.*",
}

// Policy centralizes every accept/reject threshold of the pipeline.
// Thresholds live here and nowhere else; matcher and guard consult the
// policy instead of carrying inline constants.
type Policy struct {
	// MaxChanges caps accepted changes per file, <= 0 disables the cap.
	MaxChanges int
	// Tolerance is the relative numeric distance still considered a match.
	Tolerance float64
	// AutoApply gates whether qualifying changes modify code at all.
	AutoApply common.AutoApplyMode
	// AutoThreshold is the confidence at or above which an automatic class
	// change is applied. AdvisoryFloor is the confidence below which a
	// proposal is not even reported.
	AutoThreshold float64
	AdvisoryFloor float64
	// MinContrast is the WCAG ratio a color substitution must preserve.
	MinContrast float64
	// Exclude patterns: bare names match any path segment, glob patterns
	// match the base name.
	Exclude []string
}

// DefaultPolicy returns the stock safe policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxChanges:    DefaultMaxChanges,
		Tolerance:     DefaultTolerance,
		AutoApply:     common.AutoApplyModeSafe,
		AutoThreshold: DefaultAutoThreshold,
		AdvisoryFloor: DefaultAdvisoryFloor,
		MinContrast:   DefaultMinContrast,
		Exclude:       DefaultExclude,
	}
}

// normalize fills zero thresholds with defaults so a partially built
// policy stays usable.
func (p Policy) normalize() Policy {
	if p.AutoThreshold == 0 {
		p.AutoThreshold = DefaultAutoThreshold
	}
	if p.AdvisoryFloor == 0 {
		p.AdvisoryFloor = DefaultAdvisoryFloor
	}
	if p.MinContrast == 0 {
		p.MinContrast = DefaultMinContrast
	}
	return p
}

// Excluded reports whether path falls under one of the exclusion patterns.
func (p Policy) Excluded(path string) bool {
	if path == "" {
		return false
	}
	segments := strings.Split(filepath.ToSlash(path), "/")
	base := segments[len(segments)-1]
	for _, pat := range p.Exclude {
		if strings.ContainsAny(pat, "*?[") {
			if ok, err := filepath.Match(pat, base); err == nil && ok {
				return true
			}
			continue
		}
		for _, seg := range segments {
			if seg == pat {
				return true
			}
		}
	}
	return false
}

// automatic reports whether an accepted change qualifies for application.
func (p Policy) automatic(c Change) bool {
	if p.AutoApply == common.AutoApplyModeOff {
		return false
	}
	return !c.SuggestionOnly && c.Confidence >= p.AutoThreshold
}

// toleranceConfidence maps a relative distance inside the tolerance window
// onto the advisory band: zero distance scores just under the auto-apply
// threshold, the window edge scores the advisory floor.
func (p Policy) toleranceConfidence(rel float64) float64 {
	if p.Tolerance <= 0 {
		return 0
	}
	frac := rel / p.Tolerance
	if frac > 1 {
		return 0
	}
	return p.AdvisoryFloor + (1-frac)*(p.AutoThreshold-p.AdvisoryFloor)*0.9
}
