package config

import "github.com/collatz-go/collatz/internal/collatz"

// Threshold resolution chain (highest priority first):
//   1. CLI flag (--threshold)
//   2. Environment variables (COLLATZ_THRESHOLD, then THRESHOLD)
//   3. YAML config file (threshold:)
//   4. Cached calibration profile (~/.collatz_calibration.json)
//   5. Static default (3)
//
// --auto-threshold replaces whatever the chain produced with the hardware
// estimate below.

// ApplyAdaptiveThreshold sets the threshold to the CPU-based estimate when
// --auto-threshold was requested.
func ApplyAdaptiveThreshold(cfg AppConfig) AppConfig {
	if cfg.AutoThreshold {
		cfg.Threshold = EstimateOptimalThreshold()
		cfg.ThresholdSource = SourceAuto
	}
	return cfg
}

// ApplyProfileThreshold installs a calibrated threshold, but only when no
// explicit source (flag, env or file) chose one.
func ApplyProfileThreshold(cfg AppConfig, threshold int) AppConfig {
	if cfg.ThresholdSource == SourceDefault && threshold >= 0 {
		cfg.Threshold = threshold
		cfg.ThresholdSource = SourceProfile
	}
	return cfg
}

// EstimateOptimalThreshold provides a heuristic estimate of the optimal
// parallel threshold without running benchmarks: two inputs per logical CPU.
func EstimateOptimalThreshold() int {
	return collatz.DefaultThreshold()
}
