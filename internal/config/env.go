// This file contains environment variable utilities for configuration override.

package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/collatz-go/collatz/internal/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already present in the environment are left untouched.
//
// A missing file is ignored unless it was requested explicitly, in which
// case it is reported as a ConfigError like any malformed file.
func LoadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	return apperrors.NewConfigError("cannot load env file %s: %v", path, err)
}

// lookupEnv returns the value of EnvPrefix+key. Empty values count as unset.
func lookupEnv(key string) (string, bool) {
	val := os.Getenv(EnvPrefix + key)
	return val, val != ""
}

// numericEnvKeys are the overrides whose value must parse even when empty:
// THRESHOLD= is an invalid threshold, not an absent one.
var numericEnvKeys = map[string]bool{
	"THRESHOLD":      true,
	"MAX_ITERATIONS": true,
	"WORKERS":        true,
	"TIMEOUT":        true,
}

// lookupOverride finds the value of an override, preferring the prefixed
// name over the legacy one.
func lookupOverride(o envOverride) (string, bool) {
	names := []string{EnvPrefix + o.envKey}
	if o.legacy != "" {
		names = append(names, o.legacy)
	}
	for _, name := range names {
		val, ok := os.LookupEnv(name)
		if ok && (val != "" || numericEnvKeys[o.envKey]) {
			return val, true
		}
	}
	return "", false
}

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// This is useful for aliased flags where either the short or long form may be used.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the COLLATZ_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
// legacy, when set, is an unprefixed name also honoured for compatibility
// with existing .env files; the prefixed name wins when both are present.
type envOverride struct {
	envKey string
	legacy string
	flags  []string
	apply  func(*AppConfig, string) error
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	// Numeric overrides
	{"THRESHOLD", "THRESHOLD", []string{"threshold"}, func(c *AppConfig, v string) error {
		parsed, err := parseNonNegativeEnv("THRESHOLD", v)
		if err != nil {
			return err
		}
		c.Threshold = parsed
		c.ThresholdSource = SourceEnv
		return nil
	}},
	{"MAX_ITERATIONS", "MAX_ITERATIONS", []string{"max-iterations"}, func(c *AppConfig, v string) error {
		parsed, err := parseNonNegativeEnv("MAX_ITERATIONS", v)
		if err != nil {
			return err
		}
		c.MaxIterations = parsed
		return nil
	}},
	{"WORKERS", "", []string{"workers"}, func(c *AppConfig, v string) error {
		parsed, err := parseNonNegativeEnv("WORKERS", v)
		if err != nil {
			return err
		}
		c.Workers = parsed
		return nil
	}},
	{"TIMEOUT", "", []string{"timeout"}, func(c *AppConfig, v string) error {
		parsed, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || parsed < 0 {
			return apperrors.NewConfigError("invalid TIMEOUT value %q: expected a duration such as 30s", v)
		}
		c.Timeout = parsed
		return nil
	}},

	// String overrides
	{"OUTPUT", "", []string{"output", "o"}, func(c *AppConfig, v string) error {
		c.OutputFile = v
		return nil
	}},
	{"LOG_LEVEL", "", []string{"log-level"}, func(c *AppConfig, v string) error {
		c.LogLevel = v
		return nil
	}},
	{"LOG_FORMAT", "", []string{"log-format"}, func(c *AppConfig, v string) error {
		c.LogFormat = v
		return nil
	}},
	{"SERVE", "", []string{"serve"}, func(c *AppConfig, v string) error {
		c.Serve = v
		return nil
	}},
	{"CALIBRATION_PROFILE", "", []string{"calibration-profile"}, func(c *AppConfig, v string) error {
		c.CalibrationProfile = v
		return nil
	}},

	// Boolean overrides
	{"VERBOSE", "", []string{"v", "verbose"}, func(c *AppConfig, v string) error {
		c.Verbose = parseBoolEnv(v, c.Verbose)
		return nil
	}},
	{"DETAILS", "", []string{"d", "details"}, func(c *AppConfig, v string) error {
		c.Details = parseBoolEnv(v, c.Details)
		return nil
	}},
	{"QUIET", "", []string{"quiet", "q"}, func(c *AppConfig, v string) error {
		c.Quiet = parseBoolEnv(v, c.Quiet)
		return nil
	}},
	{"AUTO_THRESHOLD", "", []string{"auto-threshold"}, func(c *AppConfig, v string) error {
		c.AutoThreshold = parseBoolEnv(v, c.AutoThreshold)
		return nil
	}},
}

// parseNonNegativeEnv parses a numeric override. A bad numeric value is
// fatal, unlike an unrecognised boolean.
func parseNonNegativeEnv(key, val string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || parsed < 0 {
		return 0, apperrors.NewConfigError("invalid %s value %q: expected a non-negative integer", key, val)
	}
	return parsed, nil
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > File > Defaults.
//
// Supported environment variables (all prefixed with COLLATZ_):
//   - THRESHOLD, MAX_ITERATIONS, WORKERS, TIMEOUT, OUTPUT, LOG_LEVEL, LOG_FORMAT,
//     SERVE, CALIBRATION_PROFILE, VERBOSE, DETAILS, QUIET, AUTO_THRESHOLD
//
// THRESHOLD and MAX_ITERATIONS are also read without the prefix. A numeric
// variable that is set but empty is rejected; other empty variables are
// ignored.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) error {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		val, ok := lookupOverride(o)
		if !ok {
			continue
		}
		if err := o.apply(config, val); err != nil {
			return err
		}
	}
	return nil
}
