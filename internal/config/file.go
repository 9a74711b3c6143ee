package config

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/collatz-go/collatz/internal/errors"
)

// FileConfig is the YAML configuration file layout. Nil fields are absent
// from the file and leave the current value unchanged.
//
//	threshold: 16
//	max_iterations: 200
//	workers: 4
//	timeout: 30s
//	log_level: info
type FileConfig struct {
	Threshold     *int    `yaml:"threshold"`
	MaxIterations *int    `yaml:"max_iterations"`
	Workers       *int    `yaml:"workers"`
	Timeout       *string `yaml:"timeout"`
	Quiet         *bool   `yaml:"quiet"`
	Verbose       *bool   `yaml:"verbose"`
	Details       *bool   `yaml:"details"`
	Output        *string `yaml:"output"`
	LogLevel      *string `yaml:"log_level"`
	LogFormat     *string `yaml:"log_format"`
	Serve         *string `yaml:"serve"`
}

// LoadFile reads a YAML configuration file. Unknown keys are rejected.
func LoadFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, apperrors.NewConfigError("cannot read config file %s: %v", path, err)
	}
	return decodeFile(path, data)
}

func decodeFile(path string, data []byte) (FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, apperrors.NewConfigError("invalid config file %s: %v", path, err)
	}
	if fc.Timeout != nil {
		if _, err := time.ParseDuration(*fc.Timeout); err != nil {
			return FileConfig{}, apperrors.NewConfigError("invalid config file %s: timeout %q: %v", path, *fc.Timeout, err)
		}
	}
	return fc, nil
}

// applyTo copies the file's values into cfg for every setting whose flag
// was not given on the command line.
func (fc FileConfig) applyTo(cfg *AppConfig, fs *flag.FlagSet) {
	setInt := func(dst *int, src *int, flags ...string) bool {
		if src == nil || isFlagSetAny(fs, flags...) {
			return false
		}
		*dst = *src
		return true
	}
	setBool := func(dst *bool, src *bool, flags ...string) {
		if src != nil && !isFlagSetAny(fs, flags...) {
			*dst = *src
		}
	}
	setString := func(dst *string, src *string, flags ...string) {
		if src != nil && !isFlagSetAny(fs, flags...) {
			*dst = *src
		}
	}

	if setInt(&cfg.Threshold, fc.Threshold, "threshold") {
		cfg.ThresholdSource = SourceFile
	}
	setInt(&cfg.MaxIterations, fc.MaxIterations, "max-iterations")
	setInt(&cfg.Workers, fc.Workers, "workers")
	if fc.Timeout != nil && !isFlagSet(fs, "timeout") {
		cfg.Timeout, _ = time.ParseDuration(*fc.Timeout)
	}
	setBool(&cfg.Quiet, fc.Quiet, "quiet", "q")
	setBool(&cfg.Verbose, fc.Verbose, "verbose", "v")
	setBool(&cfg.Details, fc.Details, "details", "d")
	setString(&cfg.OutputFile, fc.Output, "output", "o")
	setString(&cfg.LogLevel, fc.LogLevel, "log-level")
	setString(&cfg.LogFormat, fc.LogFormat, "log-format")
	setString(&cfg.Serve, fc.Serve, "serve")
}
