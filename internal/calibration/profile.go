package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultProfileFileName is the file name of the cached profile in the
// user's home directory.
const DefaultProfileFileName = ".collatz_calibration.json"

// CurrentProfileVersion is bumped whenever the profile layout changes;
// profiles with another version are ignored.
const CurrentProfileVersion = 1

// CalibrationProfile is the persisted outcome of a calibration run together
// with the hardware it was measured on.
type CalibrationProfile struct {
	ProfileVersion int       `json:"profile_version"`
	CalibratedAt   time.Time `json:"calibrated_at"`

	NumCPU    int    `json:"num_cpu"`
	GOARCH    string `json:"goarch"`
	GOOS      string `json:"goos"`
	GoVersion string `json:"go_version"`
	WordSize  int    `json:"word_size"`

	// OptimalThreshold is the smallest batch size from which parallel
	// dispatch was measured faster than sequential dispatch.
	OptimalThreshold int `json:"optimal_threshold"`
	// MaxIterations is the step budget the workload was measured with.
	MaxIterations int `json:"max_iterations"`
	// MaxSize is the largest batch measured.
	MaxSize int `json:"max_size"`
	// CalibrationTime is the wall time of the run, as a duration string.
	CalibrationTime string `json:"calibration_time"`
}

// NewProfile returns a profile describing the current machine.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		ProfileVersion: CurrentProfileVersion,
		CalibratedAt:   time.Now(),
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
	}
}

// IsValid reports whether the profile was measured on hardware matching the
// current machine with the current profile layout.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	current := NewProfile()
	return p.ProfileVersion == CurrentProfileVersion &&
		p.NumCPU == current.NumCPU &&
		p.GOARCH == current.GOARCH &&
		p.WordSize == current.WordSize
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

func (p *CalibrationProfile) String() string {
	return fmt.Sprintf("Calibration profile v%d (%s/%s, %d CPUs, %s): threshold=%d inputs at %d iterations, measured up to %d inputs in %s on %s",
		p.ProfileVersion, p.GOOS, p.GOARCH, p.NumCPU, p.GoVersion,
		p.OptimalThreshold, p.MaxIterations, p.MaxSize, p.CalibrationTime,
		p.CalibratedAt.Format(time.RFC3339))
}

// SaveProfile writes the profile as indented JSON, creating missing parent
// directories. The file is replaced atomically.
func (p *CalibrationProfile) SaveProfile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode calibration profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save calibration profile: %w", err)
	}
	return nil
}

func loadProfile(path string) (*CalibrationProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p CalibrationProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid calibration profile %s: %w", path, err)
	}
	return &p, nil
}

// LoadOrCreateProfile loads the profile at path, or returns a fresh profile
// for the current machine when the file is missing, unreadable or was
// measured on different hardware. The boolean reports whether the profile
// was loaded.
func LoadOrCreateProfile(path string) (*CalibrationProfile, bool) {
	p, err := loadProfile(path)
	if err != nil || !p.IsValid() {
		return NewProfile(), false
	}
	return p, true
}

// AppliesTo reports whether the profile is valid and was measured at the
// given step budget.
func (p *CalibrationProfile) AppliesTo(maxIterations int) bool {
	return p.IsValid() && p.MaxIterations == maxIterations
}

// LoadCachedThreshold returns the calibrated threshold stored at path when a
// valid profile measured at maxIterations exists there.
func LoadCachedThreshold(path string, maxIterations int) (int, bool) {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	p, loaded := LoadOrCreateProfile(path)
	if !loaded || !p.AppliesTo(maxIterations) {
		return 0, false
	}
	return p.OptimalThreshold, true
}

// GetDefaultProfilePath returns ~/.collatz_calibration.json, or the file
// name alone when the home directory cannot be determined.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}
