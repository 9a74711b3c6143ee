// Package format provides display helpers shared by the CLI and the server:
// duration and number formatting, progress bars and ETA estimation.
package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// maxETA caps estimates so a stalled batch does not report absurd values.
const maxETA = 24 * time.Hour

// rateSmoothing is the weight of the newest sample in the rate moving average.
const rateSmoothing = 0.3

// ProgressWithETA tracks the completed fraction of a batch and estimates the
// remaining time from an exponentially smoothed progress rate.
// It is safe for concurrent use.
type ProgressWithETA struct {
	mu           sync.Mutex
	progress     float64
	progressRate float64 // fraction per second
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
}

// NewProgressWithETA creates a tracker whose clock starts now.
func NewProgressWithETA() *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{startTime: now, lastUpdate: now}
}

// Update records the completed fraction, clamped to [0, 1].
func (p *ProgressWithETA) Update(fraction float64) {
	p.UpdateWithETA(fraction)
}

// UpdateWithETA records the completed fraction and returns it together with
// the refreshed ETA.
func (p *ProgressWithETA) UpdateWithETA(fraction float64) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fraction = clamp01(fraction)
	now := time.Now()
	if elapsed := now.Sub(p.lastUpdate).Seconds(); elapsed > 0 && fraction > p.lastProgress {
		sample := (fraction - p.lastProgress) / elapsed
		if p.progressRate == 0 {
			p.progressRate = sample
		} else {
			p.progressRate = rateSmoothing*sample + (1-rateSmoothing)*p.progressRate
		}
		p.lastUpdate = now
		p.lastProgress = fraction
	}
	p.progress = fraction
	return p.progress, p.etaLocked()
}

// Progress returns the last recorded fraction.
func (p *ProgressWithETA) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// GetETA returns the current estimate, or 0 while no rate is known.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etaLocked()
}

// Elapsed returns the time since the tracker was created.
func (p *ProgressWithETA) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

func (p *ProgressWithETA) etaLocked() time.Duration {
	if p.progressRate <= 0 || p.progress >= 1 {
		return 0
	}
	seconds := (1 - p.progress) / p.progressRate
	eta := time.Duration(seconds * float64(time.Second))
	if eta > maxETA || eta < 0 {
		return maxETA
	}
	return eta
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// FormatETA renders an estimate compactly: "< 1s", "45s", "2m30s", "1h15m".
// Non-positive values mean no estimate is available yet.
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}

	h := int(eta.Hours())
	m := int(eta.Minutes()) % 60
	s := int(eta.Seconds()) % 60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ProgressBar renders a bar of the given length, with progress clamped to [0, 1].
func ProgressBar(progress float64, length int) string {
	if length <= 0 {
		return ""
	}
	filled := int(clamp01(progress) * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders "[bar] 42.0% ETA: 3s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(progress, width), clamp01(progress)*100, FormatETA(eta))
}
