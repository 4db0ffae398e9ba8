package collection

import (
	"sort"
	"sync"
	"time"

	"apimonitor/models"
)

// SampleWindow holds the probe outcomes of a single endpoint observed
// within a sliding time window. Outcomes older than the window are
// evicted lazily on the next Record or Snapshot.
type SampleWindow struct {
	lock     *sync.RWMutex
	duration time.Duration
	samples  []models.ProbeOutcome
}

func NewSampleWindow(duration time.Duration) *SampleWindow {
	if duration <= 0 {
		panic("invalid SampleWindow duration")
	}
	return &SampleWindow{
		lock:     &sync.RWMutex{},
		duration: duration,
		samples:  []models.ProbeOutcome{},
	}
}

func (w *SampleWindow) Record(outcome models.ProbeOutcome, now time.Time) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.samples = append(w.samples, outcome)
	w.evict(now)
}

// evict drops samples with timestamps strictly before now minus the
// window. A sample stamped exactly at the boundary is retained.
func (w *SampleWindow) evict(now time.Time) {
	cutoff := now.Add(-w.duration)
	i := 0
	for i < len(w.samples) && w.samples[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = append([]models.ProbeOutcome{}, w.samples[i:]...)
	}
}

func (w *SampleWindow) Snapshot(endpointName string, now time.Time) models.WindowStats {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.evict(now)

	stats := models.WindowStats{EndpointName: endpointName}
	if len(w.samples) == 0 {
		stats.InsufficientData = true
		return stats
	}

	latencies := []float64{}
	for _, s := range w.samples {
		stats.SampleCount++
		if s.Succeeded {
			stats.SuccessCount++
			latencies = append(latencies, s.LatencyMs)
		}
	}

	stats.AvailabilityPercentage = float64(stats.SuccessCount) / float64(stats.SampleCount) * 100
	stats.ErrorRatePercentage = 100 - stats.AvailabilityPercentage

	if len(latencies) > 0 {
		sum := 0.0
		for _, l := range latencies {
			sum += l
		}
		stats.AverageLatencyMs = sum / float64(len(latencies))
		stats.P95LatencyMs = percentile(latencies, 0.95)
	}
	return stats
}

func percentile(values []float64, p float64) float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted))*p+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// WindowSet maps endpoint names to their sample windows. Windows are
// created on first use.
type WindowSet struct {
	lock     *sync.Mutex
	duration time.Duration
	windows  map[string]*SampleWindow
}

func NewWindowSet(duration time.Duration) *WindowSet {
	if duration <= 0 {
		panic("invalid WindowSet duration")
	}
	return &WindowSet{
		lock:     &sync.Mutex{},
		duration: duration,
		windows:  map[string]*SampleWindow{},
	}
}

func (s *WindowSet) window(endpointName string) *SampleWindow {
	s.lock.Lock()
	defer s.lock.Unlock()

	w, exists := s.windows[endpointName]
	if !exists {
		w = NewSampleWindow(s.duration)
		s.windows[endpointName] = w
	}
	return w
}

func (s *WindowSet) Record(outcome models.ProbeOutcome, now time.Time) {
	s.window(outcome.EndpointName).Record(outcome, now)
}

func (s *WindowSet) Snapshot(endpointName string, now time.Time) models.WindowStats {
	return s.window(endpointName).Snapshot(endpointName, now)
}
