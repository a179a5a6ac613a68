// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package detect locates heartbeat and pulse fiducial points in cleaned
// ECG and PPG waveforms.
package detect

import (
	"github.com/OpenPSG/vitalindex/internal/sigproc"
	"github.com/OpenPSG/vitalindex/internal/vital"
)

// BeatConfig holds the R-peak detector parameters.
type BeatConfig struct {
	Refractory        float64 // minimum inter-beat spacing in seconds (~240 bpm ceiling)
	IntegrationWindow float64 // QRS energy integration window in seconds
	ThresholdFraction float64 // fraction of recent mean peak energy required
	SeedDuration      float64 // initial stretch used to seed the threshold, seconds
	RefineRadius      float64 // search radius around an energy peak, seconds
	PeakHistory       int     // number of recent peaks in the adaptive mean
}

// DefaultBeatConfig returns the detector defaults.
func DefaultBeatConfig() BeatConfig {
	return BeatConfig{
		Refractory:        0.25,
		IntegrationWindow: 0.15,
		ThresholdFraction: 0.5,
		SeedDuration:      2.0,
		RefineRadius:      0.05,
		PeakHistory:       8,
	}
}

// BeatDetector locates R-peaks in a cleaned ECG using a derivative/squaring
// energy transform followed by adaptive-threshold peak picking with a
// refractory period.
type BeatDetector struct {
	cfg BeatConfig
}

// NewBeatDetector returns a BeatDetector with the given configuration.
func NewBeatDetector(cfg BeatConfig) *BeatDetector {
	return &BeatDetector{cfg: cfg}
}

// DetectBeats returns the detected R-peak times. An empty series means no
// physiologically plausible beats were found; that is a quality signal for
// downstream consumers, not a failure.
func (d *BeatDetector) DetectBeats(ecg vital.Signal) vital.FiducialSeries {
	n := len(ecg.Samples)
	if n < 3 || ecg.SampleRate <= 0 {
		return nil
	}
	fs := ecg.SampleRate

	// Derivative, then squaring: emphasizes the steep QRS slopes over the
	// lower-frequency P and T waves.
	energy := make([]float64, n)
	for i := 1; i < n-1; i++ {
		dv := (ecg.Samples[i+1] - ecg.Samples[i-1]) * fs / 2
		energy[i] = dv * dv
	}

	// Moving-window integration smears the squared slope into one lobe per
	// QRS complex.
	width := int(d.cfg.IntegrationWindow * fs)
	if width < 1 {
		width = 1
	}
	energy = sigproc.MovingAverage(energy, width)

	// Seed the adaptive threshold from the first stretch of the recording.
	seedLen := int(d.cfg.SeedDuration * fs)
	if seedLen > n {
		seedLen = n
	}
	seedMax := 0.0
	for _, e := range energy[:seedLen] {
		if e > seedMax {
			seedMax = e
		}
	}
	if seedMax <= 0 {
		return nil // Flat signal.
	}

	refractory := int(d.cfg.Refractory * fs)
	refineRadius := int(d.cfg.RefineRadius * fs)

	var beats vital.FiducialSeries
	recent := newPeakHistory(d.cfg.PeakHistory, seedMax)
	lastIdx := -refractory - 1

	for _, i := range sigproc.LocalMaxima(energy) {
		if i-lastIdx <= refractory {
			continue
		}
		if energy[i] < d.cfg.ThresholdFraction*recent.mean() {
			continue // Below the noise floor.
		}

		// Refine to the local maximum of the waveform itself; the energy
		// lobe peak does not land exactly on the R-peak sample.
		peak := refineToMaximum(ecg.Samples, i, refineRadius)
		if len(beats) > 0 && sampleIndex(beats[len(beats)-1].Time, fs)+refractory >= peak {
			continue
		}

		beats = append(beats, vital.Fiducial{Time: ecg.At(peak)})
		recent.add(energy[i])
		lastIdx = i
	}

	return beats
}

// refineToMaximum returns the index of the largest sample within radius of i.
func refineToMaximum(x []float64, i, radius int) int {
	lo, hi := i-radius, i+radius
	if lo < 0 {
		lo = 0
	}
	if hi >= len(x) {
		hi = len(x) - 1
	}
	best := lo
	for j := lo + 1; j <= hi; j++ {
		if x[j] > x[best] {
			best = j
		}
	}
	return best
}

func sampleIndex(t, fs float64) int {
	return int(t*fs + 0.5)
}

// peakHistory is a small ring of recent accepted peak heights used for the
// adaptive threshold.
type peakHistory struct {
	vals []float64
	next int
	full bool
}

func newPeakHistory(size int, seed float64) *peakHistory {
	if size < 1 {
		size = 1
	}
	h := &peakHistory{vals: make([]float64, size)}
	h.vals[0] = seed
	h.next = 1 % size
	if h.next == 0 {
		h.full = true
	}
	return h
}

func (h *peakHistory) add(v float64) {
	h.vals[h.next] = v
	h.next = (h.next + 1) % len(h.vals)
	if h.next == 0 {
		h.full = true
	}
}

func (h *peakHistory) mean() float64 {
	n := h.next
	if h.full {
		n = len(h.vals)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range h.vals[:n] {
		sum += v
	}
	return sum / float64(n)
}
