// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package hrv computes per-recording heart-rate variability statistics
// from the accepted RR series.
package hrv

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/OpenPSG/vitalindex/internal/sigproc"
	"github.com/OpenPSG/vitalindex/internal/vital"
)

// Config holds the HRV analysis parameters.
type Config struct {
	MinIntervals int     // minimum RR intervals for a meaningful summary
	ResampleRate float64 // uniform resampling rate for spectral analysis, Hz
	LFLowCut     float64 // LF band lower edge, Hz
	LFHighCut    float64 // LF band upper edge / HF band lower edge, Hz
	HFHighCut    float64 // HF band upper edge, Hz
	PNNThreshold float64 // successive-difference threshold for pNN50, seconds
}

// DefaultConfig returns the conventional short-term HRV bands.
func DefaultConfig() Config {
	return Config{
		MinIntervals: 32,
		ResampleRate: 4,
		LFLowCut:     0.04,
		LFHighCut:    0.15,
		HFHighCut:    0.4,
		PNNThreshold: 0.05,
	}
}

// Analyzer computes HRV summaries.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer returns an Analyzer with the given configuration.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze computes time- and frequency-domain HRV statistics over the full
// accepted RR series. It returns nil when the series is too sparse for the
// summary to mean anything.
func (a *Analyzer) Analyze(rr vital.IntervalSeries) *vital.HRVSummary {
	n := len(rr.Intervals)
	if n < a.cfg.MinIntervals {
		return nil
	}

	times := make([]float64, n)
	lengths := make([]float64, n)
	for i, iv := range rr.Intervals {
		times[i] = iv.Time
		lengths[i] = iv.Length
	}

	out := &vital.HRVSummary{}

	m := mean(lengths)
	out.MeanHR = 60 / m
	out.SDNN = stddevAround(lengths, m) * 1000

	// Successive differences: gaps left by rejected intervals are skipped
	// rather than bridged, so artifacts do not masquerade as variability.
	var sumSq float64
	var diffs, over int
	for i := 1; i < n; i++ {
		if times[i]-times[i-1] > lengths[i]+1e-9 {
			continue // A rejected interval sits between these two.
		}
		d := lengths[i] - lengths[i-1]
		sumSq += d * d
		diffs++
		if math.Abs(d) > a.cfg.PNNThreshold {
			over++
		}
	}
	if diffs > 0 {
		out.RMSSD = math.Sqrt(sumSq/float64(diffs)) * 1000
		out.PNN50 = float64(over) / float64(diffs)
	}

	a.spectral(times, lengths, m, out)
	return out
}

// spectral fills in the LF/HF band powers from a periodogram of the
// uniformly resampled, detrended RR series.
func (a *Analyzer) spectral(times, lengths []float64, m float64, out *vital.HRVSummary) {
	span := times[len(times)-1] - times[0]
	steps := int(span * a.cfg.ResampleRate)
	if steps < 16 {
		return
	}

	grid := make([]float64, steps)
	for i := range grid {
		grid[i] = times[0] + float64(i)/a.cfg.ResampleRate
	}
	detrended := make([]float64, len(lengths))
	for i, v := range lengths {
		detrended[i] = v - m
	}
	resampled := sigproc.Interp1(times, detrended, grid)

	spectrum := fft.FFTReal(resampled)
	binWidth := a.cfg.ResampleRate / float64(len(resampled))

	for i := 1; i < len(spectrum)/2; i++ {
		f := float64(i) * binWidth
		power := cmplx.Abs(spectrum[i])
		power *= power
		switch {
		case f >= a.cfg.LFLowCut && f < a.cfg.LFHighCut:
			out.LFPower += power
		case f >= a.cfg.LFHighCut && f <= a.cfg.HFHighCut:
			out.HFPower += power
		}
	}
	if out.HFPower > 0 {
		out.LFHF = out.LFPower / out.HFPower
	}
}

func mean(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func stddevAround(x []float64, m float64) float64 {
	if len(x) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(x)-1))
}
