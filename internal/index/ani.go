// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package index

import (
	"math"

	"github.com/OpenPSG/vitalindex/internal/sigproc"
	"github.com/OpenPSG/vitalindex/internal/vital"
)

// ANIConfig holds the Analgesia Nociception Index parameters.
type ANIConfig struct {
	WindowSeconds float64 // analysis window length
	StepSeconds   float64 // window advance per output point
	MinBeats      int     // minimum RR intervals per window

	ResampleRate float64 // uniform RR resampling rate, Hz
	HFLowCut     float64 // respiratory (HF) band lower edge, Hz
	HFHighCut    float64 // respiratory (HF) band upper edge, Hz
	EnvelopeClip float64 // envelope excursion clip
	SubWindows   int     // sub-windows for the AUCmin statistic
}

// DefaultANIConfig returns the published ANI parameters: a 64 s window over
// the 0.15-0.4 Hz respiratory band, four 16 s sub-windows, envelope clip at
// +/-0.1.
func DefaultANIConfig() ANIConfig {
	return ANIConfig{
		WindowSeconds: 64,
		StepSeconds:   4,
		MinBeats:      24,
		ResampleRate:  4,
		HFLowCut:      0.15,
		HFHighCut:     0.4,
		EnvelopeClip:  0.1,
		SubWindows:    4,
	}
}

// ANICalculator computes a windowed 0-100 index reflecting the
// respiratory-linked vagal modulation of the RR series.
type ANICalculator struct {
	cfg ANIConfig
}

// NewANICalculator returns an ANICalculator with the given configuration.
func NewANICalculator(cfg ANIConfig) *ANICalculator {
	return &ANICalculator{cfg: cfg}
}

// Compute slides the analysis window over the RR series and emits one point
// per step, timestamped at the window end. Windows with fewer than MinBeats
// intervals emit the NaN sentinel. Duration is the recording length in
// seconds; windows never extend past it, and partial windows are skipped.
func (c *ANICalculator) Compute(rr vital.IntervalSeries, duration float64) vital.IndexSeries {
	var out vital.IndexSeries
	eachWindow(duration, c.cfg.WindowSeconds, c.cfg.StepSeconds, func(start, end float64) {
		out = append(out, vital.IndexPoint{Time: end, Value: c.window(rr, start, end)})
	})
	return out
}

// window computes the ANI value for the RR intervals in [start, end].
func (c *ANICalculator) window(rr vital.IntervalSeries, start, end float64) float64 {
	var times, lengths []float64
	for _, iv := range rr.Intervals {
		if iv.Time >= start && iv.Time <= end {
			times = append(times, iv.Time-start)
			lengths = append(lengths, iv.Length)
		}
	}
	if len(lengths) < c.cfg.MinBeats {
		return math.NaN()
	}

	// Remove the slow trend and scale to unit energy so the HF content is
	// comparable across heart rates.
	m := mean(lengths)
	norm := 0.0
	for i := range lengths {
		lengths[i] -= m
		norm += lengths[i] * lengths[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range lengths {
			lengths[i] /= norm
		}
	}

	// Uniform resampling so the band-pass filter sees an evenly sampled
	// series.
	steps := int(c.cfg.WindowSeconds*c.cfg.ResampleRate) + 1
	grid := make([]float64, steps)
	for i := range grid {
		grid[i] = float64(i) / c.cfg.ResampleRate
	}
	resampled := sigproc.Interp1(times, lengths, grid)

	hf, err := sigproc.BandPass(resampled, c.cfg.ResampleRate, c.cfg.HFLowCut, c.cfg.HFHighCut)
	if err != nil {
		return math.NaN()
	}

	upper := c.envelope(hf, grid, sigproc.LocalMaxima(hf))
	lower := c.envelope(hf, grid, sigproc.LocalMinima(hf))

	gap := make([]float64, len(hf))
	for i := range gap {
		gap[i] = upper[i] - lower[i]
	}

	// AUC of the envelope gap over each sub-window; the published formula
	// maps the smallest sub-window area to the 0-100 scale.
	sub := len(gap) / c.cfg.SubWindows
	dx := 1 / c.cfg.ResampleRate
	aucMin := math.Inf(1)
	for s := 0; s < c.cfg.SubWindows; s++ {
		lo := s * sub
		hi := lo + sub
		if s == c.cfg.SubWindows-1 {
			hi = len(gap) - 1
		}
		if auc := trapezoid(gap[lo:hi+1], dx); auc < aucMin {
			aucMin = auc
		}
	}

	return clamp(100*(5.1*aucMin+1.2)/12.8, 0, 100)
}

// envelope linearly interpolates through the extrema and clips the result.
// Fewer than two extrema (a near-flat series) yields a zero envelope.
func (c *ANICalculator) envelope(hf, grid []float64, extrema []int) []float64 {
	if len(extrema) < 2 {
		return make([]float64, len(hf))
	}
	xs := make([]float64, len(extrema))
	ys := make([]float64, len(extrema))
	for i, idx := range extrema {
		xs[i] = grid[idx]
		ys[i] = hf[idx]
	}
	env := sigproc.Interp1(xs, ys, grid)
	for i := range env {
		env[i] = clamp(env[i], -c.cfg.EnvelopeClip, c.cfg.EnvelopeClip)
	}
	return env
}
