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

	"github.com/OpenPSG/vitalindex/internal/vital"
)

// SPIConfig holds the Surgical Pleth Index parameters.
type SPIConfig struct {
	WindowSeconds float64 // analysis window length
	StepSeconds   float64 // window advance per output point
	MinPulses     int     // minimum pulses per window

	// Bounded-scale normalization of the coefficient-of-variation
	// dispersion measures: norm(cv) = 100 * min(cv/scale, 1).
	PeriodCVScale    float64
	AmplitudeCVScale float64

	// Combination weights for the normalized period and amplitude measures.
	PeriodWeight    float64
	AmplitudeWeight float64
}

// DefaultSPIConfig returns the SPI defaults: the conventional 0.3/0.7
// period/amplitude weighting over a 64 s window.
func DefaultSPIConfig() SPIConfig {
	return SPIConfig{
		WindowSeconds:    64,
		StepSeconds:      4,
		MinPulses:        24,
		PeriodCVScale:    0.2,
		AmplitudeCVScale: 0.4,
		PeriodWeight:     0.3,
		AmplitudeWeight:  0.7,
	}
}

// SPICalculator computes a windowed 0-100 index combining pulse-period and
// pulse-amplitude variability. Low variability maps to a high SPI.
type SPICalculator struct {
	cfg SPIConfig
}

// NewSPICalculator returns an SPICalculator with the given configuration.
func NewSPICalculator(cfg SPIConfig) *SPICalculator {
	return &SPICalculator{cfg: cfg}
}

// Compute slides the analysis window over the pulse interval and amplitude
// series and emits one point per step, timestamped at the window end.
// Windows with fewer than MinPulses pulses emit the NaN sentinel; partial
// windows at the recording edges are skipped.
func (c *SPICalculator) Compute(intervals vital.IntervalSeries, pulses vital.FiducialSeries, duration float64) vital.IndexSeries {
	var out vital.IndexSeries
	eachWindow(duration, c.cfg.WindowSeconds, c.cfg.StepSeconds, func(start, end float64) {
		out = append(out, vital.IndexPoint{Time: end, Value: c.window(intervals, pulses, start, end)})
	})
	return out
}

func (c *SPICalculator) window(intervals vital.IntervalSeries, pulses vital.FiducialSeries, start, end float64) float64 {
	var periods []float64
	for _, iv := range intervals.Intervals {
		if iv.Time >= start && iv.Time <= end {
			periods = append(periods, iv.Length)
		}
	}
	var amplitudes []float64
	for _, p := range pulses {
		if p.Time >= start && p.Time <= end {
			amplitudes = append(amplitudes, p.Amplitude)
		}
	}
	if len(periods) < c.cfg.MinPulses || len(amplitudes) < c.cfg.MinPulses {
		return math.NaN()
	}

	normP := c.normCV(periods, c.cfg.PeriodCVScale)
	normA := c.normCV(amplitudes, c.cfg.AmplitudeCVScale)
	if math.IsNaN(normP) || math.IsNaN(normA) {
		return math.NaN()
	}

	raw := c.cfg.PeriodWeight*normP + c.cfg.AmplitudeWeight*normA
	return clamp(100-raw, 0, 100)
}

// normCV maps the coefficient of variation of x onto a bounded 0-100 scale.
func (c *SPICalculator) normCV(x []float64, scale float64) float64 {
	m := mean(x)
	if m == 0 || math.IsNaN(m) {
		return math.NaN()
	}
	cv := stddev(x) / math.Abs(m)
	if math.IsNaN(cv) {
		return math.NaN()
	}
	return 100 * math.Min(cv/scale, 1)
}
