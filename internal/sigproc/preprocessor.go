// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package sigproc denoises raw ECG and PPG waveforms and provides the
// shared filtering primitives used by the index calculators.
package sigproc

import (
	"fmt"
	"math"

	"github.com/OpenPSG/vitalindex/internal/vital"
)

// Config holds the preprocessor's filter bands and cleaning gates.
type Config struct {
	MinDuration    float64 // minimum signal length in seconds for stable filtering
	NaNFractionMax float64 // maximum tolerated fraction of NaN samples

	// Band-pass cutoffs in Hz.
	ECGLowCut  float64 // suppress baseline wander below this
	ECGHighCut float64 // suppress high-frequency noise above this
	PPGLowCut  float64
	PPGHighCut float64

	// Physical plausibility clips.
	ECGClipMin float64 // mV
	ECGClipMax float64 // mV
	PPGClipMin float64
	PPGClipMax float64
}

// DefaultConfig returns the preprocessor defaults: QRS band 5-40 Hz, pulse
// band 0.5-8 Hz, and the cleaning thresholds used by surgical monitor
// exports (ECG in [-1, 3] mV, PPG in [0, 100]).
func DefaultConfig() Config {
	return Config{
		MinDuration:    2.0,
		NaNFractionMax: 0.5,
		ECGLowCut:      5.0,
		ECGHighCut:     40.0,
		PPGLowCut:      0.5,
		PPGHighCut:     8.0,
		ECGClipMin:     -1.0,
		ECGClipMax:     3.0,
		PPGClipMin:     0.0,
		PPGClipMax:     100.0,
	}
}

// Preprocessor cleans raw sampled signals into waveforms ready for
// beat/pulse detection. It is a pure transform: the input is never mutated.
type Preprocessor struct {
	cfg Config
}

// NewPreprocessor returns a Preprocessor with the given configuration.
func NewPreprocessor(cfg Config) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// Clean validates, blanks artifacts from and band-pass filters the signal.
// It returns vital.ErrInvalidSignal when the signal is too short or too
// NaN-ridden to filter reliably.
func (p *Preprocessor) Clean(sig vital.Signal, kind vital.SignalKind) (vital.Signal, error) {
	if err := sig.Validate(); err != nil {
		return vital.Signal{}, err
	}
	if sig.Duration() < p.cfg.MinDuration {
		return vital.Signal{}, fmt.Errorf("%w: %s signal is %.2fs, need at least %.2fs",
			vital.ErrInvalidSignal, kind, sig.Duration(), p.cfg.MinDuration)
	}

	nanCount := 0
	for _, v := range sig.Samples {
		if math.IsNaN(v) {
			nanCount++
		}
	}
	if frac := float64(nanCount) / float64(len(sig.Samples)); frac > p.cfg.NaNFractionMax {
		return vital.Signal{}, fmt.Errorf("%w: %s signal is %.0f%% NaN",
			vital.ErrInvalidSignal, kind, frac*100)
	}

	cleaned := make([]float64, len(sig.Samples))
	copy(cleaned, sig.Samples)

	var lowCut, highCut float64
	switch kind {
	case vital.KindECG:
		// Blank NaNs and out-of-range excursions; electrode artifacts must
		// not leak into the QRS energy transform.
		for i, v := range cleaned {
			if math.IsNaN(v) || v <= p.cfg.ECGClipMin || v >= p.cfg.ECGClipMax {
				cleaned[i] = 0
			}
		}
		lowCut, highCut = p.cfg.ECGLowCut, p.cfg.ECGHighCut
	case vital.KindPPG:
		// Clamp rather than blank: the pulse waveform shape must survive.
		for i, v := range cleaned {
			switch {
			case math.IsNaN(v):
				cleaned[i] = 0
			case v < p.cfg.PPGClipMin:
				cleaned[i] = p.cfg.PPGClipMin
			case v > p.cfg.PPGClipMax:
				cleaned[i] = p.cfg.PPGClipMax
			}
		}
		lowCut, highCut = p.cfg.PPGLowCut, p.cfg.PPGHighCut
	default:
		return vital.Signal{}, fmt.Errorf("%w: unknown signal kind %d", vital.ErrInvalidSignal, kind)
	}

	filtered, err := BandPass(cleaned, sig.SampleRate, lowCut, highCut)
	if err != nil {
		return vital.Signal{}, fmt.Errorf("%w: %v", vital.ErrInvalidSignal, err)
	}

	return vital.Signal{
		StartTime:  sig.StartTime,
		SampleRate: sig.SampleRate,
		Samples:    filtered,
	}, nil
}
