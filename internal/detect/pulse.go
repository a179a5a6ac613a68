// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package detect

import (
	"github.com/OpenPSG/vitalindex/internal/sigproc"
	"github.com/OpenPSG/vitalindex/internal/vital"
)

// PulseConfig holds the systolic pulse detector parameters.
type PulseConfig struct {
	Refractory           float64 // minimum pulse spacing in seconds
	MinAmplitudeFraction float64 // reject pulses below this fraction of the recent mean amplitude
	AmplitudeHistory     int     // number of recent pulses in the adaptive mean
}

// DefaultPulseConfig returns the detector defaults, scaled to typical
// pulse rates.
func DefaultPulseConfig() PulseConfig {
	return PulseConfig{
		Refractory:           0.3,
		MinAmplitudeFraction: 0.2,
		AmplitudeHistory:     8,
	}
}

// PulseDetector locates systolic peaks in a cleaned PPG and pairs each with
// its immediately preceding trough to obtain the pulse amplitude.
type PulseDetector struct {
	cfg PulseConfig
}

// NewPulseDetector returns a PulseDetector with the given configuration.
func NewPulseDetector(cfg PulseConfig) *PulseDetector {
	return &PulseDetector{cfg: cfg}
}

// DetectPulses returns the detected systolic peaks with their pulse
// amplitudes. An empty series means no plausible pulses were found.
func (d *PulseDetector) DetectPulses(ppg vital.Signal) vital.FiducialSeries {
	n := len(ppg.Samples)
	if n < 3 || ppg.SampleRate <= 0 {
		return nil
	}
	fs := ppg.SampleRate
	refractory := int(d.cfg.Refractory * fs)

	var pulses vital.FiducialSeries
	var amps *peakHistory
	lastIdx := -refractory - 1
	troughStart := 0 // search start for the preceding trough

	for _, i := range sigproc.LocalMaxima(ppg.Samples) {
		// The band-passed pulse waveform oscillates around zero; systolic
		// peaks are the positive excursions.
		if ppg.Samples[i] <= 0 {
			continue
		}
		if i-lastIdx <= refractory {
			continue
		}

		trough := minimumIndex(ppg.Samples, troughStart, i)
		amplitude := ppg.Samples[i] - ppg.Samples[trough]
		if amplitude <= 0 {
			continue
		}
		if amps != nil && amplitude < d.cfg.MinAmplitudeFraction*amps.mean() {
			continue // Motion artifact or dicrotic bump.
		}

		pulses = append(pulses, vital.Fiducial{Time: ppg.At(i), Amplitude: amplitude})
		if amps == nil {
			amps = newPeakHistory(d.cfg.AmplitudeHistory, amplitude)
		} else {
			amps.add(amplitude)
		}
		lastIdx = i
		troughStart = i
	}

	return pulses
}

// minimumIndex returns the index of the smallest sample in x[lo:hi].
func minimumIndex(x []float64, lo, hi int) int {
	best := lo
	for j := lo + 1; j < hi; j++ {
		if x[j] < x[best] {
			best = j
		}
	}
	return best
}
