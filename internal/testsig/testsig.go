// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package testsig generates deterministic synthetic ECG and PPG waveforms
// with known fiducial positions for tests.
package testsig

import (
	"math"

	"github.com/OpenPSG/vitalindex/internal/vital"
)

// ECG synthesizes an ECG-like waveform at fs Hz with beats at the given
// successive RR intervals, starting 0.5 s in. Each beat is a Gaussian
// R-peak flanked by smaller P and T waves. It returns the signal and the
// exact R-peak times.
func ECG(fs float64, rr []float64) (vital.Signal, []float64) {
	peaks := make([]float64, len(rr)+1)
	t := 0.5
	peaks[0] = t
	for i, iv := range rr {
		t += iv
		peaks[i+1] = t
	}
	duration := t + 0.5

	samples := make([]float64, int(duration*fs))
	for _, tb := range peaks {
		addGaussian(samples, fs, tb-0.16, 0.10, 0.025) // P
		addGaussian(samples, fs, tb, 1.0, 0.015)       // R
		addGaussian(samples, fs, tb+0.28, 0.20, 0.06)  // T
	}
	return vital.Signal{SampleRate: fs, Samples: samples}, peaks
}

// ConstantRR returns n identical intervals.
func ConstantRR(n int, length float64) []float64 {
	rr := make([]float64, n)
	for i := range rr {
		rr[i] = length
	}
	return rr
}

// AlternatingRR returns n intervals alternating between a and b.
func AlternatingRR(n int, a, b float64) []float64 {
	rr := make([]float64, n)
	for i := range rr {
		if i%2 == 0 {
			rr[i] = a
		} else {
			rr[i] = b
		}
	}
	return rr
}

// PPG synthesizes a pleth-like waveform at fs Hz with one raised-cosine
// pulse per interval and the given per-pulse amplitudes, on a baseline of
// 50. It returns the signal and the exact systolic peak times.
func PPG(fs float64, pp []float64, amplitudes []float64) (vital.Signal, []float64) {
	peaks := make([]float64, len(pp)+1)
	t := 0.5
	peaks[0] = t
	for i, iv := range pp {
		t += iv
		peaks[i+1] = t
	}
	duration := t + 0.5

	samples := make([]float64, int(duration*fs))
	for i := range samples {
		samples[i] = 50
	}
	for i, tb := range peaks {
		amp := 20.0
		if i < len(amplitudes) {
			amp = amplitudes[i]
		}
		addPulse(samples, fs, tb, amp, 0.35)
	}
	return vital.Signal{SampleRate: fs, Samples: samples}, peaks
}

// ConstantAmplitudes returns n identical pulse amplitudes.
func ConstantAmplitudes(n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp
	}
	return out
}

// addGaussian adds a Gaussian bump of the given amplitude and width
// (standard deviation, seconds) centered at tc.
func addGaussian(samples []float64, fs, tc, amp, sigma float64) {
	lo := int((tc - 4*sigma) * fs)
	hi := int((tc + 4*sigma) * fs)
	for i := max(lo, 0); i <= hi && i < len(samples); i++ {
		z := (float64(i)/fs - tc) / sigma
		samples[i] += amp * math.Exp(-0.5*z*z)
	}
}

// addPulse adds a raised-cosine pulse of the given half-width (seconds)
// peaking at tc.
func addPulse(samples []float64, fs, tc, amp, halfWidth float64) {
	lo := int((tc - halfWidth) * fs)
	hi := int((tc + halfWidth) * fs)
	for i := max(lo, 0); i <= hi && i < len(samples); i++ {
		phase := (float64(i)/fs - tc) / halfWidth * math.Pi
		samples[i] += amp * (1 + math.Cos(phase)) / 2
	}
}
