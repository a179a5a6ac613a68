// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package index computes the windowed clinical indices (ANI, SPI) from
// interval and amplitude series.
package index

import "math"

func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func stddev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	m := mean(x)
	sum := 0.0
	for _, v := range x {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(x)-1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// trapezoid integrates y sampled at a uniform spacing dx.
func trapezoid(y []float64, dx float64) float64 {
	if len(y) < 2 {
		return 0
	}
	sum := (y[0] + y[len(y)-1]) / 2
	for _, v := range y[1 : len(y)-1] {
		sum += v
	}
	return sum * dx
}

// eachWindow invokes fn with [start, end] bounds for every full analysis
// window. Windows shorter than the full length are skipped: partial windows
// at the edges of a recording would bias the indices.
func eachWindow(duration, window, step float64, fn func(start, end float64)) {
	if window <= 0 || step <= 0 {
		return
	}
	for end := window; end <= duration+1e-9; end += step {
		fn(end-window, end)
	}
}
