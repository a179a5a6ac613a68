// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package sigproc

import (
	"fmt"
	"math"

	"github.com/jfcg/butter"
)

// bandPassOnce runs a single forward pass of a cascaded Butterworth
// high-pass + low-pass over the samples.
func bandPassOnce(samples []float64, fs, lowCut, highCut float64) ([]float64, error) {
	// Normalized cutoff: wc = 2*pi*f/fs.
	wcBase := 2 * math.Pi / fs

	hp := butter.NewHighPass1(lowCut * wcBase)
	if hp == nil {
		return nil, fmt.Errorf("invalid high-pass cutoff %v Hz at %v Hz sampling", lowCut, fs)
	}
	lp := butter.NewLowPass1(highCut * wcBase)
	if lp == nil {
		return nil, fmt.Errorf("invalid low-pass cutoff %v Hz at %v Hz sampling", highCut, fs)
	}

	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = hp.Next(lp.Next(v))
	}
	return out, nil
}

// BandPass applies a zero-phase band-pass filter: one forward and one
// backward pass of a cascaded Butterworth high-pass + low-pass, so detected
// event timing is not skewed by filter group delay.
func BandPass(samples []float64, fs, lowCut, highCut float64) ([]float64, error) {
	fwd, err := bandPassOnce(samples, fs, lowCut, highCut)
	if err != nil {
		return nil, err
	}
	reverse(fwd)
	bwd, err := bandPassOnce(fwd, fs, lowCut, highCut)
	if err != nil {
		return nil, err
	}
	reverse(bwd)
	return bwd, nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// MovingAverage returns the centered moving average of x over a window of
// the given odd-ish width in samples. Edges use the samples available.
func MovingAverage(x []float64, width int) []float64 {
	if width < 1 {
		width = 1
	}
	half := width / 2
	out := make([]float64, len(x))
	sum := 0.0
	lo, hi := 0, 0 // window is x[lo:hi]
	for i := range x {
		for hi <= i+half && hi < len(x) {
			sum += x[hi]
			hi++
		}
		for lo < i-half {
			sum -= x[lo]
			lo++
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// Interp1 linearly interpolates the series (xs, ys) at the points xq.
// Queries outside the range of xs are extrapolated from the nearest segment.
func Interp1(xs, ys, xq []float64) []float64 {
	out := make([]float64, len(xq))
	if len(xs) == 0 {
		return out
	}
	if len(xs) == 1 {
		for i := range out {
			out[i] = ys[0]
		}
		return out
	}
	seg := 0
	for i, x := range xq {
		for seg < len(xs)-2 && xs[seg+1] < x {
			seg++
		}
		x0, x1 := xs[seg], xs[seg+1]
		y0, y1 := ys[seg], ys[seg+1]
		if x1 == x0 {
			out[i] = y0
			continue
		}
		out[i] = y0 + (y1-y0)*(x-x0)/(x1-x0)
	}
	return out
}

// LocalMaxima returns the indices of strict local maxima of x.
func LocalMaxima(x []float64) []int {
	var idx []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] > x[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// LocalMinima returns the indices of strict local minima of x.
func LocalMinima(x []float64) []int {
	var idx []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] < x[i-1] && x[i] < x[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}
