// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package hrv_test

import (
	"testing"

	"github.com/OpenPSG/vitalindex/internal/hrv"
	"github.com/OpenPSG/vitalindex/internal/vital"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(lengths []float64) vital.IntervalSeries {
	var out vital.IntervalSeries
	t := 0.5
	for _, l := range lengths {
		t += l
		out.Intervals = append(out.Intervals, vital.Interval{Time: t, Length: l})
	}
	return out
}

func repeat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestAnalyzeSteadyRhythm(t *testing.T) {
	a := hrv.NewAnalyzer(hrv.DefaultConfig())

	sum := a.Analyze(series(repeat(60, 1.0)))
	require.NotNil(t, sum)

	assert.InDelta(t, 60, sum.MeanHR, 1e-9)
	assert.InDelta(t, 0, sum.SDNN, 1e-9)
	assert.InDelta(t, 0, sum.RMSSD, 1e-9)
	assert.InDelta(t, 0, sum.PNN50, 1e-9)
	assert.InDelta(t, 0, sum.LFPower, 1e-9)
	assert.InDelta(t, 0, sum.HFPower, 1e-9)
}

func TestAnalyzeAlternatingRhythm(t *testing.T) {
	a := hrv.NewAnalyzer(hrv.DefaultConfig())

	lengths := make([]float64, 64)
	for i := range lengths {
		if i%2 == 0 {
			lengths[i] = 0.9
		} else {
			lengths[i] = 1.1
		}
	}
	sum := a.Analyze(series(lengths))
	require.NotNil(t, sum)

	assert.InDelta(t, 60, sum.MeanHR, 1e-9)
	// Every successive difference is 200 ms, all above the pNN50 threshold.
	assert.InDelta(t, 200, sum.RMSSD, 1e-6)
	assert.InDelta(t, 1, sum.PNN50, 1e-9)
	assert.Greater(t, sum.SDNN, 90.0)
}

func TestAnalyzeGapSkipsSuccessiveDifference(t *testing.T) {
	a := hrv.NewAnalyzer(hrv.DefaultConfig())

	// A rejected interval leaves a gap: the pair straddling it must not
	// contribute a successive difference.
	s := series(repeat(40, 1.0))
	for i := 20; i < len(s.Intervals); i++ {
		s.Intervals[i].Time += 3.0
	}
	s.Rejected = 1

	sum := a.Analyze(s)
	require.NotNil(t, sum)
	assert.InDelta(t, 0, sum.RMSSD, 1e-9)
}

func TestAnalyzeSparseSeries(t *testing.T) {
	a := hrv.NewAnalyzer(hrv.DefaultConfig())
	assert.Nil(t, a.Analyze(series(repeat(10, 1.0))))
	assert.Nil(t, a.Analyze(vital.IntervalSeries{}))
}
