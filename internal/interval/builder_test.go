// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package interval_test

import (
	"testing"

	"github.com/OpenPSG/vitalindex/internal/interval"
	"github.com/OpenPSG/vitalindex/internal/vital"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fids(times ...float64) vital.FiducialSeries {
	out := make(vital.FiducialSeries, len(times))
	for i, t := range times {
		out[i] = vital.Fiducial{Time: t}
	}
	return out
}

func TestBuildSteadySeries(t *testing.T) {
	b := interval.NewBuilder(interval.DefaultConfig())

	rr := b.Build(fids(0.5, 1.5, 2.5, 3.5))
	require.Len(t, rr.Intervals, 3)
	assert.Zero(t, rr.Rejected)

	for i, iv := range rr.Intervals {
		assert.InDelta(t, 1.0, iv.Length, 1e-12)
		// Each interval is stamped at the fiducial that completed it.
		assert.InDelta(t, 1.5+float64(i), iv.Time, 1e-12)
	}
}

func TestBuildRejectsImplausibleIntervals(t *testing.T) {
	b := interval.NewBuilder(interval.DefaultConfig())

	// 0.1 s is a double detection, 3.0 s is a dropout.
	rr := b.Build(fids(0.5, 0.6, 1.6, 4.6, 5.6))
	require.Len(t, rr.Intervals, 2)
	assert.Equal(t, 2, rr.Rejected)

	assert.InDelta(t, 1.6, rr.Intervals[0].Time, 1e-12)
	assert.InDelta(t, 5.6, rr.Intervals[1].Time, 1e-12)
}

func TestBuildTooFewFiducials(t *testing.T) {
	b := interval.NewBuilder(interval.DefaultConfig())

	assert.Empty(t, b.Build(nil).Intervals)
	assert.Empty(t, b.Build(fids(1.0)).Intervals)
}
