// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package plot_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/vitalindex/internal/plot"
	"github.com/OpenPSG/vitalindex/internal/vital"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, start, step float64) vital.IndexSeries {
	out := make(vital.IndexSeries, n)
	for i := range out {
		out[i] = vital.IndexPoint{Time: 64 + 4*float64(i), Value: start + step*float64(i)}
	}
	return out
}

func TestRenderIndexPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.png")

	ani := ramp(20, 40, 1)
	ani[3].Value = math.NaN() // sentinel points become gaps, not zeros
	spi := ramp(20, 80, -0.5)

	require.NoError(t, plot.RenderIndexPNG(path, ani, spi))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestRenderIndexPNGSingleSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.png")
	require.NoError(t, plot.RenderIndexPNG(path, ramp(10, 50, 1), nil))
	assert.FileExists(t, path)
}

func TestRenderIndexPNGNothingToPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.png")

	sentinel := vital.IndexSeries{{Time: 64, Value: math.NaN()}, {Time: 68, Value: math.NaN()}}
	require.Error(t, plot.RenderIndexPNG(path, sentinel, nil))
	assert.NoFileExists(t, path)
}
