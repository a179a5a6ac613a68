// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package plot renders per-file index series to PNG for quick review
// without a waveform viewer.
package plot

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/OpenPSG/vitalindex/internal/vital"
)

// RenderIndexPNG writes a PNG of the ANI and SPI series to path. Sentinel
// (NaN) points are omitted so they show as gaps rather than zeros.
func RenderIndexPNG(path string, ani, spi vital.IndexSeries) error {
	var series []chart.Series
	if s := continuousSeries("ANI", ani); s != nil {
		series = append(series, s)
	}
	if s := continuousSeries("SPI", spi); s != nil {
		series = append(series, s)
	}
	if len(series) == 0 {
		return fmt.Errorf("no valid index points to plot")
	}

	graph := chart.Chart{
		Width:  1024,
		Height: 256,
		XAxis: chart.XAxis{
			Name: "time (s)",
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return fmt.Errorf("error rendering chart: %w", err)
	}

	return os.WriteFile(path, buffer.Bytes(), 0o644)
}

func continuousSeries(name string, is vital.IndexSeries) chart.Series {
	var xs, ys []float64
	for _, p := range is {
		if math.IsNaN(p.Value) {
			continue
		}
		xs = append(xs, p.Time)
		ys = append(ys, p.Value)
	}
	if len(xs) < 2 {
		return nil
	}
	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys}
}
