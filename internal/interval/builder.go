// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package interval converts beat/pulse event sequences into successive
// interval series, rejecting physiologically implausible intervals.
package interval

import "github.com/OpenPSG/vitalindex/internal/vital"

// Config bounds the accepted interval lengths, in seconds. The defaults
// admit 30-200 bpm.
type Config struct {
	Min float64
	Max float64
}

// DefaultConfig returns the physiologic RR/pulse interval bounds.
func DefaultConfig() Config {
	return Config{Min: 0.3, Max: 2.0}
}

// Builder derives interval series from fiducial series.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder with the given bounds.
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build computes the interval between each consecutive fiducial pair. Each
// accepted interval is timestamped at the later fiducial, so it is
// attributable to the moment it completed. Pairs outside the configured
// bounds are counted in Rejected and become gaps; they are never
// interpolated, so downstream windows see reduced sample density instead of
// fabricated data.
func (b *Builder) Build(fiducials vital.FiducialSeries) vital.IntervalSeries {
	var out vital.IntervalSeries
	if len(fiducials) < 2 {
		return out
	}
	out.Intervals = make([]vital.Interval, 0, len(fiducials)-1)
	for i := 1; i < len(fiducials); i++ {
		length := fiducials[i].Time - fiducials[i-1].Time
		if length < b.cfg.Min || length > b.cfg.Max {
			out.Rejected++
			continue
		}
		out.Intervals = append(out.Intervals, vital.Interval{
			Time:   fiducials[i].Time,
			Length: length,
		})
	}
	return out
}
