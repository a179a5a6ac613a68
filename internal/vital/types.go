// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package vital holds the data model shared by the signal-to-index pipeline:
// sampled signals, detected fiducials, interval series, index series and
// per-file processing results.
package vital

import (
	"fmt"
	"math"
	"time"
)

// SignalKind distinguishes the two waveform types the pipeline understands.
type SignalKind int

const (
	KindECG SignalKind = iota
	KindPPG
)

func (k SignalKind) String() string {
	switch k {
	case KindECG:
		return "ecg"
	case KindPPG:
		return "ppg"
	default:
		return "unknown"
	}
}

// Signal is a uniformly sampled waveform. The timestamp of sample i is
// i/SampleRate seconds from the recording start.
type Signal struct {
	StartTime  time.Time
	SampleRate float64
	Samples    []float64
}

// At returns the timestamp of sample i in seconds from the recording start.
func (s Signal) At(i int) float64 {
	return float64(i) / s.SampleRate
}

// Duration returns the length of the signal in seconds.
func (s Signal) Duration() float64 {
	return float64(len(s.Samples)) / s.SampleRate
}

// Validate checks the Signal invariants.
func (s Signal) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidSignal, s.SampleRate)
	}
	if len(s.Samples) == 0 {
		return fmt.Errorf("%w: empty signal", ErrInvalidSignal)
	}
	return nil
}

// Fiducial is a detected reference event in a waveform (an R-peak or a
// systolic pulse peak). Amplitude is the pulse amplitude for PPG detections
// and zero for ECG beats.
type Fiducial struct {
	Time      float64
	Amplitude float64
}

// FiducialSeries is an ordered sequence of detected events. Timestamps are
// strictly increasing and lie within the source signal's time range.
type FiducialSeries []Fiducial

// Interval is the spacing between two consecutive fiducials, timestamped at
// the later fiducial so each interval is attributable to the moment it
// completed.
type Interval struct {
	Time   float64
	Length float64
}

// IntervalSeries holds the accepted intervals plus a count of pairs rejected
// for falling outside the physiologic bounds. Rejected pairs become gaps,
// never interpolated values.
type IntervalSeries struct {
	Intervals []Interval
	Rejected  int
}

// IndexPoint is one analysis-window output. A NaN value is the sentinel for
// a window that lacked sufficient valid data.
type IndexPoint struct {
	Time  float64
	Value float64
}

// IndexSeries is the windowed output of an index calculator, ordered by
// strictly increasing timestamps.
type IndexSeries []IndexPoint

// ValidCount returns the number of non-sentinel points.
func (is IndexSeries) ValidCount() int {
	n := 0
	for _, p := range is {
		if !math.IsNaN(p.Value) {
			n++
		}
	}
	return n
}

// HRVSummary holds per-recording heart-rate variability statistics computed
// from the full RR series.
type HRVSummary struct {
	MeanHR  float64 // beats per minute
	SDNN    float64 // ms
	RMSSD   float64 // ms
	PNN50   float64 // fraction of successive differences > 50 ms
	LFPower float64 // 0.04-0.15 Hz band power
	HFPower float64 // 0.15-0.4 Hz band power
	LFHF    float64 // LF/HF ratio
}

// Status is the outcome of processing one file.
type Status string

const StatusOK Status = "ok"

// Skipped builds a skipped status with a reason.
func Skipped(reason string) Status { return Status("skipped:" + reason) }

// Failed builds a failed status with a reason.
func Failed(reason string) Status { return Status("failed:" + reason) }

// IsOK reports whether the file processed successfully.
func (s Status) IsOK() bool { return s == StatusOK }

// IsSkipped reports whether the file was skipped.
func (s Status) IsSkipped() bool { return len(s) >= 7 && s[:7] == "skipped" }

// IsFailed reports whether the file failed.
func (s Status) IsFailed() bool { return len(s) >= 6 && s[:6] == "failed" }

// ProcessingResult is the per-file record handed back to the batch
// orchestrator for the run summary.
type ProcessingResult struct {
	Path    string
	ANI     IndexSeries
	SPI     IndexSeries
	HRV     *HRVSummary
	Status  Status
	Elapsed time.Duration
}
