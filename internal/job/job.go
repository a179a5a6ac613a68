// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package job binds one recording to the signal-to-index pipeline and is
// the fault-isolation boundary for batch processing: nothing that goes
// wrong inside a single file escapes as anything but a status.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/OpenPSG/vitalindex/internal/detect"
	"github.com/OpenPSG/vitalindex/internal/hrv"
	"github.com/OpenPSG/vitalindex/internal/index"
	"github.com/OpenPSG/vitalindex/internal/interval"
	"github.com/OpenPSG/vitalindex/internal/plot"
	"github.com/OpenPSG/vitalindex/internal/sigproc"
	"github.com/OpenPSG/vitalindex/internal/vital"
)

// Config holds the per-file pipeline options.
type Config struct {
	ECGLabels []string // label substrings accepted as the ECG track
	PPGLabels []string // label substrings accepted as the PPG track
	Plot      bool     // render a PNG of the index series next to the output
}

// DefaultConfig returns the track labels emitted by common surgical
// monitors.
func DefaultConfig() Config {
	return Config{
		ECGLabels: []string{"ECG"},
		PPGLabels: []string{"PLETH", "PPG"},
	}
}

// Components aggregates the pipeline stages a Job runs.
type Components struct {
	Preprocessor  *sigproc.Preprocessor
	BeatDetector  *detect.BeatDetector
	PulseDetector *detect.PulseDetector
	Intervals     *interval.Builder
	ANI           *index.ANICalculator
	SPI           *index.SPICalculator
	HRV           *hrv.Analyzer
}

// Job runs the full pipeline for single recordings.
type Job struct {
	comp Components
	cfg  Config
	log  *slog.Logger
}

// New returns a Job over the given components.
func New(comp Components, cfg Config, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{comp: comp, cfg: cfg, log: logger}
}

// Run processes one recording and writes the augmented output recording.
// All pipeline failures, including panics, are absorbed into the returned
// ProcessingResult; a context deadline produces failed:timeout and no
// output file.
func (j *Job) Run(ctx context.Context, inPath, outPath string) (result vital.ProcessingResult) {
	start := time.Now()
	result = vital.ProcessingResult{Path: inPath, Status: vital.StatusOK}
	defer func() {
		if r := recover(); r != nil {
			result.Status = vital.Failed(fmt.Sprintf("panic: %v", r))
		}
		result.Elapsed = time.Since(start)
	}()

	rec, err := openRecording(inPath)
	if err != nil {
		result.Status = vital.Failed(err.Error())
		return result
	}
	defer rec.Close()

	ecg, ecgMeta, ecgErr := rec.track(j.cfg.ECGLabels)
	ppg, ppgMeta, ppgErr := rec.track(j.cfg.PPGLabels)
	for _, err := range []error{ecgErr, ppgErr} {
		if err != nil && errors.Is(err, vital.ErrFileFormat) {
			// A matched track that cannot be decoded is a corrupt file,
			// not a missing track.
			result.Status = vital.Failed(err.Error())
			return result
		}
	}
	if ecgErr != nil && ppgErr != nil {
		result.Status = vital.Skipped("no ECG or PPG track")
		return result
	}

	var cleanECG, cleanPPG *vital.Signal

	if ecgErr != nil {
		j.log.Info("ANI skipped", "file", inPath, "reason", ecgErr)
	} else if cleaned, err := j.comp.Preprocessor.Clean(*ecg, vital.KindECG); err != nil {
		// A degenerate signal is treated like a missing track: ANI is
		// absent, the file still processes for PPG.
		j.log.Info("ANI skipped", "file", inPath, "reason", err)
	} else {
		cleanECG = &cleaned
		beats := j.comp.BeatDetector.DetectBeats(cleaned)
		rr := j.comp.Intervals.Build(beats)
		result.ANI = j.comp.ANI.Compute(rr, cleaned.Duration())
		result.HRV = j.comp.HRV.Analyze(rr)
		j.log.Debug("ECG processed", "file", inPath,
			"beats", len(beats), "rejected_intervals", rr.Rejected,
			"ani_windows", len(result.ANI), "ani_valid", result.ANI.ValidCount())
		if result.HRV != nil {
			j.log.Info("HRV summary", "file", inPath,
				"mean_hr", result.HRV.MeanHR, "sdnn_ms", result.HRV.SDNN,
				"rmssd_ms", result.HRV.RMSSD, "pnn50", result.HRV.PNN50,
				"lf_hf", result.HRV.LFHF)
		}
	}

	if err := ctx.Err(); err != nil {
		result.Status = timeoutStatus(err)
		return result
	}

	if ppgErr != nil {
		j.log.Info("SPI skipped", "file", inPath, "reason", ppgErr)
	} else if cleaned, err := j.comp.Preprocessor.Clean(*ppg, vital.KindPPG); err != nil {
		j.log.Info("SPI skipped", "file", inPath, "reason", err)
	} else {
		cleanPPG = &cleaned
		pulses := j.comp.PulseDetector.DetectPulses(cleaned)
		pp := j.comp.Intervals.Build(pulses)
		result.SPI = j.comp.SPI.Compute(pp, pulses, cleaned.Duration())
		j.log.Debug("PPG processed", "file", inPath,
			"pulses", len(pulses), "rejected_intervals", pp.Rejected,
			"spi_windows", len(result.SPI), "spi_valid", result.SPI.ValidCount())
	}

	if cleanECG == nil && cleanPPG == nil {
		result.Status = vital.Skipped("no usable ECG or PPG signal")
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Status = timeoutStatus(err)
		return result
	}

	out := outputSet{
		header:   rec.header,
		ecgMeta:  ecgMeta,
		ppgMeta:  ppgMeta,
		ecg:      ecg,
		ppg:      ppg,
		cleanECG: cleanECG,
		cleanPPG: cleanPPG,
		ani:      result.ANI,
		spi:      result.SPI,
	}
	if err := writeRecording(outPath, out); err != nil {
		result.Status = vital.Failed(fmt.Sprintf("write output: %v", err))
		return result
	}

	if j.cfg.Plot {
		pngPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".png"
		if err := plot.RenderIndexPNG(pngPath, result.ANI, result.SPI); err != nil {
			// A missing review plot never fails the file.
			j.log.Warn("plot failed", "file", inPath, "error", err)
		}
	}

	return result
}

func timeoutStatus(err error) vital.Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return vital.Failed("timeout")
	}
	return vital.Skipped("canceled")
}
