// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// vitalindex derives ANI and SPI index tracks from the ECG and PPG
// waveforms of a directory of EDF recordings.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenPSG/vitalindex/internal/batch"
	"github.com/OpenPSG/vitalindex/internal/config"
	"github.com/OpenPSG/vitalindex/internal/detect"
	"github.com/OpenPSG/vitalindex/internal/hrv"
	"github.com/OpenPSG/vitalindex/internal/index"
	"github.com/OpenPSG/vitalindex/internal/interval"
	"github.com/OpenPSG/vitalindex/internal/job"
	"github.com/OpenPSG/vitalindex/internal/sigproc"
)

func main() {
	var (
		inDir   string
		outDir  string
		workers int
		timeout time.Duration
		plotPNG bool
		verbose bool
	)

	flag.StringVar(&inDir, "in", "", "Input directory of EDF recordings")
	flag.StringVar(&outDir, "out", "", "Output directory for augmented recordings")
	flag.IntVar(&workers, "workers", 0, "Worker count (default: available parallelism)")
	flag.DurationVar(&timeout, "timeout", 0, "Per-file processing timeout (default 5m)")
	flag.BoolVar(&plotPNG, "plot", false, "Render a PNG of the index series per file")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if inDir == "" || outDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(inDir, outDir, workers, timeout, plotPNG, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(inDir, outDir string, workers int, timeout time.Duration, plotPNG bool, logger *slog.Logger) error {
	cfg := config.Default()
	if workers > 0 {
		cfg.Batch.Workers = workers
	}
	if timeout > 0 {
		cfg.Batch.FileTimeout = timeout
	}
	cfg.Job.Plot = plotPNG
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// SIGINT stops the intake of new files; in-flight files finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j := job.New(job.Components{
		Preprocessor:  sigproc.NewPreprocessor(cfg.Preprocessor),
		BeatDetector:  detect.NewBeatDetector(cfg.Beat),
		PulseDetector: detect.NewPulseDetector(cfg.Pulse),
		Intervals:     interval.NewBuilder(cfg.Interval),
		ANI:           index.NewANICalculator(cfg.ANI),
		SPI:           index.NewSPICalculator(cfg.SPI),
		HRV:           hrv.NewAnalyzer(cfg.HRV),
	}, cfg.Job, logger)

	summary, err := batch.New(j, cfg.Batch, logger).Run(ctx, inDir, outDir)
	if err != nil {
		return err
	}

	// Per-file failures are reported in the summary; they do not fail the
	// run.
	fmt.Print(summary.String())
	return nil
}
