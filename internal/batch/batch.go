// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package batch schedules per-file pipeline runs across a bounded worker
// pool with per-file fault isolation: one corrupt recording never aborts
// the run.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OpenPSG/vitalindex/internal/vital"
)

// Runner processes a single recording. It must never return an error: all
// per-file failures are carried in the ProcessingResult status.
type Runner interface {
	Run(ctx context.Context, inPath, outPath string) vital.ProcessingResult
}

// Config holds the orchestrator options.
type Config struct {
	Workers     int           // worker pool size; <=0 means available parallelism
	FileTimeout time.Duration // per-file processing deadline; 0 disables
	Extension   string        // recording filename extension
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		Workers:     runtime.NumCPU(),
		FileTimeout: 5 * time.Minute,
		Extension:   ".edf",
	}
}

// Summary is the outcome of one batch run. Results are ordered by input
// file name regardless of completion order.
type Summary struct {
	RunID   string
	Results []vital.ProcessingResult
	OK      int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

// String renders the summary for the CLI.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d ok, %d skipped, %d failed in %s\n",
		s.RunID, s.OK, s.Skipped, s.Failed, s.Elapsed.Round(time.Millisecond))
	for _, r := range s.Results {
		if r.Status.IsOK() {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", filepath.Base(r.Path), r.Status)
	}
	return b.String()
}

// Orchestrator runs batches.
type Orchestrator struct {
	runner Runner
	cfg    Config
	log    *slog.Logger
}

// New returns an Orchestrator over the given per-file runner.
func New(runner Runner, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Extension == "" {
		cfg.Extension = ".edf"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{runner: runner, cfg: cfg, log: logger}
}

// Run discovers recordings in inDir and processes each into outDir under
// the same base name. Context cancellation stops the intake of new files;
// in-flight files finish. The returned error is non-nil only for run-level
// fatal conditions; per-file failures are reported in the Summary.
func (o *Orchestrator) Run(ctx context.Context, inDir, outDir string) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}

	files, err := o.discover(inDir)
	if err != nil {
		return summary, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return summary, fmt.Errorf("creating output directory: %w", err)
	}

	o.log.Info("batch started", "run_id", summary.RunID,
		"files", len(files), "workers", o.cfg.Workers)

	// Results are written into their input-order slot; the slice is the
	// single aggregation point and each worker owns disjoint slots.
	results := make([]vital.ProcessingResult, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.runOne(ctx, files[i], outDir)
			}
		}()
	}

intake:
	for i := range files {
		select {
		case <-ctx.Done():
			// Stop intake; files never started are reported skipped.
			for j := i; j < len(files); j++ {
				results[j] = vital.ProcessingResult{Path: files[j], Status: vital.Skipped("canceled")}
			}
			break intake
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	summary.Results = results
	for _, r := range results {
		switch {
		case r.Status.IsOK():
			summary.OK++
		case r.Status.IsFailed():
			summary.Failed++
		default:
			summary.Skipped++
		}
	}
	summary.Elapsed = time.Since(start)

	o.log.Info("batch finished", "run_id", summary.RunID,
		"ok", summary.OK, "skipped", summary.Skipped, "failed", summary.Failed,
		"elapsed", summary.Elapsed)
	return summary, nil
}

func (o *Orchestrator) runOne(ctx context.Context, inPath, outDir string) vital.ProcessingResult {
	if err := ctx.Err(); err != nil {
		return vital.ProcessingResult{Path: inPath, Status: vital.Skipped("canceled")}
	}

	fileCtx := ctx
	if o.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, o.cfg.FileTimeout)
		defer cancel()
	}

	outPath := filepath.Join(outDir, filepath.Base(inPath))
	o.log.Debug("processing", "file", inPath)
	result := o.runner.Run(fileCtx, inPath, outPath)
	if !result.Status.IsOK() {
		o.log.Warn("file not processed", "file", inPath, "status", string(result.Status))
	}
	return result
}

// discover lists the recordings in input directory order (sorted by name).
func (o *Orchestrator) discover(inDir string) ([]string, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), o.cfg.Extension) {
			continue
		}
		files = append(files, filepath.Join(inDir, e.Name()))
	}
	return files, nil
}
