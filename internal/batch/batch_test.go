// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OpenPSG/vitalindex/internal/batch"
	"github.com/OpenPSG/vitalindex/internal/vital"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runnerFunc adapts a function to the batch.Runner interface.
type runnerFunc func(ctx context.Context, inPath, outPath string) vital.ProcessingResult

func (f runnerFunc) Run(ctx context.Context, inPath, outPath string) vital.ProcessingResult {
	return f(ctx, inPath, outPath)
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func TestRunOrdersResultsByInputName(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	touch(t, inDir, "c.edf", "a.edf", "b.EDF", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(inDir, "sub.edf"), 0o755))

	var mu sync.Mutex
	outPaths := map[string]string{}
	runner := runnerFunc(func(_ context.Context, inPath, outPath string) vital.ProcessingResult {
		mu.Lock()
		outPaths[filepath.Base(inPath)] = outPath
		mu.Unlock()
		return vital.ProcessingResult{Path: inPath, Status: vital.StatusOK}
	})

	o := batch.New(runner, batch.Config{Workers: 4}, nil)
	summary, err := o.Run(context.Background(), inDir, outDir)
	require.NoError(t, err)

	// Results follow input name order regardless of completion order, and
	// only recordings are picked up.
	require.Len(t, summary.Results, 3)
	assert.Equal(t, filepath.Join(inDir, "a.edf"), summary.Results[0].Path)
	assert.Equal(t, filepath.Join(inDir, "b.EDF"), summary.Results[1].Path)
	assert.Equal(t, filepath.Join(inDir, "c.edf"), summary.Results[2].Path)

	assert.Equal(t, 3, summary.OK)
	assert.Zero(t, summary.Skipped)
	assert.Zero(t, summary.Failed)
	assert.NotEmpty(t, summary.RunID)

	// Outputs land in outDir under the same base name.
	assert.Equal(t, filepath.Join(outDir, "a.edf"), outPaths["a.edf"])
	assert.DirExists(t, outDir)
}

func TestRunIsolatesFileFailures(t *testing.T) {
	inDir := t.TempDir()
	touch(t, inDir, "a.edf", "bad.edf", "c.edf")

	runner := runnerFunc(func(_ context.Context, inPath, _ string) vital.ProcessingResult {
		if strings.HasPrefix(filepath.Base(inPath), "bad") {
			return vital.ProcessingResult{Path: inPath, Status: vital.Failed("unreadable header")}
		}
		return vital.ProcessingResult{Path: inPath, Status: vital.StatusOK}
	})

	o := batch.New(runner, batch.Config{Workers: 2}, nil)
	summary, err := o.Run(context.Background(), inDir, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.OK)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.Results[1].Status.IsFailed())
	assert.Contains(t, summary.String(), "bad.edf")
}

func TestRunCancellationStopsIntake(t *testing.T) {
	inDir := t.TempDir()
	var names []string
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		names = append(names, n+".edf")
	}
	touch(t, inDir, names...)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	runner := runnerFunc(func(_ context.Context, inPath, _ string) vital.ProcessingResult {
		once.Do(func() {
			close(started)
			<-release
		})
		return vital.ProcessingResult{Path: inPath, Status: vital.StatusOK}
	})

	o := batch.New(runner, batch.Config{Workers: 1}, nil)

	type runOutcome struct {
		summary batch.Summary
		err     error
	}
	outDir := t.TempDir()
	done := make(chan runOutcome, 1)
	go func() {
		summary, err := o.Run(ctx, inDir, outDir)
		done <- runOutcome{summary, err}
	}()

	<-started
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)
	outcome := <-done
	require.NoError(t, outcome.err)
	summary := outcome.summary

	// The in-flight file finishes; everything behind it is skipped.
	require.Len(t, summary.Results, len(names))
	assert.True(t, summary.Results[0].Status.IsOK())
	for _, r := range summary.Results[1:] {
		assert.Equal(t, vital.Skipped("canceled"), r.Status)
	}
	assert.Equal(t, 1, summary.OK)
	assert.Equal(t, len(names)-1, summary.Skipped)
}

func TestRunAppliesFileTimeout(t *testing.T) {
	inDir := t.TempDir()
	touch(t, inDir, "slow.edf")

	runner := runnerFunc(func(ctx context.Context, inPath, _ string) vital.ProcessingResult {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return vital.ProcessingResult{Path: inPath, Status: vital.Failed("timeout")}
		}
		return vital.ProcessingResult{Path: inPath, Status: vital.Skipped("canceled")}
	})

	o := batch.New(runner, batch.Config{Workers: 1, FileTimeout: 20 * time.Millisecond}, nil)
	summary, err := o.Run(context.Background(), inDir, t.TempDir())
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, vital.Failed("timeout"), summary.Results[0].Status)
	assert.Equal(t, 1, summary.Failed)
}

func TestRunMissingInputDir(t *testing.T) {
	o := batch.New(runnerFunc(func(_ context.Context, inPath, _ string) vital.ProcessingResult {
		return vital.ProcessingResult{Path: inPath, Status: vital.StatusOK}
	}), batch.DefaultConfig(), nil)

	_, err := o.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.Error(t, err)
}

func TestRunEmptyInputDir(t *testing.T) {
	o := batch.New(runnerFunc(func(_ context.Context, inPath, _ string) vital.ProcessingResult {
		return vital.ProcessingResult{Path: inPath, Status: vital.StatusOK}
	}), batch.DefaultConfig(), nil)

	summary, err := o.Run(context.Background(), t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, summary.Results)
	assert.Zero(t, summary.OK+summary.Skipped+summary.Failed)
}

func TestSummaryString(t *testing.T) {
	s := batch.Summary{
		RunID: "run-1",
		Results: []vital.ProcessingResult{
			{Path: "/in/a.edf", Status: vital.StatusOK},
			{Path: "/in/b.edf", Status: vital.Failed("timeout")},
		},
		OK:      1,
		Failed:  1,
		Elapsed: 1500 * time.Millisecond,
	}
	out := s.String()
	assert.Contains(t, out, "1 ok")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "b.edf: failed:timeout")
	assert.NotContains(t, out, "a.edf")
}
