// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config aggregates the immutable per-component configuration.
// Components receive their own config structs at construction; nothing in
// the pipeline reads ambient state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/OpenPSG/vitalindex/internal/batch"
	"github.com/OpenPSG/vitalindex/internal/detect"
	"github.com/OpenPSG/vitalindex/internal/hrv"
	"github.com/OpenPSG/vitalindex/internal/index"
	"github.com/OpenPSG/vitalindex/internal/interval"
	"github.com/OpenPSG/vitalindex/internal/job"
	"github.com/OpenPSG/vitalindex/internal/sigproc"
)

// Config holds the configuration for every pipeline component.
type Config struct {
	Preprocessor sigproc.Config
	Beat         detect.BeatConfig
	Pulse        detect.PulseConfig
	Interval     interval.Config
	ANI          index.ANIConfig
	SPI          index.SPIConfig
	HRV          hrv.Config
	Job          job.Config
	Batch        batch.Config
}

// Default returns the defaults of every component, with a handful of
// operational knobs overridable through VITALINDEX_* environment
// variables.
func Default() Config {
	cfg := Config{
		Preprocessor: sigproc.DefaultConfig(),
		Beat:         detect.DefaultBeatConfig(),
		Pulse:        detect.DefaultPulseConfig(),
		Interval:     interval.DefaultConfig(),
		ANI:          index.DefaultANIConfig(),
		SPI:          index.DefaultSPIConfig(),
		HRV:          hrv.DefaultConfig(),
		Job:          job.DefaultConfig(),
		Batch:        batch.DefaultConfig(),
	}

	cfg.Batch.Workers = getEnvInt("VITALINDEX_WORKERS", cfg.Batch.Workers)
	cfg.Batch.FileTimeout = getEnvDuration("VITALINDEX_FILE_TIMEOUT", cfg.Batch.FileTimeout)
	cfg.ANI.WindowSeconds = getEnvFloat("VITALINDEX_WINDOW_SECONDS", cfg.ANI.WindowSeconds)
	cfg.ANI.StepSeconds = getEnvFloat("VITALINDEX_STEP_SECONDS", cfg.ANI.StepSeconds)
	cfg.SPI.WindowSeconds = cfg.ANI.WindowSeconds
	cfg.SPI.StepSeconds = cfg.ANI.StepSeconds

	return cfg
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.Batch.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Batch.Workers)
	}
	if c.ANI.WindowSeconds <= 0 || c.ANI.StepSeconds <= 0 {
		return fmt.Errorf("ANI window/step must be positive")
	}
	if c.SPI.WindowSeconds <= 0 || c.SPI.StepSeconds <= 0 {
		return fmt.Errorf("SPI window/step must be positive")
	}
	if c.Interval.Min <= 0 || c.Interval.Max <= c.Interval.Min {
		return fmt.Errorf("interval bounds must satisfy 0 < min < max")
	}
	if c.Preprocessor.ECGLowCut >= c.Preprocessor.ECGHighCut {
		return fmt.Errorf("ECG band cutoffs out of order")
	}
	if c.Preprocessor.PPGLowCut >= c.Preprocessor.PPGHighCut {
		return fmt.Errorf("PPG band cutoffs out of order")
	}
	if w := c.SPI.PeriodWeight + c.SPI.AmplitudeWeight; w < 0.999 || w > 1.001 {
		return fmt.Errorf("SPI weights must sum to 1, got %v", w)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
