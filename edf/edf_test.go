// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf_test

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OpenPSG/vitalindex/edf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "test.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "Patient X",
		RecordingID:        "Recording 1",
		StartTime:          time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		DataRecordDuration: time.Second,
		Signals: []edf.Signal{
			{
				Label:             "ECG II",
				TransducerType:    "AgAgCl electrode",
				PhysicalDimension: "mV",
				PhysicalMin:       -1,
				PhysicalMax:       3,
				DigitalMin:        -32768,
				DigitalMax:        32767,
				SamplesPerRecord:  100,
			},
			{
				Label:             "PLETH",
				TransducerType:    "IR plethysmograph",
				PhysicalDimension: "",
				PhysicalMin:       0,
				PhysicalMax:       100,
				DigitalMin:        -32768,
				DigitalMax:        32767,
				SamplesPerRecord:  100,
			},
		},
	}

	ew, err := edf.Create(f, hdr)
	require.NoError(t, err)

	// Two seconds of a ramp on each signal.
	for rec := 0; rec < 2; rec++ {
		ecg := make([]float64, 100)
		ppg := make([]float64, 100)
		for i := range ecg {
			ecg[i] = -1 + 4*float64(rec*100+i)/200
			ppg[i] = float64(rec*100+i) / 2
		}
		require.NoError(t, ew.WriteRecord([][]float64{ecg, ppg}))
	}
	require.NoError(t, ew.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)

	got := er.Header()
	assert.Equal(t, "Patient X", got.PatientID)
	assert.Equal(t, "Recording 1", got.RecordingID)
	assert.Equal(t, 2, got.DataRecords)
	assert.Equal(t, 2, got.SignalCount)
	assert.Equal(t, []string{"ECG II", "PLETH"}, er.Labels())
	assert.Equal(t, 2*time.Second, er.Duration())
	assert.InDelta(t, 100.0, er.SampleRate(0), 1e-9)

	idx, ok := er.Lookup("pleth")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = er.Lookup("EEG")
	assert.False(t, ok)

	ecg, err := er.ReadAll(0)
	require.NoError(t, err)
	require.Len(t, ecg, 200)
	for i, v := range ecg {
		want := -1 + 4*float64(i)/200
		assert.InDeltaf(t, want, v, 1e-3, "sample %d", i)
	}

	ppg, err := er.ReadAll(1)
	require.NoError(t, err)
	require.Len(t, ppg, 200)
	assert.InDelta(t, 99.5, ppg[199], 1e-2)
}

func TestOpenTruncatedHeader(t *testing.T) {
	_, err := edf.Open(strings.NewReader("0       garbage"))
	require.Error(t, err)
}

func TestWriteRecordLengthMismatch(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "bad.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		StartTime:          time.Now(),
		DataRecordDuration: time.Second,
		Signals: []edf.Signal{
			{Label: "ECG II", PhysicalMin: -1, PhysicalMax: 3, DigitalMin: -32768, DigitalMax: 32767, SamplesPerRecord: 100},
		},
	})
	require.NoError(t, err)

	err = ew.WriteRecord([][]float64{make([]float64, 50)})
	require.Error(t, err)

	err = ew.WriteRecord([][]float64{make([]float64, 100), make([]float64, 100)})
	require.Error(t, err)
}

func TestDigitalClamping(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "clamp.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		StartTime:          time.Now(),
		DataRecordDuration: time.Second,
		Signals: []edf.Signal{
			{Label: "ANI", PhysicalMin: -1, PhysicalMax: 100, DigitalMin: -32768, DigitalMax: 32767, SamplesPerRecord: 4},
		},
	})
	require.NoError(t, err)

	// Out-of-range physical values must clamp, not wrap.
	require.NoError(t, ew.WriteRecord([][]float64{{-50, 0, 100, 150}}))
	require.NoError(t, ew.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)

	vals, err := er.ReadAll(0)
	require.NoError(t, err)
	require.Len(t, vals, 4)
	assert.InDelta(t, -1, vals[0], 1e-2)
	assert.InDelta(t, 0, vals[1], 1e-2)
	assert.InDelta(t, 100, vals[2], 1e-2)
	assert.InDelta(t, 100, vals[3], 1e-2)
	assert.False(t, math.IsNaN(vals[0]))
}
