// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package job

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPSG/vitalindex/edf"
	"github.com/OpenPSG/vitalindex/internal/vital"
)

// ContainerSentinel is the in-container stand-in for the NaN sentinel:
// EDF samples are int16 and cannot carry NaN, so index tracks store -1 for
// windows without sufficient data.
const ContainerSentinel = -1.0

// recording is an opened input file with its fully parsed header.
type recording struct {
	reader *edf.Reader
	header edf.Header
	closer *os.File
}

func openRecording(path string) (*recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vital.ErrFileFormat, err)
	}
	er, err := edf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", vital.ErrFileFormat, err)
	}
	rec := &recording{reader: er, header: er.Header(), closer: f}
	return rec, nil
}

func (r *recording) Close() error {
	return r.closer.Close()
}

// track finds and fully reads the first signal whose label matches one of
// the candidate substrings. The signal-table entry is returned alongside
// the decoded samples so the output can carry the source label and
// dimension through unchanged.
func (r *recording) track(labels []string) (*vital.Signal, edf.Signal, error) {
	for _, label := range labels {
		idx, ok := r.reader.Lookup(label)
		if !ok {
			continue
		}
		meta := r.header.Signals[idx]
		samples, err := r.reader.ReadAll(idx)
		if err != nil {
			return nil, meta, fmt.Errorf("%w: reading %q: %v", vital.ErrFileFormat, meta.Label, err)
		}
		sig := &vital.Signal{
			StartTime:  r.header.StartTime,
			SampleRate: r.reader.SampleRate(idx),
			Samples:    samples,
		}
		if err := sig.Validate(); err != nil {
			return nil, meta, err
		}
		return sig, meta, nil
	}
	return nil, edf.Signal{}, fmt.Errorf("%w: no track matching %v", vital.ErrTrackNotFound, labels)
}

// outputSet is everything that goes into the augmented output recording.
type outputSet struct {
	header   edf.Header
	ecgMeta  edf.Signal
	ppgMeta  edf.Signal
	ecg      *vital.Signal
	ppg      *vital.Signal
	cleanECG *vital.Signal
	cleanPPG *vital.Signal
	ani      vital.IndexSeries
	spi      vital.IndexSeries
}

// writeRecording writes the output EDF atomically: the file is assembled
// under a temporary name in the destination directory and renamed into
// place only once fully written, so no half-written recording is ever
// visible.
func writeRecording(path string, out outputSet) error {
	recordDur, records := outputGeometry(out)
	if records == 0 {
		return fmt.Errorf("%w: recording shorter than one output record", vital.ErrInsufficientData)
	}

	type track struct {
		sig  edf.Signal
		data []float64 // uniform samples, sig.SamplesPerRecord per record
	}
	var tracks []track

	addSignal := func(label, dimension string, s *vital.Signal) {
		if s == nil {
			return
		}
		spr := int(s.SampleRate * recordDur.Seconds())
		if spr < 1 || float64(spr) != s.SampleRate*recordDur.Seconds() {
			return // Rate does not divide the record duration; skip.
		}
		pmin, pmax := physicalRange(s.Samples)
		tracks = append(tracks, track{
			sig: edf.Signal{
				Label:             label,
				PhysicalDimension: dimension,
				PhysicalMin:       pmin,
				PhysicalMax:       pmax,
				DigitalMin:        -32768,
				DigitalMax:        32767,
				SamplesPerRecord:  spr,
			},
			data: s.Samples,
		})
	}
	addIndex := func(label string, is vital.IndexSeries) {
		if len(is) == 0 {
			return
		}
		tracks = append(tracks, track{
			sig: edf.Signal{
				Label:            label,
				PhysicalMin:      ContainerSentinel,
				PhysicalMax:      100,
				DigitalMin:       -32768,
				DigitalMax:       32767,
				SamplesPerRecord: 1,
			},
			data: indexSamples(is, recordDur, records),
		})
	}

	addSignal(out.ecgMeta.Label, out.ecgMeta.PhysicalDimension, out.ecg)
	addSignal(out.ppgMeta.Label, out.ppgMeta.PhysicalDimension, out.ppg)
	addSignal(out.ecgMeta.Label+" clean", out.ecgMeta.PhysicalDimension, out.cleanECG)
	addSignal(out.ppgMeta.Label+" clean", out.ppgMeta.PhysicalDimension, out.cleanPPG)
	addIndex("ANI", out.ani)
	addIndex("SPI", out.spi)

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          out.header.PatientID,
		RecordingID:        out.header.RecordingID,
		StartTime:          out.header.StartTime,
		DataRecordDuration: recordDur,
	}
	for _, tr := range tracks {
		hdr.Signals = append(hdr.Signals, tr.sig)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name()) // No-op once renamed.
	}()

	ew, err := edf.Create(tmp, hdr)
	if err != nil {
		return err
	}

	record := make([][]float64, len(tracks))
	for rec := 0; rec < records; rec++ {
		for i, tr := range tracks {
			spr := tr.sig.SamplesPerRecord
			lo := rec * spr
			hi := lo + spr
			if hi > len(tr.data) {
				// Pad the trailing partial record with the sentinel/zero.
				padded := make([]float64, spr)
				copy(padded, tr.data[min(lo, len(tr.data)):])
				record[i] = padded
				continue
			}
			record[i] = tr.data[lo:hi]
		}
		if err := ew.WriteRecord(record); err != nil {
			return err
		}
	}
	if err := ew.Close(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("error syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error finalizing output: %w", err)
	}
	return nil
}

// outputGeometry picks the output record duration (the index step, so each
// index point is exactly one sample per record) and the whole-record count
// covered by the longest signal.
func outputGeometry(out outputSet) (time.Duration, int) {
	recordDur := 4 * time.Second
	if len(out.ani) > 1 {
		recordDur = time.Duration((out.ani[1].Time - out.ani[0].Time) * float64(time.Second))
	} else if len(out.spi) > 1 {
		recordDur = time.Duration((out.spi[1].Time - out.spi[0].Time) * float64(time.Second))
	}

	longest := 0.0
	for _, s := range []*vital.Signal{out.ecg, out.ppg, out.cleanECG, out.cleanPPG} {
		if s != nil && s.Duration() > longest {
			longest = s.Duration()
		}
	}
	return recordDur, int(longest / recordDur.Seconds())
}

// indexSamples lays the index points onto the per-record grid; records not
// covered by a point carry the container sentinel.
func indexSamples(is vital.IndexSeries, recordDur time.Duration, records int) []float64 {
	out := make([]float64, records)
	for i := range out {
		out[i] = ContainerSentinel
	}
	step := recordDur.Seconds()
	for _, p := range is {
		rec := int(p.Time/step+0.5) - 1 // point at the end of record rec
		if rec < 0 || rec >= records {
			continue
		}
		if math.IsNaN(p.Value) {
			out[rec] = ContainerSentinel
			continue
		}
		out[rec] = p.Value
	}
	return out
}

// physicalRange returns a calibration range with headroom around the data.
func physicalRange(x []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if math.IsInf(lo, 1) || lo == hi {
		return -1, 1
	}
	pad := (hi - lo) * 0.01
	return lo - pad, hi + pad
}
