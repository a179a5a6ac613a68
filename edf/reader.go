// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Reader reads EDF/EDF+ files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// Open opens an EDF/EDF+ file for reading.
func Open(r io.ReadSeeker) (*Reader, error) {
	br := bufio.NewReader(r)

	b := make([]byte, 256)
	if _, err := io.ReadFull(br, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	// Parse fields based on EDF/EDF+ specifications
	hdr := &Header{}
	hdr.Version = Version(strings.TrimSpace(string(b[0:8])))
	hdr.PatientID = strings.TrimSpace(string(b[8:88]))
	hdr.RecordingID = strings.TrimSpace(string(b[88:168]))

	startDate, err := time.Parse("02.01.06", strings.TrimSpace(string(b[168:176])))
	if err != nil {
		return nil, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", strings.TrimSpace(string(b[176:184])))
	if err != nil {
		return nil, fmt.Errorf("error parsing start time: %w", err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	if hdr.HeaderBytes, err = strconv.Atoi(strings.TrimSpace(string(b[184:192]))); err != nil {
		return nil, fmt.Errorf("error parsing header bytes: %w", err)
	}
	if hdr.DataRecords, err = strconv.Atoi(strings.TrimSpace(string(b[236:244]))); err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}
	if hdr.DataRecordDuration, err = time.ParseDuration(strings.TrimSpace(string(b[244:252])) + "s"); err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}
	if hdr.SignalCount, err = strconv.Atoi(strings.TrimSpace(string(b[252:256]))); err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}
	if hdr.SignalCount < 0 {
		return nil, fmt.Errorf("invalid signal count: %d", hdr.SignalCount)
	}

	// The signal table is stored field by field: all labels, then all
	// transducer types, and so on.
	hdr.Signals = make([]Signal, hdr.SignalCount)

	readField := func(width int, assign func(i int, field string) error) error {
		b := make([]byte, width)
		for i := 0; i < hdr.SignalCount; i++ {
			if _, err := io.ReadFull(br, b); err != nil {
				return fmt.Errorf("error reading signal headers: %w", err)
			}
			if err := assign(i, strings.TrimSpace(string(b))); err != nil {
				return err
			}
		}
		return nil
	}

	fields := []struct {
		width  int
		assign func(i int, field string) error
	}{
		{16, func(i int, f string) error { hdr.Signals[i].Label = f; return nil }},
		{80, func(i int, f string) error { hdr.Signals[i].TransducerType = f; return nil }},
		{8, func(i int, f string) error { hdr.Signals[i].PhysicalDimension = f; return nil }},
		{8, func(i int, f string) error { hdr.Signals[i].PhysicalMin = parseFloat(f); return nil }},
		{8, func(i int, f string) error { hdr.Signals[i].PhysicalMax = parseFloat(f); return nil }},
		{8, func(i int, f string) error { hdr.Signals[i].DigitalMin = parseInt(f); return nil }},
		{8, func(i int, f string) error { hdr.Signals[i].DigitalMax = parseInt(f); return nil }},
		{80, func(i int, f string) error { hdr.Signals[i].Prefiltering = f; return nil }},
		{8, func(i int, f string) error { hdr.Signals[i].SamplesPerRecord = parseInt(f); return nil }},
		{32, func(i int, f string) error { hdr.Signals[i].Reserved = f; return nil }},
	}
	for _, fld := range fields {
		if err := readField(fld.width, fld.assign); err != nil {
			return nil, err
		}
	}

	return &Reader{r: r, hdr: hdr}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() Header {
	return *er.hdr
}

// Labels returns the labels of all signals in file order.
func (er *Reader) Labels() []string {
	labels := make([]string, len(er.hdr.Signals))
	for i, sig := range er.hdr.Signals {
		labels[i] = sig.Label
	}
	return labels
}

// Lookup returns the index of the first signal whose label contains the
// given substring (case-insensitive).
func (er *Reader) Lookup(label string) (int, bool) {
	needle := strings.ToLower(label)
	for i, sig := range er.hdr.Signals {
		if strings.Contains(strings.ToLower(sig.Label), needle) {
			return i, true
		}
	}
	return 0, false
}

// SampleRate returns the sampling rate in Hz of the signal at the given
// index, or 0 if the index is out of range.
func (er *Reader) SampleRate(signalIndex int) float64 {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return 0
	}
	return er.hdr.Signals[signalIndex].SampleRate(er.hdr.DataRecordDuration)
}

// Duration returns the total recording duration.
func (er *Reader) Duration() time.Duration {
	if er.hdr.DataRecords < 0 {
		return 0
	}
	return time.Duration(er.hdr.DataRecords) * er.hdr.DataRecordDuration
}

// ReadAll decodes the complete physical-valued signal at the given index.
// Records are read sequentially, one data record at a time.
func (er *Reader) ReadAll(signalIndex int) ([]float64, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, fmt.Errorf("signal index %d out of range", signalIndex)
	}

	signal := er.hdr.Signals[signalIndex]

	// Byte offset of the signal within a data record, and the record size.
	recordSize := 0
	signalOffset := 0
	for i, sig := range er.hdr.Signals {
		if i < signalIndex {
			signalOffset += sig.SamplesPerRecord * 2
		}
		recordSize += sig.SamplesPerRecord * 2
	}

	if _, err := er.r.Seek(int64(er.hdr.HeaderBytes), io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to data records: %w", err)
	}
	br := bufio.NewReader(er.r)

	records := er.hdr.DataRecords
	data := make([]float64, 0, max(records, 0)*signal.SamplesPerRecord)
	record := make([]byte, recordSize)

	for rec := 0; records < 0 || rec < records; rec++ {
		if _, err := io.ReadFull(br, record); err != nil {
			if records < 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
				break // Unknown record count: read until EOF.
			}
			return nil, fmt.Errorf("error reading data record %d: %w", rec, err)
		}

		chunk := record[signalOffset : signalOffset+signal.SamplesPerRecord*2]
		for s := 0; s < signal.SamplesPerRecord; s++ {
			digital := int16(binary.LittleEndian.Uint16(chunk[s*2:]))
			data = append(data, convertDigitalToPhysical(digital,
				signal.DigitalMin, signal.DigitalMax, signal.PhysicalMin, signal.PhysicalMax))
		}
	}

	return data, nil
}

// convertDigitalToPhysical converts a digital value from the data record to a physical value using the calibration factors.
func convertDigitalToPhysical(digital int16, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return 0 // Avoid division by zero
	}
	return pmin + (float64(digital)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}
