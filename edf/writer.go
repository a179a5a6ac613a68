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
	"math"
)

// Writer writes EDF files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int // Number of data records written so far.
}

// Create creates a new EDF writer that writes to the given writer.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	hdr.DataRecords = -1 // Unknown number of data records (at this time).
	hdr.SignalCount = len(hdr.Signals)

	ew := &Writer{w: w, hdr: &hdr}

	// Write the initial header
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Close finalizes the EDF file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	// Finalize the header with the actual number of data records
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	return nil
}

// WriteRecord writes a single data record to the EDF file. The outer slice
// must hold one sample slice per signal, each of the signal's
// SamplesPerRecord length.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != ew.hdr.SignalCount {
		return fmt.Errorf("expected %d signals, got %d", ew.hdr.SignalCount, len(signals))
	}

	var totalSamples int
	for i, signal := range signals {
		if len(signal) != ew.hdr.Signals[i].SamplesPerRecord {
			return fmt.Errorf("signal %d: expected %d samples per record, got %d",
				i, ew.hdr.Signals[i].SamplesPerRecord, len(signal))
		}
		totalSamples += len(signal)
	}

	// As recommended by the EDF standard.
	if totalSamples*2 > 61440 {
		return fmt.Errorf("data record too large: %d bytes, max is 61440 bytes", totalSamples*2)
	}

	writer := bufio.NewWriter(ew.w)

	// Write each signal's data
	for i := 0; i < ew.hdr.SignalCount; i++ {
		signal := ew.hdr.Signals[i]
		for _, sample := range signals[i] {
			digitalValue := convertPhysicalToDigital(sample, signal.PhysicalMin, signal.PhysicalMax, signal.DigitalMin, signal.DigitalMax)
			if err := binary.Write(writer, binary.LittleEndian, digitalValue); err != nil {
				return err
			}
		}
	}

	// Ensure all data is flushed to the underlying writer
	if err := writer.Flush(); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// writeHeader writes the EDF header at the start of the file.
func (ew *Writer) writeHeader() error {
	// Rewind to the beginning of the file.
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	writer := bufio.NewWriter(ew.w)

	var werr error
	pad := func(width int, s string) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(writer, "%-*s", width, s)
	}
	padInt := func(width, v int) { pad(width, fmt.Sprintf("%d", v)) }

	pad(8, string(ew.hdr.Version))
	pad(80, ew.hdr.PatientID)
	pad(80, ew.hdr.RecordingID)
	pad(8, ew.hdr.StartTime.Format("02.01.06"))
	pad(8, ew.hdr.StartTime.Format("15.04.05"))

	ew.hdr.HeaderBytes = 256 + (ew.hdr.SignalCount * 256)
	padInt(8, ew.hdr.HeaderBytes)
	pad(44, "") // Reserved.
	padInt(8, ew.hdr.DataRecords)
	padInt(8, int(math.Ceil(ew.hdr.DataRecordDuration.Seconds())))
	padInt(4, ew.hdr.SignalCount)

	// The signal table is stored field by field across all signals.
	for _, signal := range ew.hdr.Signals {
		pad(16, signal.Label)
	}
	for _, signal := range ew.hdr.Signals {
		pad(80, signal.TransducerType)
	}
	for _, signal := range ew.hdr.Signals {
		pad(8, signal.PhysicalDimension)
	}
	for _, signal := range ew.hdr.Signals {
		pad(8, formatPhysicalValue(signal.PhysicalMin))
	}
	for _, signal := range ew.hdr.Signals {
		pad(8, formatPhysicalValue(signal.PhysicalMax))
	}
	for _, signal := range ew.hdr.Signals {
		padInt(8, signal.DigitalMin)
	}
	for _, signal := range ew.hdr.Signals {
		padInt(8, signal.DigitalMax)
	}
	for _, signal := range ew.hdr.Signals {
		pad(80, signal.Prefiltering)
	}
	for _, signal := range ew.hdr.Signals {
		padInt(8, signal.SamplesPerRecord)
	}
	for range ew.hdr.Signals {
		pad(32, "") // Reserved for future use.
	}

	if werr != nil {
		return werr
	}

	// Ensure all data is flushed to the underlying writer
	return writer.Flush()
}

// convertPhysicalToDigital converts a physical value to a digital value using the calibration factors.
func convertPhysicalToDigital(physical float64, pmin, pmax float64, dmin, dmax int) int16 {
	if pmax == pmin {
		return 0 // Avoid division by zero
	}
	if physical < pmin {
		physical = pmin
	}
	if physical > pmax {
		physical = pmax
	}
	digital := ((physical - pmin) * (float64(dmax - dmin)) / (pmax - pmin)) + float64(dmin)
	return int16(math.Round(digital))
}

func formatPhysicalValue(val float64) string {
	// Try with 2 decimal places
	s := fmt.Sprintf("%.2f", val)
	if len(s) > 8 {
		// Fall back to no decimal
		s = fmt.Sprintf("%.0f", val)
	}
	return s
}
