// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2026 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package vital

import "errors"

var (
	// ErrFileFormat indicates an unreadable or corrupt recording.
	ErrFileFormat = errors.New("file format error")

	// ErrTrackNotFound indicates a required track is missing from a recording.
	ErrTrackNotFound = errors.New("track not found")

	// ErrInvalidSignal indicates a signal too short or too degenerate to filter.
	ErrInvalidSignal = errors.New("invalid signal")

	// ErrInsufficientData indicates a recording without enough valid data
	// to produce any output.
	ErrInsufficientData = errors.New("insufficient data")
)
