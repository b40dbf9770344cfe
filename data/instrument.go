// Copyright 2025-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"strings"
	"time"
)

// Instrument represents a tradeable asset. Identity is the code; the name
// is descriptive metadata only.
type Instrument struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PricePoint is a single closing price observation
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Bar is one row of the input dataset. Additional OHLCV columns in the
// source are ignored by the core.
type Bar struct {
	Date  time.Time
	Code  string
	Name  string
	Close float64
}

const codeWidth = 6

// NormalizeCode converts an instrument code to its fixed-width form.
// Exchange CSV exports frequently drop leading zeroes (e.g. 1 -> "000001").
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return code
	}

	for _, r := range code {
		if r < '0' || r > '9' {
			// non-numeric codes pass through unchanged
			return strings.ToUpper(code)
		}
	}

	if len(code) < codeWidth {
		code = strings.Repeat("0", codeWidth-len(code)) + code
	}

	return code
}
