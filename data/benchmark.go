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
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Series is a single instrument's closing-price history, used for benchmark
// indices and ETFs. It honors the same as-of contract as Store.PriceAsOf.
type Series struct {
	Name   string
	points []PricePoint
}

// NewSeries builds a Series from raw points; points are sorted by date and
// duplicate dates keep the last occurrence.
func NewSeries(name string, points []PricePoint) (*Series, error) {
	if len(points) == 0 {
		return nil, ErrEmptySeries
	}

	normalized := make([]PricePoint, 0, len(points))
	for _, pt := range points {
		if pt.Close <= 0 {
			log.Warn().Str("Series", name).Time("Date", pt.Date).Float64("Close", pt.Close).Msg("rejecting invalid benchmark point")
			continue
		}
		pt.Date = NormalizeDate(pt.Date)
		normalized = append(normalized, pt)
	}
	if len(normalized) == 0 {
		return nil, ErrEmptySeries
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Date.Before(normalized[j].Date)
	})

	deduped := normalized[:0]
	for _, pt := range normalized {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(pt.Date) {
			deduped[n-1] = pt
			continue
		}
		deduped = append(deduped, pt)
	}

	return &Series{Name: name, points: deduped}, nil
}

// AsOf returns the close of the point with the greatest date <= date
func (series *Series) AsOf(date time.Time) (float64, error) {
	date = NormalizeDate(date)
	idx := sort.Search(len(series.points), func(i int) bool {
		return series.points[i].Date.After(date)
	})
	if idx == 0 {
		return 0, ErrNoPriceData
	}
	return series.points[idx-1].Close, nil
}

// Begin returns the date of the first point in the series
func (series *Series) Begin() time.Time {
	return series.points[0].Date
}

// End returns the date of the last point in the series
func (series *Series) End() time.Time {
	return series.points[len(series.points)-1].Date
}

// LoadSeriesFromCSV reads a date/close CSV into a Series
func LoadSeriesFromCSV(fn string, name string) (*Series, error) {
	subLog := log.With().Str("FileName", fn).Str("Series", name).Logger()

	fh, err := os.Open(fn)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not open benchmark file")
		return nil, ErrDataLoad
	}
	defer fh.Close()

	return parseSeries(fh, name)
}

// FetchSeries downloads a date/close CSV from the given URL and parses it
// into a Series.
func FetchSeries(ctx context.Context, url string, name string) (*Series, error) {
	subLog := log.With().Str("Url", url).Str("Series", name).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not build benchmark request")
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not download benchmark series")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		subLog.Error().Int("StatusCode", resp.StatusCode).Msg("benchmark download returned an error status")
		return nil, fmt.Errorf("HTTP request returned invalid status code: %d", resp.StatusCode)
	}

	return parseSeries(resp.Body, name)
}

func parseSeries(r io.Reader, name string) (*Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, ErrDataLoad
	}

	dateIdx, closeIdx := -1, -1
	for idx, colName := range header {
		switch columnAliases[strings.TrimSpace(strings.ToLower(colName))] {
		case "date":
			dateIdx = idx
		case "close":
			closeIdx = idx
		}
	}
	if dateIdx == -1 || closeIdx == -1 {
		return nil, ErrMissingColumn
	}

	minFields := dateIdx + 1
	if closeIdx >= dateIdx {
		minFields = closeIdx + 1
	}

	points := make([]PricePoint, 0, 256)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed benchmark record")
			continue
		}
		if len(record) < minFields {
			log.Warn().Int("NumFields", len(record)).Msg("skipping short benchmark record")
			continue
		}

		date, err := parseCSVDate(record[dateIdx])
		if err != nil {
			log.Warn().Err(err).Str("DateStr", record[dateIdx]).Msg("skipping benchmark record with unparseable date")
			continue
		}

		closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[closeIdx]), 64)
		if err != nil {
			log.Warn().Err(err).Msg("skipping benchmark record with unparseable close")
			continue
		}

		points = append(points, PricePoint{Date: date, Close: closePrice})
	}

	return NewSeries(name, points)
}
