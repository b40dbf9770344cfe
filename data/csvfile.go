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
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hitsz-ids/ht-quant/common"

	"github.com/rs/zerolog/log"
)

// columnAliases maps the header names found in the wild to canonical column
// roles. Exchange exports use the Chinese headers; re-exports from other
// tools use the English ones.
var columnAliases = map[string]string{
	"date":   "date",
	"日期":     "date",
	"code":   "code",
	"symbol": "code",
	"股票代码":   "code",
	"name":   "name",
	"股票名称":   "name",
	"close":  "close",
	"收盘":     "close",
}

var csvDateFormats = []string{"2006-01-02", "2006/01/02", "20060102"}

// LoadStoreFromCSV reads a daily bar dataset from the named file and builds
// a Store from it. Columns beyond date/code/name/close are ignored.
func LoadStoreFromCSV(fn string) (*Store, error) {
	subLog := log.With().Str("FileName", fn).Logger()

	fh, err := os.Open(fn)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not open dataset")
		return nil, ErrDataLoad
	}
	defer fh.Close()

	bars, err := parseBars(fh)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not parse dataset")
		return nil, err
	}

	return NewStore(bars)
}

func parseBars(r io.Reader) ([]*Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, ErrDataLoad
	}

	cols := make(map[string]int)
	for idx, name := range header {
		name = strings.TrimSpace(strings.ToLower(name))
		if role, ok := columnAliases[name]; ok {
			cols[role] = idx
		}
	}

	for _, role := range []string{"date", "code", "close"} {
		if _, ok := cols[role]; !ok {
			log.Error().Str("Column", role).Msg("dataset header is missing a required column")
			return nil, ErrMissingColumn
		}
	}

	// rows must be at least wide enough to carry every required column
	minFields := cols["date"]
	for _, role := range []string{"code", "close"} {
		if cols[role] > minFields {
			minFields = cols[role]
		}
	}
	minFields++

	bars := make([]*Bar, 0, 4096)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warn().Err(err).Int("LineNum", line).Msg("skipping malformed csv record")
			continue
		}
		if len(record) < minFields {
			log.Warn().Int("LineNum", line).Int("NumFields", len(record)).Msg("skipping short csv record")
			continue
		}

		date, err := parseCSVDate(record[cols["date"]])
		if err != nil {
			log.Warn().Err(err).Int("LineNum", line).Str("DateStr", record[cols["date"]]).Msg("skipping record with unparseable date")
			continue
		}

		closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[cols["close"]]), 64)
		if err != nil {
			log.Warn().Err(err).Int("LineNum", line).Msg("skipping record with unparseable close")
			continue
		}

		bar := &Bar{
			Date:  date,
			Code:  record[cols["code"]],
			Close: closePrice,
		}
		if nameIdx, ok := cols["name"]; ok && nameIdx < len(record) {
			bar.Name = strings.TrimSpace(record[nameIdx])
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	tz := common.GetTimezone()

	var err error
	var dt time.Time
	for _, format := range csvDateFormats {
		dt, err = time.ParseInLocation(format, s, tz)
		if err == nil {
			return dt, nil
		}
	}
	return time.Time{}, err
}
