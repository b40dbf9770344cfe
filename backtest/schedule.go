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

package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/hitsz-ids/ht-quant/data"

	"github.com/rs/zerolog/log"
)

var (
	ErrBadYearMonth = errors.New("could not parse year-month; expected format 2006-01")
	ErrNoPeriods    = errors.New("no rebalance months requested")
)

// YearMonth identifies one calendar rebalance month
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// ParseYearMonth parses "2006-01" style strings
func ParseYearMonth(s string) (YearMonth, error) {
	dt, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, ErrBadYearMonth
	}
	return YearMonth{Year: dt.Year(), Month: dt.Month()}, nil
}

// MonthsBetween enumerates calendar months from begin through end inclusive
func MonthsBetween(begin, end YearMonth) []YearMonth {
	months := []YearMonth{}
	cur := begin
	for {
		if cur.Year > end.Year || (cur.Year == end.Year && cur.Month > end.Month) {
			break
		}
		months = append(months, cur)
		if cur.Month == time.December {
			cur = YearMonth{Year: cur.Year + 1, Month: time.January}
		} else {
			cur = YearMonth{Year: cur.Year, Month: cur.Month + 1}
		}
	}
	return months
}

// Period is a resolved rebalance month: the first trading day is the
// rebalance date and the last trading day closes the holding period. The
// last trading day is naturally bounded by the dataset end.
type Period struct {
	YearMonth
	FirstTradingDay time.Time `json:"firstTradingDay"`
	LastTradingDay  time.Time `json:"lastTradingDay"`
}

// ResolveSchedule maps each calendar month to its concrete trading-day
// period. Months with no trading days in the dataset are skipped, logged,
// and never abort the run.
func ResolveSchedule(store *data.Store, months []YearMonth) []*Period {
	periods := make([]*Period, 0, len(months))
	for _, ym := range months {
		first, err := store.FirstTradingDayOfMonth(ym.Year, ym.Month)
		if err != nil {
			log.Warn().Str("Month", ym.String()).Msg("no trading days for month; skipping")
			continue
		}
		last, err := store.LastTradingDayOfMonth(ym.Year, ym.Month)
		if err != nil {
			// cannot happen when the first trading day resolved, but keep
			// the month-skip behavior rather than panic
			log.Warn().Str("Month", ym.String()).Msg("no trading days for month; skipping")
			continue
		}

		periods = append(periods, &Period{
			YearMonth:       ym,
			FirstTradingDay: first,
			LastTradingDay:  last,
		})
	}
	return periods
}
