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
	"sort"
	"time"

	"github.com/hitsz-ids/ht-quant/common"

	"github.com/rs/zerolog/log"
)

// Store holds the closing-price history for a universe of instruments. It is
// built once by one of the providers and never mutated afterward, so it is
// safe for concurrent readers.
type Store struct {
	instruments []*Instrument
	byCode      map[string]*Instrument
	series      map[string][]PricePoint
	tradingDays []time.Time
}

// NormalizeDate collapses a timestamp to the exchange close on its calendar
// day. Every date held by a Store or Series passes through here so that
// as-of comparisons work at calendar-day granularity.
func NormalizeDate(t time.Time) time.Time {
	tz := common.GetTimezone()
	t = t.In(tz)
	return time.Date(t.Year(), t.Month(), t.Day(), 15, 0, 0, 0, tz)
}

// NewStore builds a Store from raw dataset rows. Codes are normalized to
// fixed width, each instrument's series is sorted by date, and duplicate
// dates keep the last occurrence seen (logged). Rows with a non-positive
// close are rejected.
func NewStore(bars []*Bar) (*Store, error) {
	if len(bars) == 0 {
		return nil, ErrDataLoad
	}

	store := &Store{
		byCode: make(map[string]*Instrument),
		series: make(map[string][]PricePoint),
	}

	for _, bar := range bars {
		code := NormalizeCode(bar.Code)
		if code == "" || bar.Close <= 0 {
			log.Warn().Str("Code", bar.Code).Time("Date", bar.Date).Float64("Close", bar.Close).Msg("rejecting invalid dataset row")
			continue
		}

		if _, ok := store.byCode[code]; !ok {
			instrument := &Instrument{Code: code, Name: bar.Name}
			store.byCode[code] = instrument
			store.instruments = append(store.instruments, instrument)
		}

		store.series[code] = append(store.series[code], PricePoint{
			Date:  NormalizeDate(bar.Date),
			Close: bar.Close,
		})
	}

	if len(store.instruments) == 0 {
		return nil, ErrDataLoad
	}

	sort.Slice(store.instruments, func(i, j int) bool {
		return store.instruments[i].Code < store.instruments[j].Code
	})

	daySet := make(map[time.Time]struct{})
	for code, points := range store.series {
		// stable keeps input order for equal dates so "last occurrence wins"
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].Date.Before(points[j].Date)
		})

		deduped := points[:0]
		for _, pt := range points {
			if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(pt.Date) {
				log.Warn().Str("Code", code).Time("Date", pt.Date).Msg("duplicate date in price series; keeping last record")
				deduped[n-1] = pt
				continue
			}
			deduped = append(deduped, pt)
		}

		store.series[code] = deduped
		for _, pt := range deduped {
			daySet[pt.Date] = struct{}{}
		}
	}

	store.tradingDays = make([]time.Time, 0, len(daySet))
	for day := range daySet {
		store.tradingDays = append(store.tradingDays, day)
	}
	sort.Slice(store.tradingDays, func(i, j int) bool {
		return store.tradingDays[i].Before(store.tradingDays[j])
	})

	log.Info().Int("NumInstruments", len(store.instruments)).Int("NumTradingDays", len(store.tradingDays)).
		Time("Begin", store.tradingDays[0]).Time("End", store.tradingDays[len(store.tradingDays)-1]).
		Msg("loaded price store")

	return store, nil
}

// Instruments returns all instruments known to the store, sorted by code
func (store *Store) Instruments() []*Instrument {
	res := make([]*Instrument, len(store.instruments))
	copy(res, store.instruments)
	return res
}

// Instrument looks up a single instrument by code
func (store *Store) Instrument(code string) (*Instrument, error) {
	if instrument, ok := store.byCode[NormalizeCode(code)]; ok {
		return instrument, nil
	}
	return nil, ErrNotFound
}

// PriceAsOf returns the close of the point with the greatest date <= date.
// It never reads a point dated after the query date; this is the invariant
// that keeps lookahead out of every computation built on the store.
func (store *Store) PriceAsOf(code string, date time.Time) (float64, error) {
	points, ok := store.series[NormalizeCode(code)]
	if !ok {
		return 0, ErrNotFound
	}

	date = NormalizeDate(date)
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].Date.After(date)
	})
	if idx == 0 {
		return 0, ErrNoPriceData
	}

	return points[idx-1].Close, nil
}

// TradingDays returns the sorted, de-duplicated union of dates across all
// series that fall within [begin, end].
func (store *Store) TradingDays(begin, end time.Time) []time.Time {
	begin = NormalizeDate(begin)
	end = NormalizeDate(end)

	lo := sort.Search(len(store.tradingDays), func(i int) bool {
		return !store.tradingDays[i].Before(begin)
	})
	hi := sort.Search(len(store.tradingDays), func(i int) bool {
		return store.tradingDays[i].After(end)
	})
	if lo >= hi {
		return []time.Time{}
	}

	res := make([]time.Time, hi-lo)
	copy(res, store.tradingDays[lo:hi])
	return res
}

// FirstTradingDayOfMonth returns the earliest trading day in the given month
// or ErrNoTradingDays when the dataset has none.
func (store *Store) FirstTradingDayOfMonth(year int, month time.Month) (time.Time, error) {
	days := store.monthTradingDays(year, month)
	if len(days) == 0 {
		return time.Time{}, ErrNoTradingDays
	}
	return days[0], nil
}

// LastTradingDayOfMonth returns the latest trading day in the given month.
// The result is naturally bounded by the dataset's end.
func (store *Store) LastTradingDayOfMonth(year int, month time.Month) (time.Time, error) {
	days := store.monthTradingDays(year, month)
	if len(days) == 0 {
		return time.Time{}, ErrNoTradingDays
	}
	return days[len(days)-1], nil
}

// Begin returns the first trading day covered by the dataset
func (store *Store) Begin() time.Time {
	return store.tradingDays[0]
}

// End returns the last trading day covered by the dataset
func (store *Store) End() time.Time {
	return store.tradingDays[len(store.tradingDays)-1]
}

func (store *Store) monthTradingDays(year int, month time.Month) []time.Time {
	tz := common.GetTimezone()
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, tz)
	monthEnd := monthStart.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return store.TradingDays(monthStart, monthEnd)
}
