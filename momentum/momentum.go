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

/*
 * Multi-horizon cross-sectional momentum.
 *
 * Each instrument's return is measured over 1, 3, 6 and 12 month lookbacks
 * (fixed 30/90/180/365 calendar-day anchors, as-of lookups only), converted
 * to a percentile rank within the cross-section of instruments that have a
 * valid return for the same horizon, and the composite score is the mean of
 * the percentile ranks that are present. Horizons without history are
 * skipped, not zero-filled, so recently listed instruments compete on the
 * horizons they have.
 */

package momentum

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/hitsz-ids/ht-quant/data"
	"github.com/hitsz-ids/ht-quant/observability/opentelemetry"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"gonum.org/v1/gonum/stat"
)

// Horizon is a lookback period expressed in months
type Horizon int

const (
	OneMonth     Horizon = 1
	ThreeMonths  Horizon = 3
	SixMonths    Horizon = 6
	TwelveMonths Horizon = 12
)

// Horizons lists every lookback the composite score draws from
var Horizons = []Horizon{OneMonth, ThreeMonths, SixMonths, TwelveMonths}

var (
	ErrUnknownHorizon = errors.New("unknown momentum horizon")
)

// AnchorDays returns the fixed calendar day-count of the horizon's anchor.
// Day counts, not calendar-month arithmetic, to match the score definition.
func (h Horizon) AnchorDays() int {
	switch h {
	case OneMonth:
		return 30
	case ThreeMonths:
		return 90
	case SixMonths:
		return 180
	case TwelveMonths:
		return 365
	}
	log.Panic().Int("Horizon", int(h)).Msg("unknown momentum horizon")
	return 0
}

// Record is one instrument's momentum measurement as of a single date.
// Returns and Percentiles only contain entries for horizons with a valid
// anchor price; Composite is the mean of the present percentiles.
type Record struct {
	Instrument  *data.Instrument    `json:"instrument"`
	Returns     map[Horizon]float64 `json:"horizonReturns"`
	Percentiles map[Horizon]float64 `json:"horizonPercentiles"`
	Composite   float64             `json:"compositeScore"`
}

// Return reports the horizon return and whether it is present
func (r *Record) Return(h Horizon) (float64, bool) {
	v, ok := r.Returns[h]
	return v, ok
}

// Percentile reports the horizon percentile rank and whether it is present
func (r *Record) Percentile(h Horizon) (float64, bool) {
	v, ok := r.Percentiles[h]
	return v, ok
}

// Scorer computes cross-sectional momentum scores against a price store
type Scorer struct {
	store *data.Store
}

// NewScorer creates a Scorer reading from the given store
func NewScorer(store *data.Store) *Scorer {
	return &Scorer{store: store}
}

// ComputeScores measures every instrument in the universe as of asOf and
// returns records ordered by descending composite score (ties broken by
// ascending instrument code). Instruments with no price at asOf, or with no
// valid horizon at all, are excluded. Only prices dated on or before asOf
// are ever read.
func (scorer *Scorer) ComputeScores(ctx context.Context, asOf time.Time, universe []*data.Instrument) []*Record {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "momentum.ComputeScores")
	defer span.End()

	subLog := log.With().Time("AsOf", asOf).Int("UniverseSize", len(universe)).Logger()
	subLog.Debug().Msg("computing momentum scores")

	records := make([]*Record, 0, len(universe))
	for _, instrument := range universe {
		latestClose, err := scorer.store.PriceAsOf(instrument.Code, asOf)
		if err != nil {
			// not yet listed as of this date; cannot produce any return
			continue
		}

		record := &Record{
			Instrument:  instrument,
			Returns:     make(map[Horizon]float64, len(Horizons)),
			Percentiles: make(map[Horizon]float64, len(Horizons)),
		}

		for _, horizon := range Horizons {
			anchorDate := asOf.AddDate(0, 0, -horizon.AnchorDays())
			anchorClose, err := scorer.store.PriceAsOf(instrument.Code, anchorDate)
			if err != nil {
				// horizon reaches past this instrument's history; skip it
				continue
			}
			record.Returns[horizon] = latestClose/anchorClose - 1
		}

		if len(record.Returns) > 0 {
			records = append(records, record)
		}
	}

	rankCrossSection(records)

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Composite != records[j].Composite {
			return records[i].Composite > records[j].Composite
		}
		return records[i].Instrument.Code < records[j].Instrument.Code
	})

	subLog.Debug().Int("NumScored", len(records)).Msg("momentum scores computed")
	return records
}

// rankCrossSection fills in percentile ranks and composite scores. Each
// horizon is ranked independently over the instruments that have a valid
// return for it: percentile(x) = 100 * count(returns <= x) / count(returns).
// The inclusive count means the cross-section maximum always ranks 100 and
// tied values share a rank.
func rankCrossSection(records []*Record) {
	for _, horizon := range Horizons {
		valid := make([]float64, 0, len(records))
		for _, record := range records {
			if ret, ok := record.Returns[horizon]; ok {
				valid = append(valid, ret)
			}
		}
		if len(valid) == 0 {
			continue
		}
		sort.Float64s(valid)

		for _, record := range records {
			ret, ok := record.Returns[horizon]
			if !ok {
				continue
			}
			// index of the first value greater than ret = count of values <= ret
			countLE := sort.Search(len(valid), func(i int) bool {
				return valid[i] > ret
			})
			record.Percentiles[horizon] = 100 * float64(countLE) / float64(len(valid))
		}
	}

	for _, record := range records {
		present := make([]float64, 0, len(Horizons))
		for _, horizon := range Horizons {
			if pct, ok := record.Percentiles[horizon]; ok {
				present = append(present, pct)
			}
		}
		record.Composite = stat.Mean(present, nil)
	}
}

// SelectTop returns the first k records of the ranked output; fewer when the
// universe is smaller. No further filtering happens here -- records without
// any valid horizon never made it into the ranking.
func SelectTop(records []*Record, k int) []*Record {
	if k > len(records) {
		k = len(records)
	}
	if k < 0 {
		k = 0
	}
	return records[:k]
}
