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
 * Point-in-time momentum backtest.
 *
 * For every resolved rebalance month the engine scores the full universe as
 * of the month's first trading day, holds the top K instruments equal
 * weighted through the month's last trading day, and records the realized
 * period return. Scoring only ever sees prices dated at or before the
 * rebalance date, so the simulation is free of lookahead. Period evaluation
 * is independent across months and runs on a bounded worker pool; the
 * cumulative return series is derived afterwards as a strict left-to-right
 * fold in chronological order.
 */

package backtest

import (
	"context"
	"sync"
	"time"

	"github.com/hitsz-ids/ht-quant/data"
	"github.com/hitsz-ids/ht-quant/momentum"
	"github.com/hitsz-ids/ht-quant/observability/opentelemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultTopK is the portfolio size used when none is configured
	DefaultTopK = 30

	defaultWorkers = 4
)

// HoldingResult is one selected instrument's outcome for a single period
type HoldingResult struct {
	Instrument *data.Instrument `json:"instrument"`
	Composite  float64          `json:"compositeScore"`
	Return     float64          `json:"realizedReturn"`
	Valid      bool             `json:"valid"`
}

// PeriodResult records one rebalance month's realized outcome
type PeriodResult struct {
	Year                 int              `json:"year"`
	Month                time.Month       `json:"month"`
	RebalanceDate        time.Time        `json:"rebalanceDate"`
	PeriodEndDate        time.Time        `json:"periodEndDate"`
	PortfolioReturn      float64          `json:"portfolioReturn"`
	CumulativeReturn     float64          `json:"cumulativeReturn"`
	ValidInstrumentCount int              `json:"validInstrumentCount"`
	Holdings             []*HoldingResult `json:"holdings"`
}

// BenchmarkPeriod is the benchmark's return over the same boundaries
type BenchmarkPeriod struct {
	Year             int        `json:"year"`
	Month            time.Month `json:"month"`
	Return           float64    `json:"return"`
	CumulativeReturn float64    `json:"cumulativeReturn"`
}

// BenchmarkResult is the benchmark series compounded over the run's periods
type BenchmarkResult struct {
	Name                  string             `json:"name"`
	Periods               []*BenchmarkPeriod `json:"periods"`
	FinalCumulativeReturn float64            `json:"finalCumulativeReturn"`
}

// Result is a completed backtest run
type Result struct {
	ID                    uuid.UUID        `json:"id"`
	ComputedOn            time.Time        `json:"computedOn"`
	TopK                  int              `json:"topK"`
	Periods               []*PeriodResult  `json:"periods"`
	FinalCumulativeReturn float64          `json:"finalCumulativeReturn"`
	Benchmark             *BenchmarkResult `json:"benchmark,omitempty"`
	ExcessReturn          float64          `json:"excessReturn"`
}

// Engine drives scoring, selection and evaluation across a rebalance
// schedule. The store is read-only for the lifetime of the run; the Result
// is the only thing the engine mutates and it owns it exclusively.
type Engine struct {
	store     *data.Store
	scorer    *momentum.Scorer
	benchmark *data.Series
	topK      int
	workers   int
}

// Option configures an Engine
type Option func(*Engine)

// WithTopK sets the portfolio size
func WithTopK(k int) Option {
	return func(e *Engine) {
		e.topK = k
	}
}

// WithBenchmark attaches a benchmark series for comparison
func WithBenchmark(series *data.Series) Option {
	return func(e *Engine) {
		e.benchmark = series
	}
}

// WithWorkers bounds the per-month scoring parallelism
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an Engine over the given store
func NewEngine(store *data.Store, opts ...Option) *Engine {
	engine := &Engine{
		store:   store,
		scorer:  momentum.NewScorer(store),
		topK:    DefaultTopK,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Run executes the backtest over the requested calendar months and returns
// a well-formed Result; recoverable data gaps degrade to skipped months,
// excluded holdings, or zero-return periods, never to an error.
func (engine *Engine) Run(ctx context.Context, months []YearMonth) (*Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "backtest.Run")
	defer span.End()

	if len(months) == 0 {
		return nil, ErrNoPeriods
	}

	start := time.Now()
	periods := ResolveSchedule(engine.store, months)

	result := &Result{
		ID:         uuid.New(),
		ComputedOn: time.Now(),
		TopK:       engine.topK,
		Periods:    make([]*PeriodResult, len(periods)),
	}

	// months are independent of each other (every computation is keyed off
	// its own as-of date) so evaluation fans out across workers; each
	// goroutine writes only its own slot
	sem := make(chan struct{}, engine.workers)
	var wg sync.WaitGroup
	for idx, period := range periods {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, period *Period) {
			defer wg.Done()
			defer func() { <-sem }()
			result.Periods[idx] = engine.evaluatePeriod(ctx, period)
		}(idx, period)
	}
	wg.Wait()

	// compounding is order dependent; derive it strictly chronologically
	growth := 1.0
	for _, pr := range result.Periods {
		growth *= 1 + pr.PortfolioReturn
		pr.CumulativeReturn = growth - 1
	}
	result.FinalCumulativeReturn = growth - 1

	if engine.benchmark != nil {
		result.Benchmark = engine.compoundBenchmark(periods)
		result.ExcessReturn = result.FinalCumulativeReturn - result.Benchmark.FinalCumulativeReturn
	}

	log.Info().Int("NumPeriods", len(result.Periods)).Dur("Runtime", time.Since(start)).
		Float64("FinalCumulativeReturn", result.FinalCumulativeReturn).Msg("backtest complete")

	return result, nil
}

// evaluatePeriod scores the universe as of the period's rebalance date,
// selects the top K, and measures the equal-weight realized return through
// the period end. Holdings missing a boundary price are excluded from the
// average; a period with no usable holdings returns exactly 0.
func (engine *Engine) evaluatePeriod(ctx context.Context, period *Period) *PeriodResult {
	subLog := log.With().Str("Month", period.YearMonth.String()).Time("RebalanceDate", period.FirstTradingDay).Logger()

	scores := engine.scorer.ComputeScores(ctx, period.FirstTradingDay, engine.store.Instruments())
	if len(scores) == 0 {
		subLog.Warn().Msg("no instrument has a valid momentum score; holding empty portfolio")
	}
	selected := momentum.SelectTop(scores, engine.topK)

	holdings := make([]*HoldingResult, 0, len(selected))
	validReturns := make([]float64, 0, len(selected))
	for _, record := range selected {
		holding := &HoldingResult{
			Instrument: record.Instrument,
			Composite:  record.Composite,
		}
		holdings = append(holdings, holding)

		startPrice, err := engine.store.PriceAsOf(record.Instrument.Code, period.FirstTradingDay)
		if err != nil {
			subLog.Warn().Str("Code", record.Instrument.Code).Msg("no price at period start; excluding from period return")
			continue
		}
		endPrice, err := engine.store.PriceAsOf(record.Instrument.Code, period.LastTradingDay)
		if err != nil {
			subLog.Warn().Str("Code", record.Instrument.Code).Msg("no price at period end; excluding from period return")
			continue
		}

		holding.Return = endPrice/startPrice - 1
		holding.Valid = true
		validReturns = append(validReturns, holding.Return)
	}

	// zero includable holdings yields a flat period, not an error
	periodReturn := 0.0
	if len(validReturns) > 0 {
		periodReturn = stat.Mean(validReturns, nil)
	}

	return &PeriodResult{
		Year:                 period.Year,
		Month:                period.Month,
		RebalanceDate:        period.FirstTradingDay,
		PeriodEndDate:        period.LastTradingDay,
		PortfolioReturn:      periodReturn,
		ValidInstrumentCount: len(validReturns),
		Holdings:             holdings,
	}
}

// compoundBenchmark slices the benchmark series into the same period
// boundaries and compounds it identically. A period where the benchmark has
// no price at either boundary contributes 0, mirroring the empty-portfolio
// policy.
func (engine *Engine) compoundBenchmark(periods []*Period) *BenchmarkResult {
	res := &BenchmarkResult{
		Name:    engine.benchmark.Name,
		Periods: make([]*BenchmarkPeriod, 0, len(periods)),
	}

	growth := 1.0
	for _, period := range periods {
		bp := &BenchmarkPeriod{Year: period.Year, Month: period.Month}

		startPrice, startErr := engine.benchmark.AsOf(period.FirstTradingDay)
		endPrice, endErr := engine.benchmark.AsOf(period.LastTradingDay)
		if startErr != nil || endErr != nil {
			log.Warn().Str("Month", period.YearMonth.String()).Str("Benchmark", engine.benchmark.Name).
				Msg("benchmark missing a boundary price; period contributes 0")
		} else {
			bp.Return = endPrice/startPrice - 1
		}

		growth *= 1 + bp.Return
		bp.CumulativeReturn = growth - 1
		res.Periods = append(res.Periods, bp)
	}

	res.FinalCumulativeReturn = growth - 1
	return res
}
