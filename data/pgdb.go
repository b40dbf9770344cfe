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
	"errors"
	"time"

	"github.com/hitsz-ids/ht-quant/database"
	"github.com/hitsz-ids/ht-quant/observability/opentelemetry"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// PgDb loads price history from a PostgreSQL deployment with `eod` and
// `benchmark_eod` tables.
type PgDb struct {
}

// NewPgDb creates a new PostgreSQL data provider
func NewPgDb() *PgDb {
	return &PgDb{}
}

// LoadStore fetches all EOD bars between begin and end and builds a Store
func (p *PgDb) LoadStore(ctx context.Context, begin, end time.Time) (*Store, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pgdb.LoadStore")
	defer span.End()

	subLog := log.With().Time("Begin", begin).Time("End", end).Logger()
	subLog.Debug().Msg("loading eod bars from database")

	if end.Before(begin) {
		subLog.Warn().Stack().Msg("end before begin in call to LoadStore")
		return nil, ErrInvalidTimeRange
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction when loading eod bars")
		return nil, err
	}

	rows, err := trx.Query(ctx,
		"SELECT event_date, code, name, close FROM eod WHERE event_date BETWEEN $1 AND $2 ORDER BY code, event_date",
		begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			subLog = subLog.With().Str("SqlState", pgErr.Code).Logger()
		}
		subLog.Error().Stack().Err(err).Msg("could not query eod bars")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	bars := make([]*Bar, 0, 16384)
	for rows.Next() {
		bar := &Bar{}
		if err := rows.Scan(&bar.Date, &bar.Code, &bar.Name, &bar.Close); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan database results")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		bars = append(bars, bar)
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if len(bars) == 0 {
		span.SetStatus(codes.Error, "no eod bars found")
		subLog.Error().Stack().Msg("no eod bars in requested range")
		return nil, ErrDataLoad
	}

	return NewStore(bars)
}

// LoadBenchmark fetches a benchmark index series by code
func (p *PgDb) LoadBenchmark(ctx context.Context, code string, begin, end time.Time) (*Series, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pgdb.LoadBenchmark")
	defer span.End()

	subLog := log.With().Str("Code", code).Time("Begin", begin).Time("End", end).Logger()
	subLog.Debug().Msg("loading benchmark series from database")

	if end.Before(begin) {
		subLog.Warn().Stack().Msg("end before begin in call to LoadBenchmark")
		return nil, ErrInvalidTimeRange
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction when loading benchmark")
		return nil, err
	}

	rows, err := trx.Query(ctx,
		"SELECT event_date, close FROM benchmark_eod WHERE code=$1 AND event_date BETWEEN $2 AND $3 ORDER BY event_date",
		code, begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		subLog.Error().Stack().Err(err).Msg("could not query benchmark series")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	points := make([]PricePoint, 0, 256)
	for rows.Next() {
		var pt PricePoint
		if err := rows.Scan(&pt.Date, &pt.Close); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan database results")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		points = append(points, pt)
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if len(points) == 0 {
		span.SetStatus(codes.Error, "no benchmark data found")
		subLog.Error().Stack().Msg("no benchmark data in requested range")
		return nil, ErrEmptySeries
	}

	return NewSeries(code, points)
}
