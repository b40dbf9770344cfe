// Copyright 2025-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/hitsz-ids/ht-quant/data"
	"github.com/hitsz-ids/ht-quant/database"
	"github.com/hitsz-ids/ht-quant/observability/opentelemetry"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var errNoDataSource = errors.New("no data source configured; set data.file or database.url")

// loadStore builds the price store from whichever source is configured: a
// CSV dataset file, or the eod tables behind database.url.
func loadStore(ctx context.Context) (*data.Store, error) {
	if fn := viper.GetString("data.file"); fn != "" {
		return data.LoadStoreFromCSV(fn)
	}

	if viper.GetString("database.url") != "" {
		if err := database.Connect(ctx); err != nil {
			return nil, err
		}
		// a wide-open range; the store is bounded by what the tables hold
		begin := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
		return data.NewPgDb().LoadStore(ctx, begin, time.Now())
	}

	return nil, errNoDataSource
}

// loadBenchmark builds the benchmark series when one is configured; returns
// nil without error when it is not.
func loadBenchmark(ctx context.Context) (*data.Series, error) {
	name := viper.GetString("benchmark.name")

	if fn := viper.GetString("benchmark.file"); fn != "" {
		return data.LoadSeriesFromCSV(fn, name)
	}

	if url := viper.GetString("benchmark.url"); url != "" {
		return data.FetchSeries(ctx, url, name)
	}

	if viper.GetString("database.url") != "" && viper.GetString("benchmark.code") != "" {
		begin := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
		return data.NewPgDb().LoadBenchmark(ctx, viper.GetString("benchmark.code"), begin, time.Now())
	}

	log.Debug().Msg("no benchmark configured")
	return nil, nil
}

// setupTracing initializes the OTLP trace exporter when an endpoint is
// configured; the returned shutdown func is always safe to call.
func setupTracing() func(context.Context) error {
	if viper.GetString("otlp.endpoint") == "" {
		return func(context.Context) error { return nil }
	}

	shutdown, err := opentelemetry.Setup()
	if err != nil {
		log.Error().Err(err).Msg("could not setup tracing")
		return func(context.Context) error { return nil }
	}
	return shutdown
}
