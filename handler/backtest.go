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

package handler

import (
	"encoding/hex"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hitsz-ids/ht-quant/backtest"
	"github.com/hitsz-ids/ht-quant/common"
	"github.com/hitsz-ids/ht-quant/observability/opentelemetry"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RunBacktest executes a monthly-rebalance momentum backtest over the
// requested period. Results are cached by request fingerprint because the
// store only changes on the nightly reload.
func RunBacktest(c *fiber.Ctx) (resp error) {
	defer func() {
		if err := recover(); err != nil {
			log.Error().Interface("Panic", err).Msg("caught panic in /v1/backtest")
			debug.PrintStack()
			resp = fiber.ErrInternalServerError
		}
	}()

	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.Context(), "handler.RunBacktest",
		trace.WithAttributes(opentelemetry.SpanAttributesFromFiber(c)...))
	defer span.End()

	store, benchmark, err := getMarketData()
	if err != nil {
		return err
	}

	beginStr := c.Query("begin", store.Begin().Format("2006-01"))
	endStr := c.Query("end", store.End().Format("2006-01"))
	topK := c.QueryInt("topK", backtest.DefaultTopK)
	if topK <= 0 {
		log.Warn().Int("TopK", topK).Msg("backtest called with invalid topK")
		return fiber.ErrBadRequest
	}

	begin, err := backtest.ParseYearMonth(beginStr)
	if err != nil {
		log.Warn().Str("BeginStr", beginStr).Err(err).Msg("cannot parse begin query parameter")
		return fiber.ErrNotAcceptable
	}
	end, err := backtest.ParseYearMonth(endStr)
	if err != nil {
		log.Warn().Str("EndStr", endStr).Err(err).Msg("cannot parse end query parameter")
		return fiber.ErrNotAcceptable
	}

	cacheKey := backtestCacheKey(beginStr, endStr, topK, store.End())
	if raw, err := common.CacheGet(cacheKey); err == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	}

	opts := []backtest.Option{backtest.WithTopK(topK)}
	if benchmark != nil {
		opts = append(opts, backtest.WithBenchmark(benchmark))
	}
	engine := backtest.NewEngine(store, opts...)
	result, err := engine.Run(ctx, backtest.MonthsBetween(begin, end))
	if err != nil {
		log.Error().Stack().Err(err).
			Str("Begin", beginStr).Str("End", endStr).Int("TopK", topK).
			Msg("backtest run failed")
		return fiber.ErrBadRequest
	}

	serialized, err := json.Marshal(result)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not serialize backtest result")
		return fiber.ErrInternalServerError
	}
	if err := common.CacheSet(cacheKey, serialized); err != nil {
		log.Warn().Err(err).Msg("could not cache backtest result")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(serialized)
}

// backtestCacheKey fingerprints the request parameters plus the store's last
// date so cached entries are invalidated by data reloads.
func backtestCacheKey(begin, end string, topK int, storeEnd time.Time) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s|%s|%d|%s", begin, end, topK, storeEnd.Format(time.RFC3339))
	digest := h.Sum(nil)
	return "backtest:" + hex.EncodeToString(digest[:16])
}
