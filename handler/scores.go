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
	"time"

	"github.com/hitsz-ids/ht-quant/common"
	"github.com/hitsz-ids/ht-quant/data"
	"github.com/hitsz-ids/ht-quant/momentum"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ListInstruments returns the investable universe currently loaded in the
// price store.
func ListInstruments(c *fiber.Ctx) error {
	store, _, err := getMarketData()
	if err != nil {
		return err
	}
	return c.JSON(store.Instruments())
}

// GetScores computes momentum scores for the full universe as of the
// requested date (default: last date in the store).
func GetScores(c *fiber.Ctx) error {
	store, _, err := getMarketData()
	if err != nil {
		return err
	}

	asOf := store.End()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, common.GetTimezone())
		if err != nil {
			log.Warn().Str("DateStr", dateStr).Err(err).Msg("cannot parse date query parameter")
			return fiber.ErrNotAcceptable
		}
		asOf = data.NormalizeDate(parsed)
	}

	scorer := momentum.NewScorer(store)
	records := scorer.ComputeScores(c.Context(), asOf, store.Instruments())

	if topK := c.QueryInt("topK", 0); topK > 0 {
		records = momentum.SelectTop(records, topK)
	}

	return c.JSON(fiber.Map{
		"asOf":   asOf,
		"scores": records,
	})
}
