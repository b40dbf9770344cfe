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
	"sync"
	"time"

	"github.com/hitsz-ids/ht-quant/data"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Time    string `json:"time" example:"2021-06-19T08:09:10.115924-05:00"`
}

type marketData struct {
	store     *data.Store
	benchmark *data.Series
}

var (
	marketMu sync.RWMutex
	market   marketData
)

// SetMarketData installs the price store (and optional benchmark series)
// served by the API. The serve command refreshes it after each session close.
func SetMarketData(store *data.Store, benchmark *data.Series) {
	marketMu.Lock()
	defer marketMu.Unlock()
	market = marketData{store: store, benchmark: benchmark}
}

func getMarketData() (*data.Store, *data.Series, error) {
	marketMu.RLock()
	defer marketMu.RUnlock()
	if market.store == nil {
		return nil, nil, fiber.ErrServiceUnavailable
	}
	return market.store, market.benchmark, nil
}

func Ping(c *fiber.Ctx) error {
	var response PingResponse
	now, err := time.Now().MarshalText()
	if err != nil {
		log.Error().Stack().Err(err).Msg("error while getting time in ping")
		response = PingResponse{
			Status:  "error",
			Message: err.Error(),
			Time:    string(now),
		}
	} else {
		response = PingResponse{
			Status:  "success",
			Message: "API is alive",
			Time:    string(now),
		}
	}
	return c.JSON(response)
}
