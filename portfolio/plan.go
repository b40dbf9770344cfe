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

package portfolio

import (
	"errors"
	"math"
	"time"

	"github.com/hitsz-ids/ht-quant/data"
	"github.com/hitsz-ids/ht-quant/momentum"

	"github.com/rs/zerolog/log"
)

var (
	ErrBadBudget = errors.New("budget per holding must be positive")
)

// Position sizes one holding of an investment plan
type Position struct {
	Instrument *data.Instrument `json:"instrument"`
	Composite  float64          `json:"compositeScore"`
	Price      float64          `json:"price"`
	Shares     int64            `json:"shares"`
	Cost       float64          `json:"cost"`
}

// Plan turns a ranked instrument selection into whole-share counts at the
// latest close, allocating the same cash budget to every holding.
type Plan struct {
	AsOf             time.Time   `json:"asOf"`
	BudgetPerHolding float64     `json:"budgetPerHolding"`
	Positions        []*Position `json:"positions"`
	TotalCost        float64     `json:"totalCost"`
}

// BuildPlan prices each selected record as of the given date. Instruments
// without a usable price are dropped from the plan (logged).
func BuildPlan(store *data.Store, records []*momentum.Record, asOf time.Time, budgetPerHolding float64) (*Plan, error) {
	if budgetPerHolding <= 0 {
		return nil, ErrBadBudget
	}

	plan := &Plan{
		AsOf:             asOf,
		BudgetPerHolding: budgetPerHolding,
		Positions:        make([]*Position, 0, len(records)),
	}

	for _, record := range records {
		price, err := store.PriceAsOf(record.Instrument.Code, asOf)
		if err != nil {
			log.Warn().Str("Code", record.Instrument.Code).Time("AsOf", asOf).Msg("no price for plan position; dropping")
			continue
		}

		shares := int64(math.Floor(budgetPerHolding / price))
		if shares == 0 {
			log.Warn().Str("Code", record.Instrument.Code).Float64("Price", price).Msg("budget buys zero shares; dropping")
			continue
		}

		position := &Position{
			Instrument: record.Instrument,
			Composite:  record.Composite,
			Price:      price,
			Shares:     shares,
			Cost:       float64(shares) * price,
		}
		plan.Positions = append(plan.Positions, position)
		plan.TotalCost += position.Cost
	}

	return plan, nil
}
