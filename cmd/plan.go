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
	"fmt"
	"time"

	"github.com/hitsz-ids/ht-quant/backtest"
	"github.com/hitsz-ids/ht-quant/common"
	"github.com/hitsz-ids/ht-quant/momentum"
	"github.com/hitsz-ids/ht-quant/portfolio"
	"github.com/hitsz-ids/ht-quant/reports"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	planDate   string
	planTopK   int
	planBudget float64
)

func init() {
	planCmd.Flags().StringVar(&planDate, "date", "", "Build the plan as of this date (format: 2006-01-02); defaults to the dataset end")
	planCmd.Flags().IntVar(&planTopK, "top-k", backtest.DefaultTopK, "Number of instruments to hold")
	planCmd.Flags().Float64Var(&planBudget, "budget-per-holding", 100_000, "Cash budget allocated to each holding")

	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan [flags]",
	Short: "Turn the current momentum ranking into whole-share counts",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		store, err := loadStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load price store")
		}

		asOf := store.End()
		if planDate != "" {
			asOf, err = time.ParseInLocation("2006-01-02", planDate, common.GetTimezone())
			if err != nil {
				log.Fatal().Err(err).Str("InputStr", planDate).Msg("could not parse date - expected format 2006-01-02")
			}
		}

		scorer := momentum.NewScorer(store)
		records := scorer.ComputeScores(ctx, asOf, store.Instruments())
		selected := momentum.SelectTop(records, planTopK)

		plan, err := portfolio.BuildPlan(store, selected, asOf, planBudget)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build investment plan")
		}

		fmt.Printf("Investment plan as of %s (%.0f per holding):\n\n", asOf.Format("2006-01-02"), planBudget)
		fmt.Println(reports.PlanTable(plan))
	},
}
