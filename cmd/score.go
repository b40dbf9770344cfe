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

	"github.com/hitsz-ids/ht-quant/common"
	"github.com/hitsz-ids/ht-quant/momentum"
	"github.com/hitsz-ids/ht-quant/reports"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	scoreDate string
	scoreTop  int
)

func init() {
	scoreCmd.Flags().StringVar(&scoreDate, "date", "", "Score as of this date (format: 2006-01-02); defaults to the dataset end")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 20, "Number of ranked instruments to print")

	rootCmd.AddCommand(scoreCmd)
}

var scoreCmd = &cobra.Command{
	Use:   "score [flags]",
	Short: "Rank the universe by multi-horizon momentum as of a date",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		store, err := loadStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load price store")
		}

		asOf := store.End()
		if scoreDate != "" {
			asOf, err = time.ParseInLocation("2006-01-02", scoreDate, common.GetTimezone())
			if err != nil {
				log.Fatal().Err(err).Str("InputStr", scoreDate).Msg("could not parse date - expected format 2006-01-02")
			}
		}

		scorer := momentum.NewScorer(store)
		records := scorer.ComputeScores(ctx, asOf, store.Instruments())
		if len(records) == 0 {
			log.Fatal().Time("AsOf", asOf).Msg("no instrument has a valid momentum score")
		}

		fmt.Printf("Momentum ranking as of %s (%d scored):\n\n", asOf.Format("2006-01-02"), len(records))
		fmt.Println(reports.ScoreTable(records, scoreTop))
	},
}
