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

	"github.com/hitsz-ids/ht-quant/backtest"
	"github.com/hitsz-ids/ht-quant/common"
	"github.com/hitsz-ids/ht-quant/reports"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	backtestBegin      string
	backtestEnd        string
	backtestTopK       int
	backtestDetail     bool
	backtestSummaryCSV string
	backtestDetailCSV  string
	backtestNoChart    bool
)

func init() {
	backtestCmd.Flags().StringVar(&backtestBegin, "begin", "", "First rebalance month (format: 2006-01); defaults to the dataset start")
	backtestCmd.Flags().StringVar(&backtestEnd, "end", "", "Last rebalance month (format: 2006-01); defaults to the dataset end")
	backtestCmd.Flags().IntVar(&backtestTopK, "top-k", backtest.DefaultTopK, "Number of instruments to hold each month")
	backtestCmd.Flags().BoolVar(&backtestDetail, "detail", false, "Print each month's holdings and realized returns")
	backtestCmd.Flags().StringVar(&backtestSummaryCSV, "summary-csv", "", "Write the period summary to the named CSV file")
	backtestCmd.Flags().StringVar(&backtestDetailCSV, "detail-csv", "", "Write per-holding detail to the named CSV file")
	backtestCmd.Flags().BoolVar(&backtestNoChart, "no-chart", false, "Suppress the cumulative return chart")

	rootCmd.AddCommand(backtestCmd)
}

var backtestCmd = &cobra.Command{
	Use:   "backtest [flags]",
	Short: "Run a momentum backtest over a monthly rebalance schedule",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		shutdownTracing := setupTracing()
		defer shutdownTracing(ctx)

		store, err := loadStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load price store")
		}

		begin := backtest.YearMonth{Year: store.Begin().Year(), Month: store.Begin().Month()}
		if backtestBegin != "" {
			if begin, err = backtest.ParseYearMonth(backtestBegin); err != nil {
				log.Fatal().Err(err).Str("Begin", backtestBegin).Msg("could not parse begin month")
			}
		}

		end := backtest.YearMonth{Year: store.End().Year(), Month: store.End().Month()}
		if backtestEnd != "" {
			if end, err = backtest.ParseYearMonth(backtestEnd); err != nil {
				log.Fatal().Err(err).Str("End", backtestEnd).Msg("could not parse end month")
			}
		}

		opts := []backtest.Option{backtest.WithTopK(backtestTopK)}
		benchmark, err := loadBenchmark(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("could not load benchmark; continuing without comparison")
		} else if benchmark != nil {
			opts = append(opts, backtest.WithBenchmark(benchmark))
		}

		engine := backtest.NewEngine(store, opts...)
		result, err := engine.Run(ctx, backtest.MonthsBetween(begin, end))
		if err != nil {
			log.Fatal().Err(err).Msg("backtest failed")
		}

		if backtestDetail {
			for _, pr := range result.Periods {
				fmt.Printf("\n%04d-%02d portfolio (rebalanced %s):\n", pr.Year, pr.Month, pr.RebalanceDate.Format("2006-01-02"))
				fmt.Println(reports.HoldingsTable(pr))
			}
		}

		fmt.Println(reports.SummaryTable(result))
		fmt.Println(reports.StatsSummary(result))

		if result.Benchmark != nil {
			fmt.Printf("Strategy:  %8.2f%%\n", result.FinalCumulativeReturn*100)
			fmt.Printf("Benchmark: %8.2f%% (%s)\n", result.Benchmark.FinalCumulativeReturn*100, result.Benchmark.Name)
			fmt.Printf("Excess:    %8.2f%%\n", result.ExcessReturn*100)
		}

		if !backtestNoChart {
			fmt.Println()
			fmt.Println(reports.ComparisonChart(result))
		}

		if backtestSummaryCSV != "" {
			if err := reports.SaveCSV(backtestSummaryCSV, result, reports.WriteSummaryCSV); err != nil {
				log.Error().Err(err).Msg("could not save summary csv")
			}
		}
		if backtestDetailCSV != "" {
			if err := reports.SaveCSV(backtestDetailCSV, result, reports.WriteDetailCSV); err != nil {
				log.Error().Err(err).Msg("could not save detail csv")
			}
		}
	},
}
