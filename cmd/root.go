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
	"fmt"
	"os"

	"github.com/hitsz-ids/ht-quant/common"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Profile bool
var Trace bool

func init() {
	cobra.OnInitialize()

	// Dataset
	viper.BindEnv("data.file", "HT_DATA_FILE")
	rootCmd.PersistentFlags().String("data-file", "", "CSV file with daily closing prices for the universe")
	viper.BindPFlag("data.file", rootCmd.PersistentFlags().Lookup("data-file"))

	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	// Benchmark
	viper.BindEnv("benchmark.file", "HT_BENCHMARK_FILE")
	rootCmd.PersistentFlags().String("benchmark-file", "", "CSV file with the benchmark index close series")
	viper.BindPFlag("benchmark.file", rootCmd.PersistentFlags().Lookup("benchmark-file"))

	viper.BindEnv("benchmark.url", "HT_BENCHMARK_URL")
	rootCmd.PersistentFlags().String("benchmark-url", "", "URL serving the benchmark close series as CSV")
	viper.BindPFlag("benchmark.url", rootCmd.PersistentFlags().Lookup("benchmark-url"))

	rootCmd.PersistentFlags().String("benchmark-name", "510300", "Display name of the benchmark series")
	viper.BindPFlag("benchmark.name", rootCmd.PersistentFlags().Lookup("benchmark-name"))

	rootCmd.PersistentFlags().String("benchmark-code", "", "Instrument code of the benchmark row in benchmark_eod (database source only)")
	viper.BindPFlag("benchmark.code", rootCmd.PersistentFlags().Lookup("benchmark-code"))

	// Logging configuration
	viper.BindEnv("log.level", "HT_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "HT_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "HT_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in human readable console format")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	rootCmd.PersistentFlags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	rootCmd.PersistentFlags().BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")
}

var rootCmd = &cobra.Command{
	Use:     "htquant",
	Version: common.CurrentVersion.String(),
	Short:   "htquant backtests momentum-ranked equity portfolios",
	Long: `A point-in-time backtesting engine that ranks an equity universe by
multi-horizon price momentum, holds the top names equal weighted across a
monthly rebalance schedule, and compares compounded returns against a
benchmark index.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
