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

// Package reports renders backtest output for the collaborator seams: CSV
// files for downstream tooling and tables/charts for the terminal.
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hitsz-ids/ht-quant/backtest"
	"github.com/hitsz-ids/ht-quant/momentum"
	"github.com/hitsz-ids/ht-quant/portfolio"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// WriteSummaryCSV emits one row per rebalance period
func WriteSummaryCSV(w io.Writer, result *backtest.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"year", "month", "rebalance_date", "portfolio_return", "cumulative_return", "valid_instruments"}); err != nil {
		return err
	}

	for _, pr := range result.Periods {
		row := []string{
			strconv.Itoa(pr.Year),
			fmt.Sprintf("%02d", pr.Month),
			pr.RebalanceDate.Format("2006-01-02"),
			strconv.FormatFloat(pr.PortfolioReturn, 'f', 6, 64),
			strconv.FormatFloat(pr.CumulativeReturn, 'f', 6, 64),
			strconv.Itoa(pr.ValidInstrumentCount),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteDetailCSV emits one row per holding per rebalance period
func WriteDetailCSV(w io.Writer, result *backtest.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"year", "month", "rebalance_date", "code", "name", "composite_score", "realized_return"}); err != nil {
		return err
	}

	for _, pr := range result.Periods {
		for _, holding := range pr.Holdings {
			realized := ""
			if holding.Valid {
				realized = strconv.FormatFloat(holding.Return, 'f', 6, 64)
			}
			row := []string{
				strconv.Itoa(pr.Year),
				fmt.Sprintf("%02d", pr.Month),
				pr.RebalanceDate.Format("2006-01-02"),
				holding.Instrument.Code,
				holding.Instrument.Name,
				strconv.FormatFloat(holding.Composite, 'f', 4, 64),
				realized,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes a report to the named file using the given writer func
func SaveCSV(fn string, result *backtest.Result, write func(io.Writer, *backtest.Result) error) error {
	subLog := log.With().Str("FileName", fn).Logger()

	fh, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("error opening file")
		return err
	}
	defer fh.Close()

	if err := write(fh, result); err != nil {
		subLog.Error().Stack().Err(err).Msg("error writing file")
		return err
	}
	return nil
}

// SummaryTable prints an ASCII formatted period summary
func SummaryTable(result *backtest.Result) string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Month", "Rebalance", "Return", "Cumulative", "Valid"})
	table.SetBorder(false)

	for _, pr := range result.Periods {
		table.Append([]string{
			fmt.Sprintf("%04d-%02d", pr.Year, pr.Month),
			pr.RebalanceDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f%%", pr.PortfolioReturn*100),
			fmt.Sprintf("%.2f%%", pr.CumulativeReturn*100),
			fmt.Sprintf("%d/%d", pr.ValidInstrumentCount, result.TopK),
		})
	}

	footer := []string{"Final", "", "", fmt.Sprintf("%.2f%%", result.FinalCumulativeReturn*100), ""}
	table.SetFooter(footer)
	table.Render()
	return s.String()
}

// StatsSummary reports headline statistics over the run's monthly returns
func StatsSummary(result *backtest.Result) string {
	if len(result.Periods) == 0 {
		return ""
	}

	returns := make([]float64, len(result.Periods))
	wins := 0
	for idx, pr := range result.Periods {
		returns[idx] = pr.PortfolioReturn
		if pr.PortfolioReturn > 0 {
			wins++
		}
	}

	s := &strings.Builder{}
	fmt.Fprintf(s, "Best month:  %.2f%%\n", floats.Max(returns)*100)
	fmt.Fprintf(s, "Worst month: %.2f%%\n", floats.Min(returns)*100)
	fmt.Fprintf(s, "Win rate:    %.1f%% (%d of %d months)\n",
		float64(wins)/float64(len(returns))*100, wins, len(returns))
	return s.String()
}

// HoldingsTable prints one period's portfolio with realized returns
func HoldingsTable(pr *backtest.PeriodResult) string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Rank", "Code", "Name", "Score", "Return"})
	table.SetBorder(false)

	for idx, holding := range pr.Holdings {
		realized := "-"
		if holding.Valid {
			realized = fmt.Sprintf("%.2f%%", holding.Return*100)
		}
		table.Append([]string{
			strconv.Itoa(idx + 1),
			holding.Instrument.Code,
			holding.Instrument.Name,
			fmt.Sprintf("%.2f", holding.Composite),
			realized,
		})
	}

	table.Render()
	return s.String()
}

// ScoreTable prints a ranked momentum table with per-horizon returns
func ScoreTable(records []*momentum.Record, limit int) string {
	if limit > len(records) || limit <= 0 {
		limit = len(records)
	}

	header := []string{"Rank", "Code", "Name"}
	for _, horizon := range momentum.Horizons {
		header = append(header, fmt.Sprintf("%dM", horizon))
	}
	header = append(header, "Score")

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(header)
	table.SetBorder(false)

	for idx, record := range records[:limit] {
		row := []string{strconv.Itoa(idx + 1), record.Instrument.Code, record.Instrument.Name}
		for _, horizon := range momentum.Horizons {
			if ret, ok := record.Return(horizon); ok {
				row = append(row, fmt.Sprintf("%.2f%%", ret*100))
			} else {
				row = append(row, "-")
			}
		}
		row = append(row, fmt.Sprintf("%.2f", record.Composite))
		table.Append(row)
	}

	table.Render()
	return s.String()
}

// PlanTable prints an investment plan's share counts
func PlanTable(plan *portfolio.Plan) string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Code", "Name", "Price", "Shares", "Cost"})
	table.SetBorder(false)

	for _, position := range plan.Positions {
		table.Append([]string{
			position.Instrument.Code,
			position.Instrument.Name,
			fmt.Sprintf("%.2f", position.Price),
			strconv.FormatInt(position.Shares, 10),
			fmt.Sprintf("%.2f", position.Cost),
		})
	}

	table.SetFooter([]string{"Total", "", "", "", fmt.Sprintf("%.2f", plan.TotalCost)})
	table.Render()
	return s.String()
}

// ComparisonChart draws the cumulative return series (in percent) as an
// ascii line chart; when the result carries a benchmark both series are
// plotted together.
func ComparisonChart(result *backtest.Result) string {
	if len(result.Periods) == 0 {
		return "<NO DATA>"
	}

	strategy := make([]float64, len(result.Periods))
	for idx, pr := range result.Periods {
		strategy[idx] = pr.CumulativeReturn * 100
	}

	series := [][]float64{strategy}
	caption := "Cumulative Return (%)"
	if result.Benchmark != nil {
		bench := make([]float64, len(result.Benchmark.Periods))
		for idx, bp := range result.Benchmark.Periods {
			bench[idx] = bp.CumulativeReturn * 100
		}
		series = append(series, bench)
		caption = fmt.Sprintf("Cumulative Return (%%): strategy vs %s", result.Benchmark.Name)
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(15),
		asciigraph.Caption(caption),
	)
}
