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

package reports_test

import (
	"encoding/csv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hitsz-ids/ht-quant/backtest"
	"github.com/hitsz-ids/ht-quant/common"
	"github.com/hitsz-ids/ht-quant/data"
	"github.com/hitsz-ids/ht-quant/reports"
)

func sampleResult() *backtest.Result {
	tz := common.GetTimezone()
	return &backtest.Result{
		TopK: 2,
		Periods: []*backtest.PeriodResult{
			{
				Year:                 2021,
				Month:                time.January,
				RebalanceDate:        time.Date(2021, time.January, 4, 15, 0, 0, 0, tz),
				PortfolioReturn:      0.0392857,
				CumulativeReturn:     0.0392857,
				ValidInstrumentCount: 2,
				Holdings: []*backtest.HoldingResult{
					{Instrument: &data.Instrument{Code: "000001", Name: "平安银行"}, Composite: 100.0, Return: 0.05, Valid: true},
					{Instrument: &data.Instrument{Code: "000003", Name: "测试"}, Composite: 66.67},
				},
			},
		},
		FinalCumulativeReturn: 0.0392857,
	}
}

var _ = Describe("Report tests", func() {
	Context("when writing the summary CSV", func() {
		It("emits one row per period plus a header", func() {
			s := &strings.Builder{}
			Expect(reports.WriteSummaryCSV(s, sampleResult())).To(BeNil())

			rows, err := csv.NewReader(strings.NewReader(s.String())).ReadAll()
			Expect(err).To(BeNil())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0][0]).To(Equal("year"))
			Expect(rows[1][0]).To(Equal("2021"))
			Expect(rows[1][1]).To(Equal("01"))
			Expect(rows[1][2]).To(Equal("2021-01-04"))
		})
	})

	Context("when writing the detail CSV", func() {
		It("leaves the realized return blank for excluded holdings", func() {
			s := &strings.Builder{}
			Expect(reports.WriteDetailCSV(s, sampleResult())).To(BeNil())

			rows, err := csv.NewReader(strings.NewReader(s.String())).ReadAll()
			Expect(err).To(BeNil())
			Expect(rows).To(HaveLen(3))
			Expect(rows[1][3]).To(Equal("000001"))
			Expect(rows[1][6]).ToNot(BeEmpty())
			Expect(rows[2][3]).To(Equal("000003"))
			Expect(rows[2][6]).To(BeEmpty())
		})
	})

	Context("when rendering terminal output", func() {
		It("includes every period in the summary table", func() {
			rendered := reports.SummaryTable(sampleResult())
			Expect(rendered).To(ContainSubstring("2021-01"))
			Expect(rendered).To(ContainSubstring("3.93%"))
		})

		It("plots the cumulative return chart", func() {
			result := sampleResult()
			result.Periods = append(result.Periods, &backtest.PeriodResult{
				Year: 2021, Month: time.February, CumulativeReturn: 0.06,
			})
			Expect(reports.ComparisonChart(result)).ToNot(BeEmpty())
		})

		It("summarizes best and worst months with the win rate", func() {
			result := sampleResult()
			result.Periods = append(result.Periods, &backtest.PeriodResult{
				Year: 2021, Month: time.February, PortfolioReturn: -0.012,
			})

			stats := reports.StatsSummary(result)
			Expect(stats).To(ContainSubstring("Best month:  3.93%"))
			Expect(stats).To(ContainSubstring("Worst month: -1.20%"))
			Expect(stats).To(ContainSubstring("50.0% (1 of 2 months)"))
		})

		It("degrades gracefully with no periods", func() {
			Expect(reports.ComparisonChart(&backtest.Result{})).To(Equal("<NO DATA>"))
			Expect(reports.StatsSummary(&backtest.Result{})).To(BeEmpty())
		})
	})
})
