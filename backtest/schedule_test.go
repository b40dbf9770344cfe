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

package backtest_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hitsz-ids/ht-quant/backtest"
	"github.com/hitsz-ids/ht-quant/data"
)

var _ = Describe("Schedule tests", func() {
	Context("when parsing year-months", func() {
		It("accepts the YYYY-MM form", func() {
			ym, err := backtest.ParseYearMonth("2021-03")
			Expect(err).To(BeNil())
			Expect(ym.Year).To(Equal(2021))
			Expect(ym.Month).To(Equal(time.March))
			Expect(ym.String()).To(Equal("2021-03"))
		})

		It("rejects malformed input", func() {
			for _, s := range []string{"2021", "2021-13", "2021-00", "03-2021", "garbage"} {
				_, err := backtest.ParseYearMonth(s)
				Expect(err).ToNot(BeNil(), s)
			}
		})
	})

	Context("when enumerating months", func() {
		It("is inclusive of both endpoints and crosses year boundaries", func() {
			begin, _ := backtest.ParseYearMonth("2020-11")
			end, _ := backtest.ParseYearMonth("2021-02")

			months := backtest.MonthsBetween(begin, end)
			Expect(months).To(HaveLen(4))
			Expect(months[0].String()).To(Equal("2020-11"))
			Expect(months[3].String()).To(Equal("2021-02"))
		})

		It("returns a single month when begin equals end", func() {
			begin, _ := backtest.ParseYearMonth("2021-01")
			months := backtest.MonthsBetween(begin, begin)
			Expect(months).To(HaveLen(1))
		})

		It("returns nothing when the range is inverted", func() {
			begin, _ := backtest.ParseYearMonth("2021-02")
			end, _ := backtest.ParseYearMonth("2021-01")
			Expect(backtest.MonthsBetween(begin, end)).To(BeEmpty())
		})
	})

	Context("when resolving months against the dataset", func() {
		It("skips months without trading days", func() {
			store, err := data.NewStore([]*data.Bar{
				bar(2021, time.January, 4, "000001", 10.0),
				bar(2021, time.January, 29, "000001", 10.5),
				// February is absent entirely
				bar(2021, time.March, 1, "000001", 10.7),
			})
			Expect(err).To(BeNil())

			begin, _ := backtest.ParseYearMonth("2021-01")
			end, _ := backtest.ParseYearMonth("2021-03")
			periods := backtest.ResolveSchedule(store, backtest.MonthsBetween(begin, end))

			Expect(periods).To(HaveLen(2))
			Expect(periods[0].YearMonth.String()).To(Equal("2021-01"))
			Expect(periods[0].FirstTradingDay.Day()).To(Equal(4))
			Expect(periods[0].LastTradingDay.Day()).To(Equal(29))
			Expect(periods[1].YearMonth.String()).To(Equal("2021-03"))
		})
	})
})
