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

package data_test

import (
	"context"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hitsz-ids/ht-quant/data"
)

var _ = Describe("Benchmark series tests", func() {
	Context("when building a series", func() {
		It("honors the as-of contract", func() {
			series, err := data.NewSeries("510300", []data.PricePoint{
				{Date: day(2021, time.January, 4), Close: 5.0},
				{Date: day(2021, time.January, 5), Close: 5.1},
				{Date: day(2021, time.January, 8), Close: 5.05},
			})
			Expect(err).To(BeNil())

			price, err := series.AsOf(day(2021, time.January, 6))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(5.1))

			_, err = series.AsOf(day(2021, time.January, 3))
			Expect(err).To(MatchError(data.ErrNoPriceData))
		})

		It("rejects an empty series", func() {
			_, err := data.NewSeries("510300", []data.PricePoint{})
			Expect(err).To(MatchError(data.ErrEmptySeries))
		})

		It("keeps the last record when a date is duplicated", func() {
			series, err := data.NewSeries("510300", []data.PricePoint{
				{Date: day(2021, time.January, 4), Close: 5.0},
				{Date: day(2021, time.January, 4), Close: 5.2},
			})
			Expect(err).To(BeNil())

			price, err := series.AsOf(day(2021, time.January, 4))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(5.2))
		})
	})

	Context("when loading a series from CSV", func() {
		It("parses a date/close file and skips short rows", func() {
			series, err := data.LoadSeriesFromCSV("testdata/benchmark.csv", "510300")
			Expect(err).To(BeNil())
			Expect(series.Name).To(Equal("510300"))
			Expect(series.Begin().Day()).To(Equal(4))
			Expect(series.End().Day()).To(Equal(8))

			// the truncated Jan 6 row contributes nothing
			price, err := series.AsOf(day(2021, time.January, 6))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(5.1))
		})
	})

	Context("when fetching a series over HTTP", func() {
		BeforeEach(func() {
			httpmock.Activate()
		})

		AfterEach(func() {
			httpmock.DeactivateAndReset()
		})

		It("downloads and parses the CSV body", func() {
			httpmock.RegisterResponder("GET", "https://quotes.example.com/510300.csv",
				httpmock.NewStringResponder(200, "date,close\n2021-01-04,5.000\n2021-01-05,5.100\n"))

			series, err := data.FetchSeries(context.Background(), "https://quotes.example.com/510300.csv", "510300")
			Expect(err).To(BeNil())

			price, err := series.AsOf(day(2021, time.January, 5))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(5.1))
		})

		It("fails on an error status", func() {
			httpmock.RegisterResponder("GET", "https://quotes.example.com/510300.csv",
				httpmock.NewStringResponder(404, "not found"))

			_, err := data.FetchSeries(context.Background(), "https://quotes.example.com/510300.csv", "510300")
			Expect(err).ToNot(BeNil())
		})
	})
})
