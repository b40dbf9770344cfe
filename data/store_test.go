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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hitsz-ids/ht-quant/common"
	"github.com/hitsz-ids/ht-quant/data"
)

func day(year int, month time.Month, dom int) time.Time {
	return time.Date(year, month, dom, 0, 0, 0, 0, common.GetTimezone())
}

func bar(year int, month time.Month, dom int, code string, close float64) *data.Bar {
	return &data.Bar{Date: day(year, month, dom), Code: code, Close: close}
}

var _ = Describe("Store tests", func() {
	var store *data.Store

	BeforeEach(func() {
		var err error
		store, err = data.NewStore([]*data.Bar{
			bar(2021, time.January, 4, "000001", 10.0),
			bar(2021, time.January, 5, "000001", 11.0),
			bar(2021, time.January, 8, "000001", 12.0),
			bar(2021, time.January, 4, "600000", 20.0),
			bar(2021, time.January, 6, "600000", 19.0),
			bar(2021, time.February, 1, "600000", 21.0),
		})
		Expect(err).To(BeNil())
	})

	Context("when querying prices as-of a date", func() {
		It("returns the close on an exact trading day", func() {
			price, err := store.PriceAsOf("000001", day(2021, time.January, 5))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(11.0))
		})

		It("falls back to the most recent earlier close inside a gap", func() {
			price, err := store.PriceAsOf("000001", day(2021, time.January, 7))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(11.0))
		})

		It("never reads a close dated after the query date", func() {
			_, err := store.PriceAsOf("000001", day(2021, time.January, 3))
			Expect(err).To(MatchError(data.ErrNoPriceData))
		})

		It("returns ErrNotFound for an unknown code", func() {
			_, err := store.PriceAsOf("999999", day(2021, time.January, 5))
			Expect(err).To(MatchError(data.ErrNotFound))
		})

		It("treats an intraday timestamp the same as its calendar day", func() {
			morning := time.Date(2021, time.January, 5, 9, 30, 0, 0, common.GetTimezone())
			price, err := store.PriceAsOf("000001", morning)
			Expect(err).To(BeNil())
			Expect(price).To(Equal(11.0))
		})
	})

	Context("when normalizing instrument codes", func() {
		It("zero-pads numeric codes to six characters", func() {
			store, err := data.NewStore([]*data.Bar{
				bar(2021, time.January, 4, "1", 10.0),
			})
			Expect(err).To(BeNil())

			instrument, err := store.Instrument("1")
			Expect(err).To(BeNil())
			Expect(instrument.Code).To(Equal("000001"))

			price, err := store.PriceAsOf("000001", day(2021, time.January, 4))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(10.0))
		})
	})

	Context("when building the store", func() {
		It("rejects an empty dataset", func() {
			_, err := data.NewStore([]*data.Bar{})
			Expect(err).To(MatchError(data.ErrDataLoad))
		})

		It("skips rows with a non-positive close", func() {
			store, err := data.NewStore([]*data.Bar{
				bar(2021, time.January, 4, "000001", 0),
				bar(2021, time.January, 5, "000001", 10.0),
			})
			Expect(err).To(BeNil())

			_, err = store.PriceAsOf("000001", day(2021, time.January, 4))
			Expect(err).To(MatchError(data.ErrNoPriceData))
		})

		It("keeps the last record when a date is duplicated", func() {
			store, err := data.NewStore([]*data.Bar{
				bar(2021, time.January, 4, "000001", 10.0),
				bar(2021, time.January, 4, "000001", 10.5),
			})
			Expect(err).To(BeNil())

			price, err := store.PriceAsOf("000001", day(2021, time.January, 4))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(10.5))
		})

		It("sorts instruments by code", func() {
			instruments := store.Instruments()
			Expect(instruments).To(HaveLen(2))
			Expect(instruments[0].Code).To(Equal("000001"))
			Expect(instruments[1].Code).To(Equal("600000"))
		})
	})

	Context("when resolving trading days", func() {
		It("returns the sorted union of dates across all instruments", func() {
			days := store.TradingDays(day(2021, time.January, 1), day(2021, time.January, 31))
			Expect(days).To(HaveLen(4))
			Expect(days[0].Day()).To(Equal(4))
			Expect(days[1].Day()).To(Equal(5))
			Expect(days[2].Day()).To(Equal(6))
			Expect(days[3].Day()).To(Equal(8))
		})

		It("counts a day shared by several instruments exactly once", func() {
			// same calendar day, carried in different input locations
			store, err := data.NewStore([]*data.Bar{
				bar(2021, time.January, 4, "000001", 10.0),
				{Date: time.Date(2021, time.January, 4, 8, 0, 0, 0, time.UTC), Code: "600000", Close: 20.0},
			})
			Expect(err).To(BeNil())

			days := store.TradingDays(day(2021, time.January, 1), day(2021, time.January, 31))
			Expect(days).To(HaveLen(1))
			Expect(days[0].Day()).To(Equal(4))
		})

		It("finds the first trading day of a month", func() {
			first, err := store.FirstTradingDayOfMonth(2021, time.January)
			Expect(err).To(BeNil())
			Expect(first.Day()).To(Equal(4))
		})

		It("finds the last trading day of a month", func() {
			last, err := store.LastTradingDayOfMonth(2021, time.January)
			Expect(err).To(BeNil())
			Expect(last.Day()).To(Equal(8))
		})

		It("bounds the last trading day by the dataset end", func() {
			last, err := store.LastTradingDayOfMonth(2021, time.February)
			Expect(err).To(BeNil())
			Expect(last.Day()).To(Equal(1))
		})

		It("returns ErrNoTradingDays for a month with no data", func() {
			_, err := store.FirstTradingDayOfMonth(2021, time.March)
			Expect(err).To(MatchError(data.ErrNoTradingDays))
		})

		It("reports the dataset range", func() {
			Expect(store.Begin().Month()).To(Equal(time.January))
			Expect(store.End().Month()).To(Equal(time.February))
		})
	})
})
