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

	"github.com/hitsz-ids/ht-quant/data"
)

var _ = Describe("CSV dataset tests", func() {
	Context("when loading an exchange export with Chinese headers", func() {
		It("maps the aliased columns and loads every row", func() {
			store, err := data.LoadStoreFromCSV("testdata/eod_cn.csv")
			Expect(err).To(BeNil())

			instruments := store.Instruments()
			Expect(instruments).To(HaveLen(2))
			Expect(instruments[0].Code).To(Equal("000001"))
			Expect(instruments[0].Name).To(Equal("平安银行"))

			price, err := store.PriceAsOf("600000", day(2021, time.January, 5))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(19.80))
		})
	})

	Context("when loading a re-export with English headers", func() {
		It("accepts every supported date format and skips malformed rows", func() {
			store, err := data.LoadStoreFromCSV("testdata/eod_en.csv")
			Expect(err).To(BeNil())

			// 5 data rows, 2 unparseable
			days := store.TradingDays(day(2021, time.January, 1), day(2021, time.January, 31))
			Expect(days).To(HaveLen(3))

			price, err := store.PriceAsOf("000001", day(2021, time.January, 7))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(10.70))
		})
	})

	Context("when rows are shorter than the header", func() {
		It("skips short rows instead of failing the load", func() {
			store, err := data.LoadStoreFromCSV("testdata/eod_short_row.csv")
			Expect(err).To(BeNil())

			days := store.TradingDays(day(2021, time.January, 1), day(2021, time.January, 31))
			Expect(days).To(HaveLen(2))

			price, err := store.PriceAsOf("000001", day(2021, time.January, 7))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(10.70))
		})
	})

	Context("when the dataset is unusable", func() {
		It("fails when a required column is missing", func() {
			_, err := data.LoadStoreFromCSV("testdata/eod_missing_close.csv")
			Expect(err).To(MatchError(data.ErrMissingColumn))
		})

		It("fails when the file does not exist", func() {
			_, err := data.LoadStoreFromCSV("testdata/does_not_exist.csv")
			Expect(err).To(MatchError(data.ErrDataLoad))
		})
	})
})
