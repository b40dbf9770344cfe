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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/hitsz-ids/ht-quant/data"
	"github.com/hitsz-ids/ht-quant/database"
)

var _ = Describe("PgDb tests", func() {
	var (
		dbPool pgxmock.PgxConnIface
		pgdb   *data.PgDb
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)
		pgdb = data.NewPgDb()
		ctx = context.Background()
	})

	Context("when loading eod bars", func() {
		It("builds a store from the query results", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectQuery("SELECT event_date, code, name, close FROM eod").
				WithArgs(day(2021, time.January, 4), day(2021, time.January, 5)).
				WillReturnRows(pgxmock.NewRows([]string{"event_date", "code", "name", "close"}).
					AddRow(day(2021, time.January, 4), "000001", "平安银行", 10.0).
					AddRow(day(2021, time.January, 5), "000001", "平安银行", 10.5).
					AddRow(day(2021, time.January, 4), "600000", "浦发银行", 20.0))
			dbPool.ExpectCommit()

			store, err := pgdb.LoadStore(ctx, day(2021, time.January, 4), day(2021, time.January, 5))
			Expect(err).To(BeNil())
			Expect(store.Instruments()).To(HaveLen(2))

			price, err := store.PriceAsOf("000001", day(2021, time.January, 5))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(10.5))

			Expect(dbPool.ExpectationsWereMet()).To(BeNil())
		})

		It("fails when the range is empty", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectQuery("SELECT event_date, code, name, close FROM eod").
				WithArgs(day(2021, time.January, 4), day(2021, time.January, 5)).
				WillReturnRows(pgxmock.NewRows([]string{"event_date", "code", "name", "close"}))
			dbPool.ExpectCommit()

			_, err := pgdb.LoadStore(ctx, day(2021, time.January, 4), day(2021, time.January, 5))
			Expect(err).To(MatchError(data.ErrDataLoad))
		})

		It("rejects an inverted time range", func() {
			_, err := pgdb.LoadStore(ctx, day(2021, time.January, 5), day(2021, time.January, 4))
			Expect(err).To(MatchError(data.ErrInvalidTimeRange))
		})
	})

	Context("when loading a benchmark series", func() {
		It("builds a series from the query results", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectQuery("SELECT event_date, close FROM benchmark_eod").
				WithArgs("510300", day(2021, time.January, 4), day(2021, time.January, 8)).
				WillReturnRows(pgxmock.NewRows([]string{"event_date", "close"}).
					AddRow(day(2021, time.January, 4), 5.0).
					AddRow(day(2021, time.January, 8), 5.05))
			dbPool.ExpectCommit()

			series, err := pgdb.LoadBenchmark(ctx, "510300", day(2021, time.January, 4), day(2021, time.January, 8))
			Expect(err).To(BeNil())

			price, err := series.AsOf(day(2021, time.January, 6))
			Expect(err).To(BeNil())
			Expect(price).To(Equal(5.0))

			Expect(dbPool.ExpectationsWereMet()).To(BeNil())
		})
	})
})
