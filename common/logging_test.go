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

package common_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hitsz-ids/ht-quant/common"
)

var _ = Describe("Timezone tests", func() {
	Context("when loading the exchange timezone", func() {
		It("returns the Shanghai zone", func() {
			Expect(common.GetTimezone().String()).To(Equal("Asia/Shanghai"))
		})

		It("shares one Location across calls", func() {
			Expect(common.GetTimezone()).To(BeIdenticalTo(common.GetTimezone()))
		})

		It("produces times that compare equal as map keys", func() {
			a := time.Date(2021, time.January, 4, 15, 0, 0, 0, common.GetTimezone())
			b := time.Date(2021, time.January, 4, 15, 0, 0, 0, common.GetTimezone())

			seen := map[time.Time]struct{}{a: {}}
			seen[b] = struct{}{}
			Expect(seen).To(HaveLen(1))
		})
	})
})
