// Copyright 2021-2023
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
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-risk/data"
)

var _ = Describe("Holdings", func() {
	It("loads the built-in holdings list", func() {
		holdings := data.DefaultHoldings()
		Expect(holdings).To(HaveLen(31))
		Expect(holdings[0].Ticker).To(Equal("MSFT"))
		Expect(holdings[0].Weight).To(Equal(8.5463))
		Expect(holdings[0].Sector).To(Equal("Technology"))
		Expect(holdings[0].Country).To(Equal("United States"))
		Expect(holdings[30].Ticker).To(Equal("EFX"))

		total := 0.0
		for _, h := range holdings {
			total += h.Weight
		}
		Expect(total).To(BeNumerically("<", 100))
		Expect(total).To(BeNumerically("~", 96.3201, 1e-9))
	})

	It("preserves holdings order in Tickers", func() {
		tickers := data.Tickers(data.DefaultHoldings())
		Expect(tickers[:3]).To(Equal([]string{"MSFT", "GOOG", "LSEG.L"}))
	})

	It("loads a holdings file", func() {
		dir, err := os.MkdirTemp("", "holdings")
		Expect(err).To(BeNil())
		DeferCleanup(os.RemoveAll, dir)
		fn := filepath.Join(dir, "holdings.toml")
		Expect(os.WriteFile(fn, []byte(`
[[holding]]
name = "Alpha"
ticker = "AAA"
weight = 10.5
sector = "Technology"
country = "United Kingdom"
market_value = 1000.0
`), 0o600)).To(Succeed())

		holdings, err := data.LoadHoldings(fn)
		Expect(err).To(BeNil())
		Expect(holdings).To(Equal([]data.Holding{{
			Name:        "Alpha",
			Ticker:      "AAA",
			Weight:      10.5,
			Sector:      "Technology",
			Country:     "United Kingdom",
			MarketValue: 1000.0,
		}}))
	})

	It("rejects duplicate tickers", func() {
		_, err := data.ParseHoldings([]byte(`
[[holding]]
ticker = "AAA"
weight = 1.0
[[holding]]
ticker = "AAA"
weight = 2.0
`))
		Expect(errors.Is(err, data.ErrDuplicateHolding)).To(BeTrue())
	})

	It("rejects negative weights and missing tickers", func() {
		_, err := data.ParseHoldings([]byte("[[holding]]\nticker = \"AAA\"\nweight = -1.0\n"))
		Expect(errors.Is(err, data.ErrInvalidHolding)).To(BeTrue())

		_, err = data.ParseHoldings([]byte("[[holding]]\nweight = 1.0\n"))
		Expect(errors.Is(err, data.ErrInvalidHolding)).To(BeTrue())
	})

	It("errors on a missing file", func() {
		_, err := data.LoadHoldings("does-not-exist.toml")
		Expect(err).NotTo(BeNil())
	})
})
