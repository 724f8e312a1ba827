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

package portfolio_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/portfolio"
)

var _ = Describe("Universe", func() {
	var cfg portfolio.Config

	BeforeEach(func() {
		cfg = testConfig()
	})

	It("splits the benchmark and keeps holdings order", func() {
		universe, err := portfolio.PrepareUniverse(sampleHoldings(), samplePrices(), nil, cfg)
		Expect(err).To(BeNil())
		Expect(universe.HasBenchmark()).To(BeTrue())
		Expect(universe.Benchmark.ColNames).To(Equal([]string{"BENCH"}))
		Expect(universe.Prices.ColNames).To(Equal([]string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"}))
		Expect(universe.Tickers()).To(Equal(universe.Prices.ColNames))
		Expect(universe.Exclusions).To(BeEmpty())
	})

	DescribeTable("normalized weights always sum to 100",
		func(drop []string) {
			prices := samplePrices().DropColumns(drop...)
			universe, err := portfolio.PrepareUniverse(sampleHoldings(), prices, nil, cfg)
			Expect(err).To(BeNil())

			total := 0.0
			for _, w := range universe.Weights() {
				total += w
			}
			Expect(total).To(BeNumerically("~", 1, 1e-12))
			Expect(universe.Positions).To(HaveLen(6 - len(drop)))
			Expect(universe.Exclusions).To(HaveLen(len(drop)))
		},
		Entry("no drops", []string{}),
		Entry("one drop", []string{"AAA"}),
		Entry("smallest holding dropped", []string{"FFF"}),
	)

	It("excludes constant price series before normalizing", func() {
		cfg.MinHoldings = 1
		n := 80
		flat := constant(n, 0)
		prices := pricesFrame([]string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"}, wave(n, 0.01, 7, 0, 0), flat, flat, flat, flat, flat)

		universe, err := portfolio.PrepareUniverse(sampleHoldings(), prices, nil, cfg)
		Expect(err).To(BeNil())
		Expect(universe.Positions).To(HaveLen(1))
		Expect(universe.Positions[0].Ticker).To(Equal("AAA"))
		Expect(universe.Positions[0].NormalizedWeight).To(BeNumerically("~", 100, 1e-12))
		Expect(universe.Prices.ColNames).To(Equal([]string{"AAA"}))

		Expect(universe.Exclusions).To(HaveLen(5))
		for _, excl := range universe.Exclusions {
			Expect(excl.Reason).To(Equal(data.ReasonZeroVariance))
		}
		Expect(universe.HasBenchmark()).To(BeFalse())
	})

	It("fails when fewer than the minimum holdings remain", func() {
		prices := samplePrices().DropColumns("AAA", "BBB")
		universe, err := portfolio.PrepareUniverse(sampleHoldings(), prices, nil, cfg)
		Expect(errors.Is(err, portfolio.ErrInsufficientUniverse)).To(BeTrue())
		Expect(universe).To(BeNil())
	})

	It("fills gaps in the price table", func() {
		prices := samplePrices()
		prices.Vals[1][10] = math.NaN()
		prices.Vals[2][0] = math.NaN()

		universe, err := portfolio.PrepareUniverse(sampleHoldings(), prices, nil, cfg)
		Expect(err).To(BeNil())
		Expect(universe.Prices.Vals[1][10]).To(Equal(prices.Vals[1][9]))
		Expect(universe.Prices.Vals[2][0]).To(Equal(prices.Vals[2][1]))
	})

	It("reports holdings without prices once", func() {
		holdings := append(sampleHoldings(), holding("GGG", 1, "Energy", "Norway"), holding("HHH", 1, "Energy", "Norway"))
		excluded := []data.Exclusion{{Ticker: "GGG", Reason: data.ReasonFetchFailed, Detail: "timeout"}}

		universe, err := portfolio.PrepareUniverse(holdings, samplePrices(), excluded, cfg)
		Expect(err).To(BeNil())
		Expect(universe.Exclusions).To(Equal([]data.Exclusion{
			{Ticker: "GGG", Reason: data.ReasonFetchFailed, Detail: "timeout"},
			{Ticker: "HHH", Reason: data.ReasonMissingData, Detail: "no price column for holding"},
		}))
	})

	It("errors on an empty price table", func() {
		_, err := portfolio.PrepareUniverse(sampleHoldings(), nil, nil, cfg)
		Expect(errors.Is(err, portfolio.ErrNoPriceData)).To(BeTrue())
	})
})
