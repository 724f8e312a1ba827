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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/portfolio"
)

var _ = Describe("Concentration", func() {
	It("computes HHI over weight shares", func() {
		res := portfolio.Concentrate([]float64{50, 50})
		Expect(res.HHI).To(BeNumerically("~", 0.5, 1e-12))
		Expect(res.EffectiveN).To(BeNumerically("~", 2, 1e-12))
	})

	It("sums the largest weights", func() {
		res := portfolio.Concentrate([]float64{1, 9, 2, 8, 3, 7, 4, 6, 5, 10, 11, 0.5})
		Expect(res.Top5Weight).To(BeNumerically("~", 11+10+9+8+7, 1e-12))
		Expect(res.Top10Weight).To(BeNumerically("~", 11+10+9+8+7+6+5+4+3+2, 1e-12))
	})

	It("handles fewer than five holdings", func() {
		res := portfolio.Concentrate([]float64{30, 20})
		Expect(res.Top5Weight).To(Equal(50.0))
		Expect(res.Top10Weight).To(Equal(50.0))
	})

	It("keeps the effective count within the number of holdings when weights sum to 100", func() {
		res := portfolio.Concentrate([]float64{40, 30, 20, 10})
		Expect(res.HHI).To(BeNumerically("~", 0.3, 1e-12))
		Expect(res.EffectiveN).To(BeNumerically("<=", 4))
	})

	It("measures raw weights without renormalizing a partly invested fund", func() {
		res := portfolio.Concentrate([]float64{10, 10, 10, 10, 10})
		Expect(res.HHI).To(BeNumerically("~", 0.05, 1e-12))
		Expect(res.EffectiveN).To(BeNumerically("~", 20, 1e-9))
		Expect(res.Top5Weight).To(BeNumerically("~", 50, 1e-12))
	})

	It("keeps HHI in (0, 1] for the default fund", func() {
		raw := make([]float64, 0)
		for _, h := range data.DefaultHoldings() {
			raw = append(raw, h.Weight)
		}
		res := portfolio.Concentrate(raw)
		Expect(res.HHI).To(BeNumerically(">", 0))
		Expect(res.HHI).To(BeNumerically("<=", 1))
		Expect(res.EffectiveN).To(BeNumerically("~", 1/res.HHI, 1e-9))
		Expect(res.EffectiveN).To(BeNumerically("<=", len(raw)))
	})

	It("reports an effective count of 0 when there is no weight", func() {
		res := portfolio.Concentrate([]float64{0, 0})
		Expect(res.HHI).To(Equal(0.0))
		Expect(res.EffectiveN).To(Equal(0.0))
	})
})

var _ = Describe("Allocation", func() {
	var positions []portfolio.Position

	BeforeEach(func() {
		positions = make([]portfolio.Position, 0)
		for _, h := range sampleHoldings() {
			positions = append(positions, portfolio.Position{Holding: h})
		}
	})

	It("groups sectors and includes cash", func() {
		alloc := portfolio.SectorAllocation(positions, 5)
		Expect(alloc).To(Equal([]portfolio.Allocation{
			{Name: "Technology", Weight: 14},
			{Name: "Financials", Weight: 8},
			{Name: "Health Care", Weight: 6},
			{Name: "Industrials", Weight: 5},
			{Name: "Cash", Weight: 5},
			{Name: "Consumer Staples", Weight: 3},
		}))
	})

	It("groups countries and sorts by weight", func() {
		alloc := portfolio.CountryAllocation(positions, 64)
		Expect(alloc[0]).To(Equal(portfolio.Allocation{Name: "Cash", Weight: 64}))
		Expect(alloc[1]).To(Equal(portfolio.Allocation{Name: "United Kingdom", Weight: 11}))
		Expect(alloc[2]).To(Equal(portfolio.Allocation{Name: "United States", Weight: 10}))
		Expect(alloc).To(HaveLen(6))
	})
})

var _ = Describe("Attribution", func() {
	It("computes total return from the first and last prices", func() {
		Expect(portfolio.TotalReturn([]float64{100, 90, 110})).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("is 0 with fewer than two prices", func() {
		Expect(portfolio.TotalReturn([]float64{100})).To(Equal(0.0))
		Expect(portfolio.TotalReturn(nil)).To(Equal(0.0))
	})

	It("ranks contributions descending", func() {
		positions := []portfolio.Position{
			{Holding: holding("AAA", 10, "Technology", "United States")},
			{Holding: holding("BBB", 5, "Financials", "United States")},
			{Holding: holding("CCC", 2, "Financials", "United States")},
		}
		prices := pricesFrame([]string{"AAA", "BBB", "CCC"},
			[]float64{0.1, -0.2},
			[]float64{0.5, 0.2},
			[]float64{-0.5, 0},
		)

		attribution := portfolio.Attribute(positions, prices)
		Expect(attribution[0].Ticker).To(Equal("BBB"))
		Expect(attribution[0].TotalReturn).To(BeNumerically("~", 0.8, 1e-12))
		Expect(attribution[0].Contribution).To(BeNumerically("~", 4.0, 1e-12))
		Expect(attribution[1].Ticker).To(Equal("CCC"))
		Expect(attribution[1].Contribution).To(BeNumerically("~", -1.0, 1e-12))
		Expect(attribution[2].Ticker).To(Equal("AAA"))
		Expect(attribution[2].Contribution).To(BeNumerically("~", -1.2, 1e-12))
	})
})
