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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/portfolio"
)

func scenarioByName(name string) portfolio.Scenario {
	for _, scenario := range portfolio.DefaultScenarios() {
		if scenario.Name == name {
			return scenario
		}
	}
	Fail("scenario not found: " + name)
	return portfolio.Scenario{}
}

var _ = Describe("Scenarios", func() {
	Describe("EM Crisis", func() {
		It("shocks a Brazilian holding by -25% of its weight", func() {
			res := scenarioByName("EM Crisis").Apply([]data.Holding{holding("B3SA3.SA", 2.227, "Financials", "Brazil")})
			Expect(res.Impacts[0].Impact).To(Equal(-0.25))
			Expect(res.Impacts[0].WeightedImpact).To(BeNumerically("~", -0.25*2.227/100, 1e-15))
		})

		It("leaves countries outside the shock table untouched", func() {
			res := scenarioByName("EM Crisis").Apply([]data.Holding{holding("SAF.PA", 2.8791, "Industrials", "France")})
			Expect(res.Impacts[0].Impact).To(Equal(0.0))
			Expect(res.Impacts[0].WeightedImpact).To(Equal(0.0))
			Expect(res.PortfolioImpact).To(Equal(0.0))
		})
	})

	Describe("GBP Strengthens +10%", func() {
		It("shocks non UK holdings", func() {
			res := scenarioByName("GBP Strengthens +10%").Apply([]data.Holding{holding("MSFT", 5.0, "Technology", "United States")})
			Expect(res.Impacts[0].Impact).To(Equal(-0.07))
			Expect(res.Impacts[0].WeightedImpact).To(BeNumerically("~", -0.0035, 1e-15))
		})

		It("does not shock UK holdings", func() {
			res := scenarioByName("GBP Strengthens +10%").Apply([]data.Holding{holding("LSEG.L", 5.0, "Financials", "United Kingdom")})
			Expect(res.Impacts[0].Impact).To(Equal(0.0))
		})
	})

	Describe("Global Recession", func() {
		It("shocks every sector", func() {
			res := scenarioByName("Global Recession (-15%)").Apply(sampleHoldings())
			for _, impact := range res.Impacts {
				Expect(impact.Impact).To(Equal(-0.15))
			}
			Expect(res.PortfolioImpact).To(BeNumerically("~", -0.15*36/100, 1e-12))
		})
	})

	Describe("ranking", func() {
		It("orders losers and gainers", func() {
			res := scenarioByName("Rates +100bps").Apply(sampleHoldings())

			Expect(res.TopLosers).To(HaveLen(5))
			Expect(res.TopLosers[0].Ticker).To(Equal("AAA"))
			for ii := 1; ii < len(res.TopLosers); ii++ {
				Expect(res.TopLosers[ii].WeightedImpact).To(BeNumerically(">=", res.TopLosers[ii-1].WeightedImpact))
			}

			Expect(res.TopGainers).To(HaveLen(1))
			Expect(res.TopGainers[0].Ticker).To(Equal("BBB"))
			Expect(res.TopGainers[0].WeightedImpact).To(BeNumerically("~", 0.05*8/100, 1e-15))
		})

		It("has no gainers when every shock is negative", func() {
			res := scenarioByName("Tech Selloff (-20%)").Apply(sampleHoldings())
			Expect(res.TopGainers).To(BeEmpty())
			Expect(res.PortfolioImpact).To(BeNumerically("~", -0.2*14/100, 1e-12))
		})
	})

	It("runs scenarios in order over positions", func() {
		positions := make([]portfolio.Position, 0)
		for _, h := range sampleHoldings() {
			positions = append(positions, portfolio.Position{Holding: h, NormalizedWeight: h.Weight / 36 * 100})
		}
		results := portfolio.RunScenarios(portfolio.DefaultScenarios(), positions)
		Expect(results).To(HaveLen(5))
		Expect(results[0].Name).To(Equal("Tech Selloff (-20%)"))
		Expect(results[4].Name).To(Equal("EM Crisis"))
	})

	Describe("when parsing a scenario table", func() {
		It("builds every rule kind", func() {
			scenarios, err := portfolio.ParseScenarios([]byte(`
[[scenario]]
name = "Oil Shock"
kind = "sector"
default = -0.02
[scenario.shocks]
Energy = 0.15
"Consumer Discretionary" = -0.06

[[scenario]]
name = "USD Strengthens"
kind = "country-exclusion"
country = "United States"
shock = -0.05

[[scenario]]
name = "Europe Crisis"
kind = "country"
[scenario.shocks]
Germany = -0.12
France = -0.10
`))
			Expect(err).To(BeNil())
			Expect(scenarios).To(HaveLen(3))

			Expect(scenarios[0].Rule).To(Equal(portfolio.SectorRule{
				Shocks:  map[string]float64{"Energy": 0.15, "Consumer Discretionary": -0.06},
				Default: -0.02,
			}))
			Expect(scenarios[1].Rule).To(Equal(portfolio.CountryExclusionRule{Country: "United States", Shock: -0.05}))
			Expect(scenarios[2].Rule.Impact(holding("SAP", 1, "Technology", "Germany"))).To(Equal(-0.12))
			Expect(scenarios[0].Rule.Impact(holding("XOM", 1, "Energy", "United States"))).To(Equal(0.15))
			Expect(scenarios[0].Rule.Impact(holding("MSFT", 1, "Technology", "United States"))).To(Equal(-0.02))
		})

		It("rejects an unknown rule kind", func() {
			_, err := portfolio.ParseScenarios([]byte("[[scenario]]\nname = \"X\"\nkind = \"weather\"\n"))
			Expect(errors.Is(err, portfolio.ErrUnknownRuleKind)).To(BeTrue())
		})

		It("rejects duplicate and unnamed scenarios", func() {
			_, err := portfolio.ParseScenarios([]byte("[[scenario]]\nkind = \"sector\"\n"))
			Expect(errors.Is(err, portfolio.ErrInvalidScenario)).To(BeTrue())

			_, err = portfolio.ParseScenarios([]byte("[[scenario]]\nname = \"A\"\nkind = \"sector\"\n[[scenario]]\nname = \"A\"\nkind = \"sector\"\n"))
			Expect(errors.Is(err, portfolio.ErrInvalidScenario)).To(BeTrue())
		})
	})

	It("describes rules for display", func() {
		Expect(portfolio.CountryExclusionRule{Country: "United Kingdom", Shock: -0.07}.Describe()).To(Equal("all countries except United Kingdom: -7.0%"))
		Expect(portfolio.SectorRule{Shocks: map[string]float64{"Technology": -0.2}}.Describe()).To(Equal("Technology: -20.0%"))
	})
})
