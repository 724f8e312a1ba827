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

package portfolio

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pv-risk/data"
	"github.com/rs/zerolog/log"
)

const (
	RuleKindSector           = "sector"
	RuleKindCountryExclusion = "country-exclusion"
	RuleKindCountry          = "country"

	MaxTopLosers  = 5
	MaxTopGainers = 3
)

// Rule assigns a fractional price shock to a holding
type Rule interface {
	Kind() string
	Impact(holding data.Holding) float64
	Describe() string
}

// SectorRule shocks holdings by sector. Sectors missing from Shocks receive Default.
type SectorRule struct {
	Shocks  map[string]float64
	Default float64
}

func (rule SectorRule) Kind() string { return RuleKindSector }

func (rule SectorRule) Impact(holding data.Holding) float64 {
	if shock, ok := rule.Shocks[holding.Sector]; ok {
		return shock
	}
	return rule.Default
}

func (rule SectorRule) Describe() string {
	parts := describeShocks(rule.Shocks)
	if rule.Default != 0 {
		parts = append(parts, fmt.Sprintf("all other sectors: %+.1f%%", rule.Default*100))
	}
	return strings.Join(parts, ", ")
}

// CountryExclusionRule shocks every holding not domiciled in Country
type CountryExclusionRule struct {
	Country string
	Shock   float64
}

func (rule CountryExclusionRule) Kind() string { return RuleKindCountryExclusion }

func (rule CountryExclusionRule) Impact(holding data.Holding) float64 {
	if holding.Country == rule.Country {
		return 0
	}
	return rule.Shock
}

func (rule CountryExclusionRule) Describe() string {
	return fmt.Sprintf("all countries except %s: %+.1f%%", rule.Country, rule.Shock*100)
}

// CountryRule shocks holdings by country; unlisted countries are unaffected
type CountryRule struct {
	Shocks map[string]float64
}

func (rule CountryRule) Kind() string { return RuleKindCountry }

func (rule CountryRule) Impact(holding data.Holding) float64 {
	return rule.Shocks[holding.Country]
}

func (rule CountryRule) Describe() string {
	return strings.Join(describeShocks(rule.Shocks), ", ")
}

func describeShocks(shocks map[string]float64) []string {
	keys := make([]string, 0, len(shocks))
	for k := range shocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for idx, k := range keys {
		parts[idx] = fmt.Sprintf("%s: %+.1f%%", k, shocks[k]*100)
	}
	return parts
}

type Scenario struct {
	Name string
	Rule Rule
}

// ScenarioImpact is the effect of a scenario on one holding. WeightedImpact is Impact scaled
// by the holding's raw weight as a fraction of the fund.
type ScenarioImpact struct {
	Name           string
	Ticker         string
	Impact         float64
	WeightedImpact float64
}

type ScenarioResult struct {
	Name            string
	PortfolioImpact float64
	Impacts         []ScenarioImpact
	TopLosers       []ScenarioImpact
	TopGainers      []ScenarioImpact
}

// Apply evaluates the scenario holding by holding. TopLosers are the first MaxTopLosers
// impacts in ascending order of weighted impact; TopGainers are up to MaxTopGainers strictly
// positive impacts, largest first. Ties keep holdings order.
func (scenario Scenario) Apply(holdings []data.Holding) ScenarioResult {
	res := ScenarioResult{
		Name:    scenario.Name,
		Impacts: make([]ScenarioImpact, len(holdings)),
	}

	for idx, holding := range holdings {
		impact := scenario.Rule.Impact(holding)
		weighted := impact * holding.Weight / 100
		res.PortfolioImpact += weighted
		res.Impacts[idx] = ScenarioImpact{
			Name:           holding.Name,
			Ticker:         holding.Ticker,
			Impact:         impact,
			WeightedImpact: weighted,
		}
	}

	losers := make([]ScenarioImpact, len(res.Impacts))
	copy(losers, res.Impacts)
	sort.SliceStable(losers, func(i, j int) bool {
		return losers[i].WeightedImpact < losers[j].WeightedImpact
	})
	res.TopLosers = losers[:minInt(MaxTopLosers, len(losers))]

	gainers := make([]ScenarioImpact, 0)
	for _, impact := range res.Impacts {
		if impact.WeightedImpact > 0 {
			gainers = append(gainers, impact)
		}
	}
	sort.SliceStable(gainers, func(i, j int) bool {
		return gainers[i].WeightedImpact > gainers[j].WeightedImpact
	})
	res.TopGainers = gainers[:minInt(MaxTopGainers, len(gainers))]

	return res
}

// RunScenarios applies every scenario to positions, preserving scenario order
func RunScenarios(scenarios []Scenario, positions []Position) []ScenarioResult {
	holdings := make([]data.Holding, len(positions))
	for idx, pos := range positions {
		holdings[idx] = pos.Holding
	}

	res := make([]ScenarioResult, len(scenarios))
	for idx, scenario := range scenarios {
		res[idx] = scenario.Apply(holdings)
	}
	return res
}

// DefaultScenarios are the analyst supplied stress tests of the Global Leaders fund
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name: "Tech Selloff (-20%)",
			Rule: SectorRule{Shocks: map[string]float64{"Technology": -0.20}},
		},
		{
			Name: "Global Recession (-15%)",
			Rule: SectorRule{Shocks: map[string]float64{}, Default: -0.15},
		},
		{
			Name: "Rates +100bps",
			Rule: SectorRule{Shocks: map[string]float64{
				"Technology":             -0.08,
				"Financials":             0.05,
				"Health Care":            -0.03,
				"Industrials":            -0.04,
				"Consumer Discretionary": -0.06,
				"Consumer Staples":       -0.02,
				"Communication Services": -0.05,
			}},
		},
		{
			Name: "GBP Strengthens +10%",
			Rule: CountryExclusionRule{Country: "United Kingdom", Shock: -0.07},
		},
		{
			Name: "EM Crisis",
			Rule: CountryRule{Shocks: map[string]float64{
				"Brazil":    -0.25,
				"India":     -0.20,
				"Indonesia": -0.25,
				"Taiwan":    -0.10,
				"Hong Kong": -0.10,
			}},
		},
	}
}

type scenarioSpec struct {
	Name    string             `toml:"name"`
	Kind    string             `toml:"kind"`
	Shocks  map[string]float64 `toml:"shocks"`
	Default float64            `toml:"default"`
	Country string             `toml:"country"`
	Shock   float64            `toml:"shock"`
}

type scenarioFile struct {
	Scenarios []scenarioSpec `toml:"scenario"`
}

// ParseScenarios decodes a TOML scenario table. Each [[scenario]] has a name and a kind of
// "sector" (shocks, default), "country-exclusion" (country, shock) or "country" (shocks).
func ParseScenarios(contents []byte) ([]Scenario, error) {
	var doc scenarioFile
	if err := toml.Unmarshal(contents, &doc); err != nil {
		return nil, err
	}

	res := make([]Scenario, 0, len(doc.Scenarios))
	seen := make(map[string]bool, len(doc.Scenarios))
	for idx, spec := range doc.Scenarios {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: scenario %d has no name", ErrInvalidScenario, idx)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: duplicate scenario %q", ErrInvalidScenario, spec.Name)
		}
		seen[spec.Name] = true

		var rule Rule
		switch spec.Kind {
		case RuleKindSector:
			shocks := spec.Shocks
			if shocks == nil {
				shocks = map[string]float64{}
			}
			rule = SectorRule{Shocks: shocks, Default: spec.Default}
		case RuleKindCountryExclusion:
			if spec.Country == "" {
				return nil, fmt.Errorf("%w: %q requires a country", ErrInvalidScenario, spec.Name)
			}
			rule = CountryExclusionRule{Country: spec.Country, Shock: spec.Shock}
		case RuleKindCountry:
			rule = CountryRule{Shocks: spec.Shocks}
		default:
			return nil, fmt.Errorf("%w: %q in scenario %q", ErrUnknownRuleKind, spec.Kind, spec.Name)
		}

		res = append(res, Scenario{Name: spec.Name, Rule: rule})
	}

	return res, nil
}

// LoadScenarios reads a TOML scenario table from fn
func LoadScenarios(fn string) ([]Scenario, error) {
	contents, err := os.ReadFile(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not read scenarios file")
		return nil, err
	}

	scenarios, err := ParseScenarios(contents)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not parse scenarios file")
		return nil, err
	}

	log.Debug().Int("NumScenarios", len(scenarios)).Str("FileName", fn).Msg("loaded scenarios")
	return scenarios, nil
}
