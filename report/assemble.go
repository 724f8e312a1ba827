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

package report

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/portfolio"
	"github.com/rs/zerolog/log"
)

const (
	// MaxLabelLength is the longest holding name used as a correlation matrix label
	MaxLabelLength = 20
)

// Meta describes the run that produced a report
type Meta struct {
	RunID       string
	GeneratedAt time.Time
	Version     string
}

// NewMeta stamps a new run with a random id and the current time
func NewMeta() Meta {
	return Meta{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now(),
		Version:     common.CurrentVersion.String(),
	}
}

// num is the only place a computed value becomes a wire value. Non-finite values become nil
// and finite values are rounded to places decimals.
func num(v float64, places int) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	scale := math.Pow(10, float64(places))
	rounded := math.Round(v*scale) / scale
	return &rounded
}

// raw sanitizes v without rounding it
func raw(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func pct(v float64, places int) *float64 {
	return num(v*100, places)
}

func label(name string) string {
	if utf8.RuneCountInString(name) <= MaxLabelLength {
		return name
	}
	return string([]rune(name)[:MaxLabelLength])
}

// Assemble converts an analysis into the wire report. Percentages are scaled by 100 and every
// value is rounded to the precision the dashboard displays.
func Assemble(analysis *portfolio.Analysis, meta Meta) *Report {
	cfg := analysis.Config
	universe := analysis.Universe

	rep := &Report{
		Metadata: Metadata{
			FundName:     cfg.FundName,
			AsOfDate:     cfg.AsOf.Format(common.DateFormat),
			TotalAUM:     raw(cfg.TotalAUM),
			NumHoldings:  len(universe.Positions),
			CashWeight:   raw(cfg.CashWeight),
			RiskFreeRate: raw(cfg.RiskFreeRate),
			Benchmark:    cfg.Benchmark,
			GeneratedAt:  meta.GeneratedAt.Format(time.RFC3339),
			RunID:        meta.RunID,
			Version:      meta.Version,
			Excluded:     make([]Exclusion, len(universe.Exclusions)),
		},
	}

	for idx, excl := range universe.Exclusions {
		rep.Metadata.Excluded[idx] = Exclusion{
			Ticker: excl.Ticker,
			Reason: string(excl.Reason),
			Detail: excl.Detail,
		}
	}

	rep.Holdings = holdings(analysis)
	rep.PortfolioRisk = PortfolioRisk{
		AnnualisedReturnPct: pct(analysis.Risk.AnnReturn, 2),
		AnnualisedVolPct:    pct(analysis.Risk.AnnVol, 2),
		SharpeRatio:         num(analysis.Risk.Sharpe, 2),
		VaR95DailyPct:       pct(analysis.Risk.VaR95, 2),
		CVaR95DailyPct:      pct(analysis.Risk.CVaR95, 2),
		MaxDrawdownPct:      pct(analysis.Risk.MaxDrawdown, 2),
	}

	rep.Concentration = Concentration{
		HHI:         num(analysis.Concentration.HHI, 4),
		EffectiveN:  num(analysis.Concentration.EffectiveN, 1),
		Top5Weight:  num(analysis.Concentration.Top5Weight, 2),
		Top10Weight: num(analysis.Concentration.Top10Weight, 2),
	}

	rep.SectorAllocation = make([]SectorWeight, len(analysis.SectorAllocation))
	for idx, alloc := range analysis.SectorAllocation {
		rep.SectorAllocation[idx] = SectorWeight{Sector: alloc.Name, Weight: num(alloc.Weight, 2)}
	}

	rep.CountryAllocation = make([]CountryWeight, len(analysis.CountryAllocation))
	for idx, alloc := range analysis.CountryAllocation {
		rep.CountryAllocation[idx] = CountryWeight{Country: alloc.Name, Weight: num(alloc.Weight, 2)}
	}

	rep.CorrelationMatrix = correlation(analysis)
	rep.FactorAnalysis = factor(analysis)
	rep.Scenarios = scenarios(analysis.Scenarios)

	rep.PerformanceAttribution = make([]Contribution, len(analysis.Attribution))
	for idx, attr := range analysis.Attribution {
		rep.PerformanceAttribution[idx] = Contribution{
			Name:            attr.Name,
			Ticker:          attr.Ticker,
			StockReturnPct:  pct(attr.TotalReturn, 2),
			Weight:          raw(attr.Weight),
			ContributionPct: num(attr.Contribution, 4),
		}
	}

	var benchCumulative *dataframe.DataFrame
	if analysis.Factor.Available {
		benchCumulative = analysis.Factor.BenchmarkCumulative
	}
	rep.CumulativeReturns = cumulative(analysis.Risk.Cumulative, benchCumulative)

	log.Debug().Str("RunID", meta.RunID).Int("NumHoldings", rep.Metadata.NumHoldings).Int("NumExcluded", len(rep.Metadata.Excluded)).Msg("assembled report")

	return rep
}

func holdings(analysis *portfolio.Analysis) []Holding {
	universe := analysis.Universe
	totalReturns := make(map[string]float64, len(analysis.Attribution))
	for _, attr := range analysis.Attribution {
		totalReturns[attr.Ticker] = attr.TotalReturn
	}

	res := make([]Holding, len(universe.Positions))
	for idx, pos := range universe.Positions {
		res[idx] = Holding{
			Name:                pos.Name,
			Ticker:              pos.Ticker,
			Weight:              num(pos.Weight, 2),
			Sector:              pos.Sector,
			Country:             pos.Country,
			MarketValue:         raw(pos.MarketValue),
			AnnReturnPct:        pct(analysis.Assets[idx].AnnReturn, 2),
			AnnVolPct:           pct(analysis.Assets[idx].AnnVol, 2),
			RiskContributionPct: num(analysis.Risk.ContributionPct[idx], 2),
			TotalReturnPct:      pct(totalReturns[pos.Ticker], 2),
		}
	}
	return res
}

func correlation(analysis *portfolio.Analysis) CorrelationMatrix {
	positions := analysis.Universe.Positions
	res := CorrelationMatrix{
		Tickers: make([]string, len(positions)),
		Matrix:  make([][]*float64, len(positions)),
	}

	for idx, pos := range positions {
		res.Tickers[idx] = label(pos.Name)
	}

	for ii, row := range portfolio.SymToRows(analysis.Correlation) {
		res.Matrix[ii] = make([]*float64, len(row))
		for jj, val := range row {
			res.Matrix[ii][jj] = num(val, 2)
		}
	}

	return res
}

func factor(analysis *portfolio.Analysis) FactorAnalysis {
	fa := analysis.Factor
	res := FactorAnalysis{
		BenchmarkName:          analysis.Config.BenchmarkName,
		BenchmarkAvailable:     fa.Available,
		BenchmarkReturnPct:     pct(fa.BenchmarkReturn, 2),
		BenchmarkVolPct:        pct(fa.BenchmarkVol, 2),
		PortfolioBeta:          num(fa.WeightedBeta, 2),
		RegressionBeta:         num(fa.RegressionBeta, 2),
		SystematicReturnPct:    pct(fa.Systematic, 2),
		IdiosyncraticReturnPct: pct(fa.Idiosyncratic, 2),
		Holdings:               make([]FactorHolding, len(fa.Holdings)),
	}

	for idx, exposure := range fa.Holdings {
		pos := analysis.Universe.Positions[idx]
		res.Holdings[idx] = FactorHolding{
			Name:                   pos.Name,
			Ticker:                 exposure.Ticker,
			Weight:                 raw(pos.Weight),
			Beta:                   num(exposure.Beta, 2),
			AlphaPct:               pct(exposure.Alpha, 2),
			RSquared:               num(exposure.RSquared, 2),
			SystematicReturnPct:    pct(exposure.Systematic, 2),
			IdiosyncraticReturnPct: pct(exposure.Idiosyncratic, 2),
		}
	}

	return res
}

func scenarioItems(impacts []portfolio.ScenarioImpact) []ScenarioItem {
	res := make([]ScenarioItem, len(impacts))
	for idx, impact := range impacts {
		res[idx] = ScenarioItem{
			Name:              impact.Name,
			ImpactPct:         pct(impact.Impact, 2),
			WeightedImpactPct: pct(impact.WeightedImpact, 4),
		}
	}
	return res
}

func scenarios(results []portfolio.ScenarioResult) map[string]ScenarioResult {
	res := make(map[string]ScenarioResult, len(results))
	for _, result := range results {
		res[result.Name] = ScenarioResult{
			PortfolioImpactPct: pct(result.PortfolioImpact, 2),
			TopLosers:          scenarioItems(result.TopLosers),
			TopGainers:         scenarioItems(result.TopGainers),
		}
	}
	return res
}

// cumulative reports growth as a percent gain on each portfolio date. Benchmark values are
// matched by date; a portfolio date the benchmark does not have gets a null benchmark value.
func cumulative(port *dataframe.DataFrame, bench *dataframe.DataFrame) []CumulativePoint {
	if port == nil {
		return []CumulativePoint{}
	}

	var benchByDate map[string]float64
	if bench != nil {
		benchByDate = make(map[string]float64, bench.Len())
		for idx, dt := range bench.Dates {
			benchByDate[dt.Format(common.DateFormat)] = bench.Vals[0][idx]
		}
	}

	res := make([]CumulativePoint, port.Len())
	for idx, dt := range port.Dates {
		date := dt.Format(common.DateFormat)
		point := CumulativePoint{
			Date:             date,
			CumulativeReturn: pct(port.Vals[0][idx]-1, 2),
		}
		if benchByDate != nil {
			if val, ok := benchByDate[date]; ok {
				point.BenchmarkReturn = pct(val-1, 2)
			}
		}
		res[idx] = point
	}

	return res
}
