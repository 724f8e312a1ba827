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

// Report is the JSON document consumed by the risk dashboard. Every numeric field that can be
// undefined is a *float64; nil marshals to null and marks the value as absent.
type Report struct {
	Metadata               Metadata                  `json:"metadata"`
	Holdings               []Holding                 `json:"holdings"`
	PortfolioRisk          PortfolioRisk             `json:"portfolio_risk"`
	Concentration          Concentration             `json:"concentration"`
	SectorAllocation       []SectorWeight            `json:"sector_allocation"`
	CountryAllocation      []CountryWeight           `json:"country_allocation"`
	CorrelationMatrix      CorrelationMatrix         `json:"correlation_matrix"`
	FactorAnalysis         FactorAnalysis            `json:"factor_analysis"`
	Scenarios              map[string]ScenarioResult `json:"scenarios"`
	PerformanceAttribution []Contribution            `json:"performance_attribution"`
	CumulativeReturns      []CumulativePoint         `json:"cumulative_returns"`
}

type Exclusion struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type Metadata struct {
	FundName     string      `json:"fund_name"`
	AsOfDate     string      `json:"as_of_date"`
	TotalAUM     *float64    `json:"total_aum"`
	NumHoldings  int         `json:"num_holdings"`
	CashWeight   *float64    `json:"cash_weight"`
	RiskFreeRate *float64    `json:"risk_free_rate"`
	Benchmark    string      `json:"benchmark"`
	GeneratedAt  string      `json:"generated_at"`
	RunID        string      `json:"run_id"`
	Version      string      `json:"version,omitempty"`
	Excluded     []Exclusion `json:"excluded_tickers"`
}

type Holding struct {
	Name                string   `json:"name"`
	Ticker              string   `json:"ticker"`
	Weight              *float64 `json:"weight"`
	Sector              string   `json:"sector"`
	Country             string   `json:"country"`
	MarketValue         *float64 `json:"market_value"`
	AnnReturnPct        *float64 `json:"ann_return_pct"`
	AnnVolPct           *float64 `json:"ann_vol_pct"`
	RiskContributionPct *float64 `json:"risk_contribution_pct"`
	TotalReturnPct      *float64 `json:"total_return_pct"`
}

type PortfolioRisk struct {
	AnnualisedReturnPct *float64 `json:"annualised_return_pct"`
	AnnualisedVolPct    *float64 `json:"annualised_vol_pct"`
	SharpeRatio         *float64 `json:"sharpe_ratio"`
	VaR95DailyPct       *float64 `json:"var_95_daily_pct"`
	CVaR95DailyPct      *float64 `json:"cvar_95_daily_pct"`
	MaxDrawdownPct      *float64 `json:"max_drawdown_pct"`
}

type Concentration struct {
	HHI         *float64 `json:"hhi"`
	EffectiveN  *float64 `json:"effective_n"`
	Top5Weight  *float64 `json:"top5_weight"`
	Top10Weight *float64 `json:"top10_weight"`
}

type SectorWeight struct {
	Sector string   `json:"sector"`
	Weight *float64 `json:"weight"`
}

type CountryWeight struct {
	Country string   `json:"country"`
	Weight  *float64 `json:"weight"`
}

type CorrelationMatrix struct {
	Tickers []string     `json:"tickers"`
	Matrix  [][]*float64 `json:"matrix"`
}

type FactorHolding struct {
	Name                   string   `json:"name"`
	Ticker                 string   `json:"ticker"`
	Weight                 *float64 `json:"weight"`
	Beta                   *float64 `json:"beta"`
	AlphaPct               *float64 `json:"alpha_pct"`
	RSquared               *float64 `json:"r_squared"`
	SystematicReturnPct    *float64 `json:"systematic_return_pct"`
	IdiosyncraticReturnPct *float64 `json:"idiosyncratic_return_pct"`
}

type FactorAnalysis struct {
	BenchmarkName          string          `json:"benchmark_name"`
	BenchmarkAvailable     bool            `json:"benchmark_available"`
	BenchmarkReturnPct     *float64        `json:"benchmark_return_pct"`
	BenchmarkVolPct        *float64        `json:"benchmark_vol_pct"`
	PortfolioBeta          *float64        `json:"portfolio_beta"`
	RegressionBeta         *float64        `json:"regression_beta"`
	SystematicReturnPct    *float64        `json:"systematic_return_pct"`
	IdiosyncraticReturnPct *float64        `json:"idiosyncratic_return_pct"`
	Holdings               []FactorHolding `json:"holdings"`
}

type ScenarioItem struct {
	Name              string   `json:"name"`
	ImpactPct         *float64 `json:"impact_pct"`
	WeightedImpactPct *float64 `json:"weighted_impact_pct"`
}

type ScenarioResult struct {
	PortfolioImpactPct *float64       `json:"portfolio_impact_pct"`
	TopLosers          []ScenarioItem `json:"top_losers"`
	TopGainers         []ScenarioItem `json:"top_gainers"`
}

type Contribution struct {
	Name            string   `json:"name"`
	Ticker          string   `json:"ticker"`
	StockReturnPct  *float64 `json:"stock_return_pct"`
	Weight          *float64 `json:"weight"`
	ContributionPct *float64 `json:"contribution_pct"`
}

// CumulativePoint is one day of growth of 1 unit. BenchmarkReturn is omitted entirely when the
// report was built without a benchmark.
type CumulativePoint struct {
	Date             string   `json:"date"`
	CumulativeReturn *float64 `json:"cumulative_return"`
	BenchmarkReturn  *float64 `json:"benchmark_return,omitempty"`
}
