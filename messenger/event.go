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

package messenger

import (
	"github.com/penny-vault/pv-risk/report"
)

// ReportEvent is published after a report has been written. It carries the headline risk numbers
// so subscribers can alert without reading the report itself.
type ReportEvent struct {
	RunID       string   `json:"run_id"`
	FundName    string   `json:"fund_name"`
	AsOf        string   `json:"as_of_date"`
	GeneratedAt string   `json:"generated_at"`
	Output      string   `json:"output"`
	NumHoldings int      `json:"num_holdings"`
	Excluded    []string `json:"excluded_tickers"`

	AnnualisedVolPct *float64 `json:"annualised_vol_pct"`
	Var95DailyPct    *float64 `json:"var_95_daily_pct"`
	MaxDrawdownPct   *float64 `json:"max_drawdown_pct"`
	PortfolioBeta    *float64 `json:"portfolio_beta"`

	// WorstScenario is the stress scenario with the lowest portfolio impact
	WorstScenario          string   `json:"worst_scenario,omitempty"`
	WorstScenarioImpactPct *float64 `json:"worst_scenario_impact_pct,omitempty"`
}

// NewReportEvent summarizes rep, which was saved to output
func NewReportEvent(rep *report.Report, output string) *ReportEvent {
	event := &ReportEvent{
		RunID:       rep.Metadata.RunID,
		FundName:    rep.Metadata.FundName,
		AsOf:        rep.Metadata.AsOfDate,
		GeneratedAt: rep.Metadata.GeneratedAt,
		Output:      output,
		NumHoldings: rep.Metadata.NumHoldings,
		Excluded:    make([]string, 0, len(rep.Metadata.Excluded)),

		AnnualisedVolPct: rep.PortfolioRisk.AnnualisedVolPct,
		Var95DailyPct:    rep.PortfolioRisk.VaR95DailyPct,
		MaxDrawdownPct:   rep.PortfolioRisk.MaxDrawdownPct,
		PortfolioBeta:    rep.FactorAnalysis.PortfolioBeta,
	}

	for _, excl := range rep.Metadata.Excluded {
		event.Excluded = append(event.Excluded, excl.Ticker)
	}

	for name, scenario := range rep.Scenarios {
		impact := scenario.PortfolioImpactPct
		if impact == nil {
			continue
		}
		if event.WorstScenarioImpactPct == nil || *impact < *event.WorstScenarioImpactPct ||
			(*impact == *event.WorstScenarioImpactPct && name < event.WorstScenario) {
			event.WorstScenario = name
			event.WorstScenarioImpactPct = impact
		}
	}

	return event
}
