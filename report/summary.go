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
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
)

const (
	chartHeight = 12
	chartWidth  = 72
)

func fmtVal(v *float64, suffix string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%s", *v, suffix)
}

// Summary renders the headline risk numbers, the scenario table and a chart of cumulative
// returns as plain text
func Summary(rep *Report) string {
	s := &strings.Builder{}

	fmt.Fprintf(s, "%s as of %s (%d holdings, %d excluded)\n\n", rep.Metadata.FundName, rep.Metadata.AsOfDate, rep.Metadata.NumHoldings, len(rep.Metadata.Excluded))

	risk := tablewriter.NewWriter(s)
	risk.SetHeader([]string{"Metric", "Value"})
	risk.SetBorder(false)
	risk.SetAlignment(tablewriter.ALIGN_RIGHT)
	risk.AppendBulk([][]string{
		{"Annualised Return", fmtVal(rep.PortfolioRisk.AnnualisedReturnPct, "%")},
		{"Annualised Volatility", fmtVal(rep.PortfolioRisk.AnnualisedVolPct, "%")},
		{"Sharpe Ratio", fmtVal(rep.PortfolioRisk.SharpeRatio, "")},
		{"VaR 95 (daily)", fmtVal(rep.PortfolioRisk.VaR95DailyPct, "%")},
		{"CVaR 95 (daily)", fmtVal(rep.PortfolioRisk.CVaR95DailyPct, "%")},
		{"Max Drawdown", fmtVal(rep.PortfolioRisk.MaxDrawdownPct, "%")},
		{"Portfolio Beta", fmtVal(rep.FactorAnalysis.PortfolioBeta, "")},
		{"Effective N", fmtVal(rep.Concentration.EffectiveN, "")},
		{"Top 10 Weight", fmtVal(rep.Concentration.Top10Weight, "%")},
	})
	risk.Render()
	s.WriteString("\n")

	WriteScenarioResults(s, rep.Scenarios)

	if len(rep.Metadata.Excluded) > 0 {
		s.WriteString("\n")
		excluded := tablewriter.NewWriter(s)
		excluded.SetHeader([]string{"Excluded", "Reason", "Detail"})
		excluded.SetBorder(false)
		for _, excl := range rep.Metadata.Excluded {
			excluded.Append([]string{excl.Ticker, excl.Reason, excl.Detail})
		}
		excluded.Render()
	}

	if chart := CumulativeChart(rep.CumulativeReturns); chart != "" {
		s.WriteString("\n")
		s.WriteString(chart)
		s.WriteString("\n")
	}

	return s.String()
}

// WriteScenarioResults prints one row per scenario sorted by name
func WriteScenarioResults(w io.Writer, results map[string]ScenarioResult) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Impact", "Worst Holding"})
	table.SetBorder(false)
	for _, name := range names {
		result := results[name]
		worst := ""
		if len(result.TopLosers) > 0 {
			worst = fmt.Sprintf("%s (%s)", result.TopLosers[0].Name, fmtVal(result.TopLosers[0].ImpactPct, "%"))
		}
		table.Append([]string{name, fmtVal(result.PortfolioImpactPct, "%"), worst})
	}
	table.Render()
}

// CumulativeChart plots the cumulative portfolio return. Points with no value are skipped. An
// empty string is returned when there is nothing to plot.
func CumulativeChart(points []CumulativePoint) string {
	series := make([]float64, 0, len(points))
	for _, point := range points {
		if point.CumulativeReturn != nil {
			series = append(series, *point.CumulativeReturn)
		}
	}

	if len(series) < 2 {
		return ""
	}

	return asciigraph.Plot(series,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(fmt.Sprintf("Cumulative return (%%) %s to %s", points[0].Date, points[len(points)-1].Date)),
	)
}
