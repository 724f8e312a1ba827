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
	"math"
	"sort"

	"github.com/penny-vault/pv-risk/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	PortfolioColumn = "PORTFOLIO"
	VaRPercentile   = 5.0
)

// RiskSummary is the portfolio level risk picture
type RiskSummary struct {
	AnnReturn   float64
	AnnVol      float64
	Variance    float64
	Sharpe      float64
	VaR95       float64
	CVaR95      float64
	MaxDrawdown float64

	// Cumulative is the running product of (1 + daily return)
	Cumulative *dataframe.DataFrame

	MarginalContribution  []float64
	ComponentContribution []float64
	ContributionPct       []float64
}

// PortfolioVariance computes wᵗCw. Round off can push a variance of a perfectly hedged
// portfolio slightly below zero; it is clamped at 0.
func PortfolioVariance(w []float64, cov mat.Symmetric) float64 {
	wv := mat.NewVecDense(len(w), w)
	variance := mat.Inner(wv, cov, wv)
	if variance < 0 {
		return 0
	}
	return variance
}

// SharpeRatio is the excess return per unit of volatility, 0 when volatility is 0
func SharpeRatio(ret, riskFree, vol float64) float64 {
	if vol > 0 {
		return (ret - riskFree) / vol
	}
	return 0
}

// Percentile returns the p-th percentile of x interpolating linearly between the two closest
// ranks, (n-1)*p/100 being the fractional rank.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	rank := float64(len(sorted)-1) * p / 100
	lower := math.Floor(rank)
	upper := math.Ceil(rank)
	lo := sorted[int(lower)]
	hi := sorted[int(upper)]
	return lo + (hi-lo)*(rank-lower)
}

// ConditionalVaR is the mean of all returns at or below threshold, or threshold itself when
// no return qualifies
func ConditionalVaR(x []float64, threshold float64) float64 {
	tail := make([]float64, 0, len(x)/10+1)
	for _, xx := range x {
		if xx <= threshold {
			tail = append(tail, xx)
		}
	}
	if len(tail) == 0 {
		return threshold
	}
	return stat.Mean(tail, nil)
}

// MaxDrawdown returns the most negative (level - running max) / running max of a cumulative
// value curve, 0 for an empty or monotonically increasing curve
func MaxDrawdown(levels []float64) float64 {
	maxDrawdown := 0.0
	peak := math.Inf(-1)
	for _, level := range levels {
		if level > peak {
			peak = level
		}
		drawdown := (level - peak) / peak
		if drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// RiskContributions decomposes portfolio volatility into per-asset parts. marginal is Cw/σ,
// component is w×marginal and pct is each component as a percent of their sum. marginal is
// all zero when the variance is 0 and pct is all zero when the component sum is not positive.
func RiskContributions(w []float64, cov mat.Symmetric) (marginal, component, pct []float64) {
	n := len(w)
	marginal = make([]float64, n)
	component = make([]float64, n)
	pct = make([]float64, n)

	variance := PortfolioVariance(w, cov)
	if variance > 0 {
		var cw mat.VecDense
		cw.MulVec(cov, mat.NewVecDense(n, w))
		vol := math.Sqrt(variance)
		for ii := 0; ii < n; ii++ {
			marginal[ii] = cw.AtVec(ii) / vol
		}
	}

	floats.MulTo(component, w, marginal)

	total := floats.Sum(component)
	if total > 0 {
		floats.ScaleTo(pct, 100/total, component)
	}

	return marginal, component, pct
}

// PortfolioRisk aggregates per-asset returns and the covariance matrix into portfolio risk.
// w are the normalized weights as fractions in the same order as the rows of cov, the entries
// of annReturns and the columns the daily series was built from.
func PortfolioRisk(w []float64, annReturns []float64, cov mat.Symmetric, daily *dataframe.DataFrame, cfg Config) *RiskSummary {
	summary := &RiskSummary{
		AnnReturn: floats.Dot(w, annReturns),
		Variance:  PortfolioVariance(w, cov),
	}

	summary.AnnVol = math.Sqrt(summary.Variance)
	summary.Sharpe = SharpeRatio(summary.AnnReturn, cfg.RiskFreeRate, summary.AnnVol)

	series := daily.Vals[0]
	summary.VaR95 = Percentile(series, VaRPercentile)
	summary.CVaR95 = ConditionalVaR(series, summary.VaR95)

	summary.Cumulative = daily.AddScalar(1).CumProd()
	summary.MaxDrawdown = MaxDrawdown(summary.Cumulative.Vals[0])

	summary.MarginalContribution, summary.ComponentContribution, summary.ContributionPct = RiskContributions(w, cov)

	return summary
}

// DailyReturns is the weighted sum of per-asset returns on each date
func DailyReturns(returns *dataframe.DataFrame, w []float64) *dataframe.DataFrame {
	return returns.Dot(PortfolioColumn, w)
}
