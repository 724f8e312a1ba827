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
	"time"

	"github.com/penny-vault/pv-risk/dataframe"
	"gonum.org/v1/gonum/stat"
)

const FallbackBeta = 1.0

// FactorExposure is a holding's single factor decomposition against the benchmark.
// Systematic is Beta times the benchmark's annualized return; Idiosyncratic is the alpha.
type FactorExposure struct {
	Ticker        string
	Beta          float64
	Alpha         float64
	RSquared      float64
	Systematic    float64
	Idiosyncratic float64
	Observations  int

	// Estimated is false when the holding had too few aligned observations and neutral values
	// were used
	Estimated bool
}

type FactorAnalysis struct {
	// Available is false when no benchmark series could be used; all values are then neutral
	Available bool

	BenchmarkReturn float64
	BenchmarkVol    float64

	// WeightedBeta is Σ beta × normalized weight
	WeightedBeta float64

	// RegressionBeta is the beta of the daily portfolio return series itself
	RegressionBeta float64

	Systematic    float64
	Idiosyncratic float64

	Holdings []FactorExposure

	// BenchmarkCumulative is the running product of (1 + benchmark daily return)
	BenchmarkCumulative *dataframe.DataFrame
}

// align inner joins two date indexed series, skipping any date where either value is NaN
func align(datesX []time.Time, x []float64, datesY []time.Time, y []float64) (ax, ay []float64) {
	ax = make([]float64, 0, len(x))
	ay = make([]float64, 0, len(y))
	ii, jj := 0, 0
	for ii < len(datesX) && jj < len(datesY) {
		switch {
		case datesX[ii].Before(datesY[jj]):
			ii++
		case datesY[jj].Before(datesX[ii]):
			jj++
		default:
			if !math.IsNaN(x[ii]) && !math.IsNaN(y[jj]) {
				ax = append(ax, x[ii])
				ay = append(ay, y[jj])
			}
			ii++
			jj++
		}
	}
	return ax, ay
}

// Beta is the sample covariance of asset and bench over the population variance of bench,
// FallbackBeta when the benchmark has no variance
func Beta(asset, bench []float64) float64 {
	variance := stat.PopVariance(bench, nil)
	if !(variance > 0) {
		return FallbackBeta
	}
	return stat.Covariance(asset, bench, nil) / variance
}

// RSquared is the share of the asset's variance about its mean explained by a line of slope
// beta through the means; 0 when the asset has no variance
func RSquared(asset, bench []float64, beta float64) float64 {
	meanA := stat.Mean(asset, nil)
	intercept := meanA - beta*stat.Mean(bench, nil)

	ssRes := 0.0
	ssTot := 0.0
	for ii := range asset {
		resid := asset[ii] - beta*bench[ii] - intercept
		ssRes += resid * resid
		dev := asset[ii] - meanA
		ssTot += dev * dev
	}

	if ssTot > 0 {
		return 1 - ssRes/ssTot
	}
	return 0
}

// FactorDecomposition regresses each position's returns on the benchmark returns. assets must
// be in position order. With a nil benchmark the neutral decomposition is returned.
func FactorDecomposition(universe *Universe, returns *dataframe.DataFrame, assets []AssetStats, benchReturns *dataframe.DataFrame, daily *dataframe.DataFrame, portReturn float64, cfg Config) *FactorAnalysis {
	res := &FactorAnalysis{
		WeightedBeta:   FallbackBeta,
		RegressionBeta: FallbackBeta,
		Holdings:       make([]FactorExposure, len(universe.Positions)),
	}

	for idx, pos := range universe.Positions {
		res.Holdings[idx] = FactorExposure{
			Ticker: pos.Ticker,
			Beta:   FallbackBeta,
		}
	}

	if benchReturns == nil || benchReturns.Len() < 2 {
		return res
	}

	res.Available = true
	bench := benchReturns.Vals[0]
	res.BenchmarkReturn = AnnualizedReturn(bench, cfg.PeriodsPerYear)
	res.BenchmarkVol = AnnualizedVolatility(bench, cfg.PeriodsPerYear)
	res.BenchmarkCumulative = benchReturns.AddScalar(1).CumProd()

	px, pb := align(daily.Dates, daily.Vals[0], benchReturns.Dates, bench)
	if len(px) > 1 {
		res.RegressionBeta = Beta(px, pb)
	}

	res.WeightedBeta = 0
	for idx, pos := range universe.Positions {
		exposure := &res.Holdings[idx]
		ax, ab := align(returns.Dates, returns.Vals[idx], benchReturns.Dates, bench)
		exposure.Observations = len(ax)

		if len(ax) > cfg.MinFactorObservations {
			exposure.Estimated = true
			exposure.Beta = Beta(ax, ab)
			exposure.Alpha = assets[idx].AnnReturn - exposure.Beta*res.BenchmarkReturn
			exposure.RSquared = RSquared(ax, ab, exposure.Beta)
			exposure.Systematic = exposure.Beta * res.BenchmarkReturn
			exposure.Idiosyncratic = exposure.Alpha
		}

		res.WeightedBeta += exposure.Beta * pos.NormalizedWeight / 100
	}

	res.Systematic = res.WeightedBeta * res.BenchmarkReturn
	res.Idiosyncratic = portReturn - res.Systematic

	return res
}
