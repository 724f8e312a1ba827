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

	"github.com/penny-vault/pv-risk/dataframe"
	"gonum.org/v1/gonum/stat"
)

// AssetStats are the annualized statistics of a single holding's daily returns
type AssetStats struct {
	Ticker    string
	AnnReturn float64
	AnnVol    float64
}

// Returns converts a price table into single-period fractional returns. The first row has no
// prior price and is dropped, as is any row that still contains NaN.
func Returns(prices *dataframe.DataFrame) *dataframe.DataFrame {
	return prices.PctChange().Drop(math.NaN())
}

// AnnualizedReturn geometrically compounds the mean period return over periods per year
func AnnualizedReturn(returns []float64, periods int) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}
	return math.Pow(1+stat.Mean(returns, nil), float64(periods)) - 1
}

// AnnualizedVolatility scales the sample standard deviation of period returns by the square
// root of periods per year
func AnnualizedVolatility(returns []float64, periods int) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	return stat.StdDev(returns, nil) * math.Sqrt(float64(periods))
}

// AnnualizedStats computes AssetStats for every column of returns, in column order
func AnnualizedStats(returns *dataframe.DataFrame, periods int) []AssetStats {
	res := make([]AssetStats, returns.ColCount())
	for idx, colName := range returns.ColNames {
		res[idx] = AssetStats{
			Ticker:    colName,
			AnnReturn: AnnualizedReturn(returns.Vals[idx], periods),
			AnnVol:    AnnualizedVolatility(returns.Vals[idx], periods),
		}
	}
	return res
}
