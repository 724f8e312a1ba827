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
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// observations lays out returns as a rows=dates, columns=tickers matrix
func observations(returns *dataframe.DataFrame) *mat.Dense {
	x := mat.NewDense(returns.Len(), returns.ColCount(), nil)
	for colIdx, col := range returns.Vals {
		x.SetCol(colIdx, col)
	}
	return x
}

func nanSym(n int) *mat.SymDense {
	res := mat.NewSymDense(n, nil)
	for ii := 0; ii < n; ii++ {
		for jj := ii; jj < n; jj++ {
			res.SetSym(ii, jj, math.NaN())
		}
	}
	return res
}

// CovarianceMatrix returns the sample covariance of returns annualized by periods. Row and
// column i belong to returns.ColNames[i].
func CovarianceMatrix(returns *dataframe.DataFrame, periods int) *mat.SymDense {
	if returns.Len() < 2 {
		return nanSym(returns.ColCount())
	}

	cov := mat.NewSymDense(returns.ColCount(), nil)
	stat.CovarianceMatrix(cov, observations(returns), nil)
	cov.ScaleSym(float64(periods), cov)
	return cov
}

// CorrelationMatrix returns the Pearson correlation of returns. Row and column i belong to
// returns.ColNames[i]. A constant column yields NaN entries.
func CorrelationMatrix(returns *dataframe.DataFrame) *mat.SymDense {
	if returns.Len() < 2 {
		return nanSym(returns.ColCount())
	}

	corr := mat.NewSymDense(returns.ColCount(), nil)
	stat.CorrelationMatrix(corr, observations(returns), nil)
	return corr
}

// SymToRows copies a symmetric matrix into nested slices
func SymToRows(m mat.Symmetric) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for ii := 0; ii < n; ii++ {
		rows[ii] = make([]float64, n)
		for jj := 0; jj < n; jj++ {
			rows[ii][jj] = m.At(ii, jj)
		}
	}
	return rows
}
