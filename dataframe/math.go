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

package dataframe

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.AddConst(scalar, df.Vals[colIdx])
	}
	return df
}

// CumProd computes the running product of each column and returns a new dataframe
func (df *DataFrame) CumProd() *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.CumProd(df.Vals[colIdx], df.Vals[colIdx])
	}
	return df
}

// Dot computes the weighted sum of each row, ∑ vec[col] * df[row][col], and returns a new
// dataframe with a single column named `name`. vec must be ordered like df.ColNames;
// panics if the lengths differ.
func (df *DataFrame) Dot(name string, vec []float64) *DataFrame {
	if len(vec) != df.ColCount() {
		log.Panic().Err(ErrLengthMismatch).Int("VecLen", len(vec)).Int("NumColumns", df.ColCount()).Msg("cannot compute row dot product")
	}

	res := make([]float64, df.Len())
	for colIdx, col := range df.Vals {
		floats.AddScaled(res, vec[colIdx], col)
	}

	return &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{name},
		Vals:     [][]float64{res},
	}
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.Scale(scalar, df.Vals[colIdx])
	}
	return df
}

// PctChange computes the single period fractional change (v[t] / v[t-1]) - 1 of every
// column. The first row has no prior value and is dropped, so the result has Len()-1 rows.
func (df *DataFrame) PctChange() *DataFrame {
	res := &DataFrame{
		ColNames: append([]string{}, df.ColNames...),
		Vals:     make([][]float64, len(df.ColNames)),
	}

	if df.Len() < 2 {
		res.Dates = nil
		for colIdx := range res.Vals {
			res.Vals[colIdx] = []float64{}
		}
		return res
	}

	res.Dates = df.Dates[1:]
	for colIdx, col := range df.Vals {
		pct := make([]float64, len(col)-1)
		for rowIdx := 1; rowIdx < len(col); rowIdx++ {
			pct[rowIdx-1] = col[rowIdx]/col[rowIdx-1] - 1
		}
		res.Vals[colIdx] = pct
	}

	return res
}

// StdDev returns the sample standard deviation of each column, ordered like ColNames.
// Columns with fewer than two values yield NaN.
func (df *DataFrame) StdDev() []float64 {
	res := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		if len(col) < 2 {
			res[colIdx] = math.NaN()
			continue
		}
		res[colIdx] = stat.StdDev(col, nil)
	}
	return res
}
