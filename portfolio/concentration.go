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
	"sort"

	"gonum.org/v1/gonum/floats"
)

type Concentration struct {
	HHI         float64
	EffectiveN  float64
	Top5Weight  float64
	Top10Weight float64
}

// Concentrate measures how concentrated the fund is. weights are raw percentages; the
// Herfindahl-Hirschman Index is computed over weight shares (weight/100). EffectiveN is only
// bounded by len(weights) when the weights sum to 100; a partly invested fund reports more
// effective holdings than it has.
func Concentrate(weights []float64) Concentration {
	sorted := make([]float64, len(weights))
	copy(sorted, weights)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	res := Concentration{}
	for _, w := range sorted {
		res.HHI += (w / 100) * (w / 100)
	}

	if res.HHI > 0 {
		res.EffectiveN = 1 / res.HHI
	}

	res.Top5Weight = floats.Sum(sorted[:minInt(5, len(sorted))])
	res.Top10Weight = floats.Sum(sorted[:minInt(10, len(sorted))])

	return res
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
