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
)

// Attribution is a holding's share of fund return. Contribution is in percentage points:
// total return times raw percent weight.
type Attribution struct {
	Name         string
	Ticker       string
	Weight       float64
	TotalReturn  float64
	Contribution float64
}

// TotalReturn is last / first - 1 over the non-NaN prices, 0 with fewer than two prices
func TotalReturn(prices []float64) float64 {
	first := math.NaN()
	last := math.NaN()
	n := 0
	for _, p := range prices {
		if math.IsNaN(p) {
			continue
		}
		if n == 0 {
			first = p
		}
		last = p
		n++
	}

	if n < 2 {
		return 0
	}
	return last/first - 1
}

// Attribute computes each position's return contribution over the full price history,
// ranked by contribution descending. prices columns must be in position order.
func Attribute(positions []Position, prices *dataframe.DataFrame) []Attribution {
	res := make([]Attribution, len(positions))
	for idx, pos := range positions {
		total := TotalReturn(prices.Vals[idx])
		res[idx] = Attribution{
			Name:         pos.Name,
			Ticker:       pos.Ticker,
			Weight:       pos.Weight,
			TotalReturn:  total,
			Contribution: total * pos.Weight,
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Contribution > res[j].Contribution
	})

	return res
}
