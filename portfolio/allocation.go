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
)

const CashBucket = "Cash"

// Allocation is the raw weight held in one sector or country
type Allocation struct {
	Name   string
	Weight float64
}

// SectorAllocation sums raw weights by sector, adds the cash bucket, and sorts by weight
// descending
func SectorAllocation(positions []Position, cash float64) []Allocation {
	return allocate(positions, cash, func(pos Position) string { return pos.Sector })
}

// CountryAllocation sums raw weights by country, adds the cash bucket, and sorts by weight
// descending
func CountryAllocation(positions []Position, cash float64) []Allocation {
	return allocate(positions, cash, func(pos Position) string { return pos.Country })
}

// allocate groups in first-seen order so equal weights keep a stable order
func allocate(positions []Position, cash float64, key func(Position) string) []Allocation {
	index := make(map[string]int)
	res := make([]Allocation, 0)

	add := func(name string, weight float64) {
		if idx, ok := index[name]; ok {
			res[idx].Weight += weight
			return
		}
		index[name] = len(res)
		res = append(res, Allocation{Name: name, Weight: weight})
	}

	for _, pos := range positions {
		add(key(pos), pos.Weight)
	}
	add(CashBucket, cash)

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Weight > res[j].Weight
	})

	return res
}
