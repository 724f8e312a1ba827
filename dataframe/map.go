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
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Map holds one dataframe per key, typically one single-column price series per ticker
type Map map[string]*DataFrame

// Keys returns the keys of the map in sorted order
func (dfMap Map) Keys() []string {
	keys := make([]string, 0, len(dfMap))
	for k := range dfMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge outer joins every dataframe in the map on the union of their dates. Dates are sorted
// ascending and values missing from a given dataframe are NaN. Columns are ordered by map key
// and then by their order in the source dataframe. If the same date appears more than once in a
// source dataframe the last value wins.
func (dfMap Map) Merge() *DataFrame {
	dateSet := make(map[int64]time.Time)
	for _, df := range dfMap {
		for _, date := range df.Dates {
			dateSet[date.UnixNano()] = date
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, date := range dateSet {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rowIdx := make(map[int64]int, len(dates))
	for idx, date := range dates {
		rowIdx[date.UnixNano()] = idx
	}

	merged := &DataFrame{
		Dates:    dates,
		ColNames: []string{},
		Vals:     [][]float64{},
	}

	seen := make(map[string]bool)
	for _, key := range dfMap.Keys() {
		df := dfMap[key]
		for colIdx, colName := range df.ColNames {
			if seen[colName] {
				log.Warn().Str("Key", key).Str("Column", colName).Msg("duplicate column name while merging dataframes; skipping")
				continue
			}
			seen[colName] = true

			col := make([]float64, len(dates))
			for ii := range col {
				col[ii] = math.NaN()
			}
			for ii, date := range df.Dates {
				col[rowIdx[date.UnixNano()]] = df.Vals[colIdx][ii]
			}

			merged.ColNames = append(merged.ColNames, colName)
			merged.Vals = append(merged.Vals, col)
		}
	}

	return merged
}
