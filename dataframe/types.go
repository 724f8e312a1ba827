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
	"errors"
	"time"
)

// DataFrame stores a table of values organized by date. Vals is column major and
// Vals[colIdx] always has the same length as Dates, e.g.:
//
//	       MSFT  GOOG
//	Jan-2  1     4
//	Jan-3  2     5
//	Jan-4  3     6
//
//	Vals[0] = {1, 2, 3} (MSFT)
//	Vals[1] = {4, 5, 6} (GOOG)
//
// Column order is significant: every consumer that pairs a column with a weight or a
// matrix row relies on ColNames[i] describing Vals[i]. Use Select to obtain a frame
// whose columns follow a caller supplied order.
type DataFrame struct {
	Dates    []time.Time
	ColNames []string
	Vals     [][]float64
}

var (
	ErrDateIndexNotAligned = errors.New("date index does not align")
	ErrColumnNotFound      = errors.New("column not found")
	ErrLengthMismatch      = errors.New("vector length does not match number of columns")
)
