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

package data

// Holding is a single line of the fund's holdings list. Weight is the raw percent of the fund;
// weights of all holdings sum to less than 100, the remainder is cash.
type Holding struct {
	Name        string  `toml:"name" json:"name"`
	Ticker      string  `toml:"ticker" json:"ticker"`
	Weight      float64 `toml:"weight" json:"weight"`
	Sector      string  `toml:"sector" json:"sector"`
	Country     string  `toml:"country" json:"country"`
	MarketValue float64 `toml:"market_value" json:"market_value"`
}

type ExclusionReason string

const (
	ReasonFetchFailed      ExclusionReason = "fetch-failed"
	ReasonInsufficientData ExclusionReason = "insufficient-data"
	ReasonZeroVariance     ExclusionReason = "zero-variance"
	ReasonMissingData      ExclusionReason = "missing-holding-data"
)

// Exclusion records a ticker that was removed from the analyzed set and why
type Exclusion struct {
	Ticker string          `json:"ticker"`
	Reason ExclusionReason `json:"reason"`
	Detail string          `json:"detail,omitempty"`
}

// Tickers returns the ticker of every holding, in holdings order
func Tickers(holdings []Holding) []string {
	tickers := make([]string, len(holdings))
	for idx, h := range holdings {
		tickers[idx] = h.Ticker
	}
	return tickers
}
