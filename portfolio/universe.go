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
	"fmt"
	"math"

	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/rs/zerolog/log"
)

// Position is a holding that survived universe preparation
type Position struct {
	data.Holding

	// NormalizedWeight is the percent weight rescaled so all positions sum to 100
	NormalizedWeight float64
}

// Universe is the analyzed set of holdings and their aligned price table. Column i of Prices
// always belongs to Positions[i]; every downstream weight vector uses the same order.
type Universe struct {
	Positions  []Position
	Prices     *dataframe.DataFrame
	Benchmark  *dataframe.DataFrame
	Exclusions []data.Exclusion
}

// PrepareUniverse aligns the price table and decides which holdings are analyzed. Gaps are
// forward then back filled, constant columns are dropped, and holdings without a price column
// are excluded. The benchmark column, if present and usable, is split into Universe.Benchmark.
// excluded lists tickers that were already dropped upstream; they are carried into
// Universe.Exclusions and not reported twice.
func PrepareUniverse(holdings []data.Holding, prices *dataframe.DataFrame, excluded []data.Exclusion, cfg Config) (*Universe, error) {
	if prices == nil || prices.Len() == 0 || prices.ColCount() == 0 {
		return nil, ErrNoPriceData
	}

	universe := &Universe{
		Exclusions: make([]data.Exclusion, 0, len(excluded)),
	}

	seen := make(map[string]bool, len(excluded))
	for _, excl := range excluded {
		seen[excl.Ticker] = true
		universe.Exclusions = append(universe.Exclusions, excl)
	}

	exclude := func(ticker string, reason data.ExclusionReason, detail string) {
		if seen[ticker] {
			return
		}
		seen[ticker] = true
		log.Warn().Str("Ticker", ticker).Str("Reason", string(reason)).Str("Detail", detail).Msg("ticker excluded")
		universe.Exclusions = append(universe.Exclusions, data.Exclusion{
			Ticker: ticker,
			Reason: reason,
			Detail: detail,
		})
	}

	filled := prices.Fill()

	// constant or empty columns cannot produce meaningful returns
	stdDev := filled.StdDev()
	constant := make([]string, 0)
	for idx, colName := range filled.ColNames {
		if stdDev[idx] > 0 {
			continue
		}
		constant = append(constant, colName)
		if math.IsNaN(stdDev[idx]) {
			exclude(colName, data.ReasonInsufficientData, "no usable prices")
		} else {
			exclude(colName, data.ReasonZeroVariance, "price series is constant")
		}
	}
	filled = filled.DropColumns(constant...)

	if cfg.Benchmark != "" {
		if bench, err := filled.Select(cfg.Benchmark); err == nil {
			universe.Benchmark = bench.Copy()
		} else {
			log.Warn().Str("Benchmark", cfg.Benchmark).Msg("benchmark prices unavailable; factor analysis is degraded")
		}
	}

	tickers := make([]string, 0, len(holdings))
	total := 0.0
	for _, holding := range holdings {
		if filled.ColIndex(holding.Ticker) == -1 {
			exclude(holding.Ticker, data.ReasonMissingData, "no price column for holding")
			continue
		}
		universe.Positions = append(universe.Positions, Position{Holding: holding})
		tickers = append(tickers, holding.Ticker)
		total += holding.Weight
	}

	if len(universe.Positions) < cfg.MinHoldings {
		log.Error().Int("NumHoldings", len(universe.Positions)).Int("MinHoldings", cfg.MinHoldings).Msg("insufficient universe")
		return nil, fmt.Errorf("%w: %d holdings remain, at least %d required", ErrInsufficientUniverse, len(universe.Positions), cfg.MinHoldings)
	}

	if total <= 0 {
		return nil, ErrZeroTotalWeight
	}

	for idx := range universe.Positions {
		universe.Positions[idx].NormalizedWeight = universe.Positions[idx].Weight / total * 100
	}

	selected, err := filled.Select(tickers...)
	if err != nil {
		return nil, err
	}
	universe.Prices = selected.Copy()

	log.Info().Int("NumHoldings", len(universe.Positions)).Int("NumExcluded", len(universe.Exclusions)).Bool("HasBenchmark", universe.Benchmark != nil).Msg("prepared universe")

	return universe, nil
}

// HasBenchmark reports whether factor analysis can run in full
func (universe *Universe) HasBenchmark() bool {
	return universe.Benchmark != nil
}

// Weights returns the normalized weights as fractions summing to 1, in position order
func (universe *Universe) Weights() []float64 {
	w := make([]float64, len(universe.Positions))
	for idx, pos := range universe.Positions {
		w[idx] = pos.NormalizedWeight / 100
	}
	return w
}

// RawWeights returns the unnormalized percent weights, in position order
func (universe *Universe) RawWeights() []float64 {
	w := make([]float64, len(universe.Positions))
	for idx, pos := range universe.Positions {
		w[idx] = pos.Weight
	}
	return w
}

// Tickers returns position tickers in position order
func (universe *Universe) Tickers() []string {
	tickers := make([]string, len(universe.Positions))
	for idx, pos := range universe.Positions {
		tickers[idx] = pos.Ticker
	}
	return tickers
}
