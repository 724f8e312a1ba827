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
	"time"
)

const (
	DefaultPeriodsPerYear        = 252
	DefaultMinHoldings           = 5
	DefaultMinFactorObservations = 50
)

// Config holds every constant the analytics pipeline depends on
type Config struct {
	FundName string
	AsOf     time.Time
	TotalAUM float64

	// CashWeight is the percent of the fund held in cash; it appears as the "Cash" allocation bucket
	CashWeight   float64
	RiskFreeRate float64

	PeriodsPerYear int

	Benchmark     string
	BenchmarkName string

	// MinHoldings is the smallest analyzed universe a report may be built from
	MinHoldings int

	// MinFactorObservations is the number of aligned observations a holding must exceed
	// before its beta is estimated
	MinFactorObservations int

	// Lookback is the length of price history requested ending at AsOf
	Lookback time.Duration

	Scenarios []Scenario
}

// DefaultConfig returns the configuration of the Global Leaders fund
func DefaultConfig() Config {
	return Config{
		FundName:              "Brown Advisory Global Leaders Fund",
		AsOf:                  time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		TotalAUM:              4718893906.29,
		CashWeight:            3.4863,
		RiskFreeRate:          0.045,
		PeriodsPerYear:        DefaultPeriodsPerYear,
		Benchmark:             "URTH",
		BenchmarkName:         "MSCI World (URTH)",
		MinHoldings:           DefaultMinHoldings,
		MinFactorObservations: DefaultMinFactorObservations,
		Lookback:              2 * 365 * 24 * time.Hour,
		Scenarios:             DefaultScenarios(),
	}
}

// Start is the first date of the analysis window
func (cfg Config) Start() time.Time {
	return cfg.AsOf.Add(-cfg.Lookback)
}
