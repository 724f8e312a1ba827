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
	"context"
	"sync"

	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Analysis is every computed table of a single run. All fields are read only once Analyze
// returns. Slices indexed by position follow Universe.Positions.
type Analysis struct {
	Config   Config
	Universe *Universe

	Returns      *dataframe.DataFrame
	BenchReturns *dataframe.DataFrame
	Daily        *dataframe.DataFrame
	Assets       []AssetStats
	Covariance   *mat.SymDense
	Correlation  *mat.SymDense

	Risk              *RiskSummary
	Concentration     Concentration
	SectorAllocation  []Allocation
	CountryAllocation []Allocation
	Factor            *FactorAnalysis
	Scenarios         []ScenarioResult
	Attribution       []Attribution
}

// Analyze runs the full analytics pipeline. Returns, statistics and the covariance model are
// computed first; the risk, concentration, factor, scenario and attribution stages only read
// those tables and run concurrently.
func Analyze(ctx context.Context, holdings []data.Holding, prices *dataframe.DataFrame, excluded []data.Exclusion, cfg Config) (*Analysis, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "portfolio.Analyze")
	defer span.End()

	universe, err := PrepareUniverse(holdings, prices, excluded, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "universe preparation failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("NumHoldings", len(universe.Positions)),
		attribute.Int("NumExcluded", len(universe.Exclusions)),
		attribute.Bool("HasBenchmark", universe.HasBenchmark()),
	)

	analysis := &Analysis{
		Config:   cfg,
		Universe: universe,
	}

	analysis.Returns = Returns(universe.Prices)
	if universe.HasBenchmark() {
		analysis.BenchReturns = Returns(universe.Benchmark)
	}

	w := universe.Weights()
	analysis.Assets = AnnualizedStats(analysis.Returns, cfg.PeriodsPerYear)
	annReturns := make([]float64, len(analysis.Assets))
	for idx, asset := range analysis.Assets {
		annReturns[idx] = asset.AnnReturn
	}

	analysis.Covariance = CovarianceMatrix(analysis.Returns, cfg.PeriodsPerYear)
	analysis.Correlation = CorrelationMatrix(analysis.Returns)
	analysis.Daily = DailyReturns(analysis.Returns, w)

	var wg sync.WaitGroup
	stage := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, stageSpan := otel.Tracer(opentelemetry.Name).Start(ctx, name)
			defer stageSpan.End()
			fn()
			log.Debug().Str("Stage", name).Msg("analytics stage complete")
		}()
	}

	stage("portfolio.Risk", func() {
		analysis.Risk = PortfolioRisk(w, annReturns, analysis.Covariance, analysis.Daily, cfg)
	})

	stage("portfolio.Concentration", func() {
		analysis.Concentration = Concentrate(universe.RawWeights())
		analysis.SectorAllocation = SectorAllocation(universe.Positions, cfg.CashWeight)
		analysis.CountryAllocation = CountryAllocation(universe.Positions, cfg.CashWeight)
	})

	stage("portfolio.Factor", func() {
		portReturn := floats.Dot(w, annReturns)
		analysis.Factor = FactorDecomposition(universe, analysis.Returns, analysis.Assets, analysis.BenchReturns, analysis.Daily, portReturn, cfg)
	})

	stage("portfolio.Scenarios", func() {
		analysis.Scenarios = RunScenarios(cfg.Scenarios, universe.Positions)
	})

	stage("portfolio.Attribution", func() {
		analysis.Attribution = Attribute(universe.Positions, universe.Prices)
	})

	wg.Wait()

	log.Info().
		Int("NumHoldings", len(universe.Positions)).
		Float64("AnnReturn", analysis.Risk.AnnReturn).
		Float64("AnnVol", analysis.Risk.AnnVol).
		Float64("Sharpe", analysis.Risk.Sharpe).
		Msg("portfolio analysis complete")

	return analysis, nil
}
