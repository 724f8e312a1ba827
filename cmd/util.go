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

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/data/database"
	"github.com/penny-vault/pv-risk/loki"
	"github.com/penny-vault/pv-risk/messenger"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"github.com/penny-vault/pv-risk/portfolio"
	"github.com/penny-vault/pv-risk/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// setup configures logging, the price cache, tracing and report notifications. The returned
// function flushes any buffered spans, log lines and messages and must be called before exit.
func setup() func() {
	var lokiWriter *loki.Writer
	if lokiURL := viper.GetString("log.loki_url"); lokiURL != "" {
		var err error
		lokiWriter, err = loki.New(lokiURL, map[string]string{
			"app": "pvrisk",
			"env": viper.GetString("log.env"),
		}, 0, 0)
		if err != nil {
			common.SetupLogging()
			log.Fatal().Err(err).Str("LokiURL", lokiURL).Msg("could not initialize loki")
		}
		common.SetupLogging(lokiWriter)
	} else {
		common.SetupLogging()
	}
	log.Info().Msg("initialized logging")

	if viper.GetBool("cache.enabled") {
		if err := common.SetupCache(); err != nil {
			log.Fatal().Err(err).Msg("could not initialize cache")
		}
	}

	shutdown, err := opentelemetry.Setup()
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize tracing")
	}

	if messenger.Enabled() {
		if err := messenger.Initialize(); err != nil {
			log.Fatal().Err(err).Msg("could not connect to NATS")
		}
	}

	return func() {
		messenger.Close()
		if err := shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("could not flush traces")
		}
		if lokiWriter != nil {
			log.Logger = log.Output(os.Stderr)
			if err := lokiWriter.Close(); err != nil {
				log.Error().Err(err).Msg("could not flush logs to loki")
			}
		}
	}
}

// saveReport writes rep to the configured output and announces it when NATS is configured
func saveReport(ctx context.Context, rep *report.Report) error {
	output := viper.GetString("report.output")
	if err := report.WriteFile(output, rep); err != nil {
		return err
	}

	if messenger.Enabled() {
		if err := messenger.PublishReport(ctx, messenger.NewReportEvent(rep, output)); err != nil {
			log.Warn().Err(err).Str("RunID", rep.Metadata.RunID).Msg("report saved but event was not published")
		}
	}

	return nil
}

// fundConfig starts from the built-in fund and overrides anything set in the config file,
// environment or flags
func fundConfig() (portfolio.Config, error) {
	cfg := portfolio.DefaultConfig()

	if viper.IsSet("fund.name") {
		cfg.FundName = viper.GetString("fund.name")
	}
	if asOf := viper.GetString("fund.as_of"); asOf != "" {
		dt, err := time.Parse(common.DateFormat, asOf)
		if err != nil {
			return cfg, fmt.Errorf("could not parse fund.as_of %q - expected format 2006-01-02: %w", asOf, err)
		}
		cfg.AsOf = dt
	}
	if viper.IsSet("fund.total_aum") {
		cfg.TotalAUM = viper.GetFloat64("fund.total_aum")
	}
	if viper.IsSet("fund.cash_weight") {
		cfg.CashWeight = viper.GetFloat64("fund.cash_weight")
	}
	if viper.IsSet("fund.risk_free_rate") {
		cfg.RiskFreeRate = viper.GetFloat64("fund.risk_free_rate")
	}
	if viper.IsSet("fund.benchmark") {
		cfg.Benchmark = viper.GetString("fund.benchmark")
	}
	if viper.IsSet("fund.benchmark_name") {
		cfg.BenchmarkName = viper.GetString("fund.benchmark_name")
	}
	if viper.IsSet("fund.lookback_days") {
		cfg.Lookback = time.Duration(viper.GetInt("fund.lookback_days")) * 24 * time.Hour
	}
	if viper.IsSet("analysis.periods_per_year") {
		cfg.PeriodsPerYear = viper.GetInt("analysis.periods_per_year")
	}
	if viper.IsSet("analysis.min_holdings") {
		cfg.MinHoldings = viper.GetInt("analysis.min_holdings")
	}
	if viper.IsSet("analysis.min_factor_observations") {
		cfg.MinFactorObservations = viper.GetInt("analysis.min_factor_observations")
	}

	if fn := viper.GetString("scenarios.file"); fn != "" {
		scenarios, err := portfolio.LoadScenarios(fn)
		if err != nil {
			return cfg, err
		}
		cfg.Scenarios = scenarios
	}

	return cfg, nil
}

func fundHoldings() ([]data.Holding, error) {
	if fn := viper.GetString("holdings.file"); fn != "" {
		return data.LoadHoldings(fn)
	}
	return data.DefaultHoldings(), nil
}

// priceManager builds the configured provider, connecting to the database when needed
func priceManager(ctx context.Context) (*data.Manager, error) {
	provider, err := data.NewProvider(viper.GetString("data.provider"), viper.GetString("tiingo.token"))
	if err != nil {
		return nil, err
	}

	if provider.DataType() == "pvdb" {
		if err := database.Connect(ctx); err != nil {
			return nil, err
		}
	}

	log.Info().Str("Provider", provider.DataType()).Msg("initialized price provider")
	return data.NewManager(provider), nil
}

// buildReport runs one complete generation: load the fund, fetch prices, analyze and assemble.
// A non-zero asOf replaces the configured date.
func buildReport(ctx context.Context, manager *data.Manager, asOf time.Time) (*report.Report, error) {
	meta := report.NewMeta()

	cfg, err := fundConfig()
	if err != nil {
		return nil, err
	}
	if !asOf.IsZero() {
		cfg.AsOf = asOf
	}

	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pvrisk.BuildReport")
	defer span.End()
	span.SetAttributes(opentelemetry.RunAttributes(meta.RunID, cfg.FundName, cfg.AsOf)...)

	subLog := log.With().Str("RunID", meta.RunID).Str("FundName", cfg.FundName).Time("AsOf", cfg.AsOf).Logger()

	holdings, err := fundHoldings()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not load holdings")
		return nil, err
	}

	tickers := data.Tickers(holdings)
	if cfg.Benchmark != "" {
		tickers = append(tickers, cfg.Benchmark)
	}

	subLog.Info().Int("NumTickers", len(tickers)).Time("Begin", cfg.Start()).Msg("fetching prices")
	prices, excluded, err := manager.FetchPrices(ctx, tickers, cfg.Start(), cfg.AsOf)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not fetch prices")
		return nil, err
	}

	analysis, err := portfolio.Analyze(ctx, holdings, prices, excluded, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		return nil, err
	}

	rep := report.Assemble(analysis, meta)
	subLog.Info().Int("NumHoldings", rep.Metadata.NumHoldings).Int("NumExcluded", len(rep.Metadata.Excluded)).Msg("report generated")
	return rep, nil
}
