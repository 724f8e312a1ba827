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
	"fmt"
	"os"

	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/messenger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func bindFlag(key, env, flag string) {
	if env != "" {
		viper.BindEnv(key, env)
	}
	viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
}

func init() {
	// Database
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	bindFlag("database.url", "DATABASE_URL", "database-url")

	// Price data
	rootCmd.PersistentFlags().String("provider", "pvdb", "Price provider, one of: pvdb, tiingo")
	bindFlag("data.provider", "PVRISK_PROVIDER", "provider")

	rootCmd.PersistentFlags().String("tiingo-token", "", "Tiingo API token")
	bindFlag("tiingo.token", "TIINGO_TOKEN", "tiingo-token")

	rootCmd.PersistentFlags().Int("min-observations", 0, "Minimum number of prices a ticker must exceed to be analyzed")
	bindFlag("data.min_observations", "PVRISK_MIN_OBSERVATIONS", "min-observations")

	rootCmd.PersistentFlags().Int("concurrency", 0, "Number of tickers fetched at once")
	bindFlag("data.concurrency", "PVRISK_CONCURRENCY", "concurrency")

	// Cache
	rootCmd.PersistentFlags().Bool("cache", false, "Cache downloaded prices")
	bindFlag("cache.enabled", "PVRISK_CACHE", "cache")

	rootCmd.PersistentFlags().Bool("cache-redis", false, "Share cached prices through redis")
	bindFlag("cache.redis", "PVRISK_CACHE_REDIS", "cache-redis")

	rootCmd.PersistentFlags().String("redis-url", "redis://localhost:6379/0", "Redis connection string")
	bindFlag("cache.redis_url", "REDIS_URL", "redis-url")

	// Fund
	rootCmd.PersistentFlags().String("holdings", "", "TOML file of fund holdings; the built-in fund is used if blank")
	bindFlag("holdings.file", "PVRISK_HOLDINGS", "holdings")

	rootCmd.PersistentFlags().String("scenarios", "", "TOML file of stress scenarios; the built-in scenarios are used if blank")
	bindFlag("scenarios.file", "PVRISK_SCENARIOS", "scenarios")

	rootCmd.PersistentFlags().String("as-of", "", "Analysis date specified as YYYY-MM-DD")
	bindFlag("fund.as_of", "PVRISK_AS_OF", "as-of")

	// Report
	rootCmd.PersistentFlags().StringP("output", "o", "portfolio_data.json", "File to write the report to; a .lz4 suffix compresses it")
	bindFlag("report.output", "PVRISK_OUTPUT", "output")

	// Logging configuration
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	bindFlag("log.level", "PVRISK_LOG_LEVEL", "log-level")

	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	bindFlag("log.report_caller", "PVRISK_LOG_REPORT_CALLER", "log-report-caller")

	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	bindFlag("log.output", "PVRISK_LOG_OUTPUT", "log-output")

	rootCmd.PersistentFlags().Bool("log-pretty", true, "Format logs for humans instead of as json")
	bindFlag("log.pretty", "PVRISK_LOG_PRETTY", "log-pretty")

	rootCmd.PersistentFlags().String("loki-url", "", "Also ship logs to this Grafana Loki server")
	bindFlag("log.loki_url", "PVRISK_LOKI_URL", "loki-url")

	rootCmd.PersistentFlags().String("log-env", "production", "Value of the env label attached to logs shipped to loki")
	bindFlag("log.env", "EXECUTION_ENVIRONMENT", "log-env")

	// Tracing
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OpenTelemetry collector; tracing is disabled if blank")
	bindFlag("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT", "otlp-endpoint")

	rootCmd.PersistentFlags().Bool("otlp-http", false, "Connect to the collector with HTTP instead of gRPC")
	bindFlag("otlp.http", "PVRISK_OTLP_HTTP", "otlp-http")

	// Report notifications
	rootCmd.PersistentFlags().String("nats-server", "", "NATS server to announce generated reports on; disabled if blank")
	bindFlag("nats.server", "NATS_SERVER", "nats-server")

	rootCmd.PersistentFlags().String("nats-credentials", "", "NATS user credentials file")
	bindFlag("nats.credentials", "NATS_CREDENTIALS", "nats-credentials")

	rootCmd.PersistentFlags().String("nats-subject", messenger.DefaultSubject, "Subject report events are published to")
	bindFlag("nats.subject", "PVRISK_NATS_SUBJECT", "nats-subject")

	rootCmd.PersistentFlags().String("nats-requests-subject", "", "Subject on demand generation requests are queued on")
	bindFlag("nats.requests_subject", "PVRISK_NATS_REQUESTS_SUBJECT", "nats-requests-subject")

	rootCmd.PersistentFlags().String("nats-requests-consumer", "pvrisk", "Durable jetstream consumer generation requests are pulled from")
	bindFlag("nats.requests_consumer", "PVRISK_NATS_REQUESTS_CONSUMER", "nats-requests-consumer")
}

var rootCmd = &cobra.Command{
	Use:     "pvrisk",
	Version: common.CurrentVersion.String(),
	Short:   "Portfolio risk analytics for an equity fund",
	Long:    `Compute risk, concentration, factor exposure, stress scenarios and attribution for a fund and publish them as a JSON report.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
