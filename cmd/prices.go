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

	"github.com/penny-vault/pv-risk/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	priceDays    int
	priceReturns bool
)

func init() {
	pricesCmd.Flags().IntVar(&priceDays, "days", 10, "Number of calendar days ending at the as-of date to print")
	pricesCmd.Flags().BoolVar(&priceReturns, "returns", false, "Print daily returns in percent instead of closing prices")

	rootCmd.AddCommand(pricesCmd)
}

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Print the aligned price history the report would be computed from",
	Run: func(cmd *cobra.Command, args []string) {
		shutdown := setup()
		defer shutdown()

		ctx := context.Background()
		manager, err := priceManager(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize price provider")
		}

		cfg, err := fundConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load fund configuration")
		}

		holdings, err := fundHoldings()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load holdings")
		}

		tickers := data.Tickers(holdings)
		if cfg.Benchmark != "" {
			tickers = append(tickers, cfg.Benchmark)
		}

		prices, excluded, err := manager.FetchPrices(ctx, tickers, cfg.Start(), cfg.AsOf)
		if err != nil {
			log.Fatal().Err(err).Msg("could not fetch prices")
		}

		// keep the week before begin so the first printed return has a prior close
		begin := cfg.AsOf.AddDate(0, 0, -priceDays)
		if priceReturns {
			prices = prices.Trim(begin.AddDate(0, 0, -7), cfg.AsOf).PctChange().MulScalar(100)
		}
		fmt.Print(prices.Trim(begin, cfg.AsOf).Table())

		for _, excl := range excluded {
			fmt.Printf("excluded %s: %s %s\n", excl.Ticker, excl.Reason, excl.Detail)
		}
	},
}
