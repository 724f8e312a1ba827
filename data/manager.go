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

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultMinObservations = 50
	DefaultConcurrency     = 8
)

// Manager fetches price histories for a set of tickers from a Provider. Tickers that cannot be
// fetched, or that return too little history, are reported as exclusions rather than failing
// the whole request.
type Manager struct {
	provider Provider

	// MinObservations is the number of rows a ticker must exceed to be kept
	MinObservations int
	Concurrency     int
	UseCache        bool
}

type fetchResult struct {
	Ticker    string
	Data      *dataframe.DataFrame
	Exclusion *Exclusion
}

type cachedSeries struct {
	Dates []time.Time `json:"dates"`
	Close []float64   `json:"close"`
}

// NewManager creates a manager for provider configured from viper
func NewManager(provider Provider) *Manager {
	manager := &Manager{
		provider:        provider,
		MinObservations: viper.GetInt("data.min_observations"),
		Concurrency:     viper.GetInt("data.concurrency"),
		UseCache:        viper.GetBool("cache.enabled"),
	}

	if manager.MinObservations <= 0 {
		manager.MinObservations = DefaultMinObservations
	}
	if manager.Concurrency <= 0 {
		manager.Concurrency = DefaultConcurrency
	}

	return manager
}

// DataType names the provider prices are fetched from
func (manager *Manager) DataType() string {
	return manager.provider.DataType()
}

// FetchPrices returns the adjusted close of every ticker that could be fetched, outer joined on
// date, along with the tickers that were dropped. Columns are ordered by ticker. An error is only
// returned when no ticker could be fetched or the date range is invalid.
func (manager *Manager) FetchPrices(ctx context.Context, tickers []string, begin, end time.Time) (*dataframe.DataFrame, []Exclusion, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "manager.FetchPrices")
	defer span.End()

	subLog := log.With().Str("Provider", manager.provider.DataType()).Time("Begin", begin).Time("End", end).Int("NumTickers", len(tickers)).Logger()

	if !begin.Before(end) {
		subLog.Warn().Msg("invalid time range requested")
		return nil, nil, ErrInvalidTimeRange
	}

	results := make(chan fetchResult, len(tickers))
	sem := make(chan struct{}, manager.Concurrency)
	var wg sync.WaitGroup

	for _, ticker := range uniqueTickers(tickers) {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- manager.fetchOne(ctx, ticker, begin, end)
		}(ticker)
	}

	wg.Wait()
	close(results)

	frames := make(dataframe.Map, len(tickers))
	exclusions := make([]Exclusion, 0)
	for res := range results {
		if res.Exclusion != nil {
			exclusions = append(exclusions, *res.Exclusion)
			continue
		}
		frames[res.Ticker] = res.Data
	}

	sort.Slice(exclusions, func(i, j int) bool {
		return exclusions[i].Ticker < exclusions[j].Ticker
	})

	for _, excl := range exclusions {
		subLog.Warn().Str("Ticker", excl.Ticker).Str("Reason", string(excl.Reason)).Str("Detail", excl.Detail).Msg("ticker excluded")
	}

	span.SetAttributes(
		attribute.Int("NumFetched", len(frames)),
		attribute.Int("NumExcluded", len(exclusions)),
	)

	if len(frames) == 0 {
		subLog.Error().Msg("no price data could be fetched")
		return nil, exclusions, ErrNoData
	}

	subLog.Info().Int("NumFetched", len(frames)).Int("NumExcluded", len(exclusions)).Msg("fetched prices")
	return frames.Merge(), exclusions, nil
}

func (manager *Manager) fetchOne(ctx context.Context, ticker string, begin, end time.Time) fetchResult {
	key := manager.cacheKey(ticker, begin, end)

	df, err := manager.fromCache(ctx, key, ticker)
	if err != nil {
		df, err = manager.provider.GetEOD(ctx, ticker, begin, end)
		if err != nil {
			return fetchResult{
				Ticker: ticker,
				Exclusion: &Exclusion{
					Ticker: ticker,
					Reason: ReasonFetchFailed,
					Detail: err.Error(),
				},
			}
		}
		manager.toCache(ctx, key, df)
	}

	if df.Len() <= manager.MinObservations {
		return fetchResult{
			Ticker: ticker,
			Exclusion: &Exclusion{
				Ticker: ticker,
				Reason: ReasonInsufficientData,
				Detail: fmt.Sprintf("%d observations", df.Len()),
			},
		}
	}

	return fetchResult{
		Ticker: ticker,
		Data:   df,
	}
}

// cacheKey is a blake3 digest of everything that identifies a price request
func (manager *Manager) cacheKey(ticker string, begin, end time.Time) string {
	digest := blake3.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", manager.provider.DataType(), ticker, begin.Format(common.DateFormat), end.Format(common.DateFormat))))
	return "eod:" + hex.EncodeToString(digest[:])
}

func (manager *Manager) fromCache(ctx context.Context, key, ticker string) (*dataframe.DataFrame, error) {
	if !manager.UseCache {
		return nil, common.ErrCacheDisabled
	}

	raw, err := common.CacheGet(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			log.Warn().Err(err).Str("Ticker", ticker).Msg("cache lookup failed")
		}
		return nil, err
	}

	var series cachedSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		log.Warn().Err(err).Str("Ticker", ticker).Msg("could not decode cached prices")
		return nil, err
	}

	if len(series.Dates) != len(series.Close) {
		return nil, dataframe.ErrLengthMismatch
	}

	log.Debug().Str("Ticker", ticker).Msg("loaded prices from cache")
	return &dataframe.DataFrame{
		Dates:    series.Dates,
		ColNames: []string{ticker},
		Vals:     [][]float64{series.Close},
	}, nil
}

func (manager *Manager) toCache(ctx context.Context, key string, df *dataframe.DataFrame) {
	if !manager.UseCache {
		return
	}

	raw, err := json.Marshal(cachedSeries{
		Dates: df.Dates,
		Close: df.Vals[0],
	})
	if err != nil {
		log.Warn().Err(err).Str("Ticker", df.ColNames[0]).Msg("could not encode prices for cache")
		return
	}

	if err := common.CacheSet(ctx, key, raw); err != nil {
		log.Warn().Err(err).Str("Ticker", df.ColNames[0]).Msg("could not cache prices")
	}
}

func uniqueTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	res := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if seen[ticker] {
			continue
		}
		seen[ticker] = true
		res = append(res, ticker)
	}
	return res
}
