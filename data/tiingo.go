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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type tiingo struct {
	apikey string
	client *http.Client
}

type tiingoJSONResponse struct {
	Date        string  `json:"date"`
	Close       float64 `json:"close"`
	AdjClose    float64 `json:"adjClose"`
	DivCash     float64 `json:"divCash"`
	SplitFactor float64 `json:"splitFactor"`
}

var tiingoAPI = "https://api.tiingo.com"

// NewTiingo Create a new Tiingo data provider
func NewTiingo(key string) *tiingo {
	return &tiingo{
		apikey: key,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *tiingo) DataType() string {
	return "tiingo"
}

// GetEOD downloads adjusted close prices for ticker from the tiingo daily prices endpoint
func (t *tiingo) GetEOD(ctx context.Context, ticker string, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tiingo.GetEOD")
	defer span.End()

	subLog := log.With().Str("Ticker", ticker).Time("Begin", begin).Time("End", end).Logger()

	if end.Before(begin) {
		return nil, ErrInvalidTimeRange
	}

	endpoint := fmt.Sprintf("%s/tiingo/daily/%s/prices", tiingoAPI, url.PathEscape(strings.ToLower(ticker)))
	span.SetAttributes(
		attribute.String("Url", endpoint),
		attribute.String("Ticker", ticker),
	)

	query := url.Values{}
	query.Set("startDate", begin.Format(common.DateFormat))
	query.Set("endDate", end.Format(common.DateFormat))
	query.Set("token", t.apikey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		msg := "tiingo http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Str("Url", endpoint).Msg(msg)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		subLog.Warn().Err(err).Int("HTTPResponseStatusCode", resp.StatusCode).Msg("read eod price body failed")
		return nil, err
	}

	if resp.StatusCode >= 400 {
		span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))
		msg := "tiingo returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Int("HTTPResponseStatusCode", resp.StatusCode).Bytes("Body", body).Msg(msg)
		return nil, fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	jsonResp := []tiingoJSONResponse{}
	if err := json.Unmarshal(body, &jsonResp); err != nil {
		span.RecordError(err)
		msg := "could not unmarshal json"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Bytes("Body", body).Msg(msg)
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	if len(jsonResp) == 0 {
		span.SetStatus(codes.Error, "no results returned")
		return nil, ErrNoData
	}

	df := &dataframe.DataFrame{
		Dates:    make([]time.Time, 0, len(jsonResp)),
		ColNames: []string{ticker},
		Vals:     [][]float64{make([]float64, 0, len(jsonResp))},
	}

	for _, quote := range jsonResp {
		dtParts := strings.Split(quote.Date, "T")
		dt, err := time.Parse(common.DateFormat, dtParts[0])
		if err != nil {
			span.RecordError(err)
			subLog.Error().Err(err).Str("DateStr", quote.Date).Msg("cannot parse date string")
			return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
		}
		if df.Len() > 0 && !dt.After(df.End()) {
			subLog.Warn().Time("Date", dt).Msg("skipping out of order quote")
			continue
		}
		df.Dates = append(df.Dates, dt)
		df.Vals[0] = append(df.Vals[0], quote.AdjClose)
	}

	subLog.Debug().Int("NumRows", df.Len()).Msg("loaded eod prices")
	return df, nil
}
