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
	"time"

	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/data/database"
	"github.com/penny-vault/pv-risk/dataframe"
	"github.com/penny-vault/pv-risk/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const eodQuery = "SELECT event_date, adj_close FROM eod WHERE ticker=$1 AND event_date BETWEEN $2 AND $3 AND adj_close IS NOT NULL ORDER BY event_date"

type PvDb struct {
}

// NewPvDb Create a new PVDB data provider
func NewPvDb() *PvDb {
	return &PvDb{}
}

func (p *PvDb) DataType() string {
	return "pvdb"
}

// GetEOD fetches adjusted close prices for ticker from the eod table
func (p *PvDb) GetEOD(ctx context.Context, ticker string, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pvdb.GetEOD")
	defer span.End()

	span.SetAttributes(attribute.String("Ticker", ticker))
	subLog := log.With().Str("Ticker", ticker).Time("Begin", begin).Time("End", end).Logger()

	if end.Before(begin) {
		subLog.Warn().Stack().Msg("end before begin in call to GetEOD")
		return nil, ErrInvalidTimeRange
	}

	trx, err := database.ReadOnlyTrx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load eod prices -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, eodQuery, ticker, begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		subLog.Error().Stack().Err(err).Msg("could not query eod prices")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	df := &dataframe.DataFrame{
		Dates:    make([]time.Time, 0, 504),
		ColNames: []string{ticker},
		Vals:     [][]float64{make([]float64, 0, 504)},
	}

	for rows.Next() {
		var dt time.Time
		var adjClose float64
		if err = rows.Scan(&dt, &adjClose); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not SCAN DB result")
			rows.Close()
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		df.Dates = append(df.Dates, common.TruncateDay(dt))
		df.Vals[0] = append(df.Vals[0], adjClose)
	}

	if err = rows.Err(); err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("eod query read failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if df.Len() == 0 {
		span.SetStatus(codes.Error, "no eod prices found")
		return nil, ErrNoData
	}

	subLog.Debug().Int("NumRows", df.Len()).Msg("loaded eod prices")
	return df, nil
}
