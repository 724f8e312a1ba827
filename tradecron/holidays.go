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

package tradecron

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/data/database"
	"github.com/rs/zerolog/log"
)

const holidayQuery = "SELECT event_date, early_close, extract(hours from close_time)::int * 100 + extract(minutes from close_time)::int AS close_time FROM market_holidays ORDER BY event_date ASC"

// LoadHolidays reads every exchange holiday from the market_holidays table
func LoadHolidays(ctx context.Context) ([]Holiday, error) {
	trx, err := database.ReadOnlyTrx(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not get database transaction")
		return nil, err
	}

	rows, err := trx.Query(ctx, holidayQuery)
	if err != nil {
		log.Error().Err(err).Msg("could not load market holidays")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	holidays := make([]Holiday, 0, 256)
	for rows.Next() {
		var dt time.Time
		var earlyClose bool
		var closeTime int
		if err := rows.Scan(&dt, &earlyClose, &closeTime); err != nil {
			log.Error().Err(err).Msg("could not scan market holiday")
			rows.Close()
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		holiday := Holiday{Date: dt}
		if earlyClose {
			holiday.EarlyClose = closeTime
		}
		holidays = append(holidays, holiday)
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Err(err).Msg("could not commit transaction")
	}

	log.Debug().Int("NumHolidays", len(holidays)).Msg("loaded market holidays")
	return holidays, nil
}

// ParseHolidays reads holidays written as YYYY-MM-DD for a full closure or YYYY-MM-DD@HHMM for
// an early close
func ParseHolidays(specs []string) ([]Holiday, error) {
	holidays := make([]Holiday, 0, len(specs))
	for _, spec := range specs {
		dateStr, closeStr, early := strings.Cut(strings.TrimSpace(spec), "@")

		dt, err := time.Parse(common.DateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHoliday, spec)
		}

		holiday := Holiday{Date: dt}
		if early {
			closeTime, err := strconv.Atoi(closeStr)
			if err != nil || closeTime <= 0 || closeTime >= 2400 {
				return nil, fmt.Errorf("%w: %q", ErrMalformedHoliday, spec)
			}
			holiday.EarlyClose = closeTime
		}

		holidays = append(holidays, holiday)
	}
	return holidays, nil
}
