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
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	AtOpen       = "@open"
	AtClose      = "@close"
	AtWeekBegin  = "@weekbegin"
	AtWeekEnd    = "@weekend"
	AtMonthBegin = "@monthbegin"
	AtMonthEnd   = "@monthend"
)

// maxIterations bounds the search for the next activation; a year of five minute ticks that
// are all outside market hours fits comfortably
const maxIterations = 150_000

// TradeCron is a market aware schedule. It satisfies cron.Schedule so it can be handed
// directly to a robfig/cron scheduler.
type TradeCron struct {
	ScheduleString string
	TimeSpec       string
	TimeFlag       string
	DateFlag       string

	schedule cron.Schedule
	calendar *Calendar
}

// New parses a schedule in the standard CRON format of:
// Minutes(Min) Hours(H) DayOfMonth(DoM) Month(M) DayOfWeek(DoW)
//
// Without a time modifier the schedule only fires while the market is open. Trailing fields
// may be omitted and default to '*'.
//
// Market aware modifiers:
//
//	@open       - minute and hour are an offset from the open, e.g. "@open 15" is 9:45
//	@close      - minute and hour are an offset from the close, e.g. "@close 30" is 16:30
//	@weekbegin  - only the first trading day of the week
//	@weekend    - only the last trading day of the week
//	@monthbegin - only the first trading day of the month
//	@monthend   - only the last trading day of the month
//
// At most one time modifier and one date modifier may be given.
func New(cronSpec string, cal *Calendar) (*TradeCron, error) {
	specParser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	tokens := strings.Fields(cronSpec)
	if len(tokens) == 0 {
		return nil, ErrMalformedTimeSpec
	}
	tokens = expandBriefFormat(tokens)

	tc := &TradeCron{
		ScheduleString: cronSpec,
		calendar:       cal,
	}

	timeSpecTokens := make([]string, 0, 5)
	for _, token := range tokens {
		if !strings.HasPrefix(token, "@") {
			timeSpecTokens = append(timeSpecTokens, token)
			continue
		}

		switch token {
		case AtOpen, AtClose:
			if tc.TimeFlag != "" {
				return nil, ErrConflictingModifiers
			}
			tc.TimeFlag = token
		case AtWeekBegin, AtWeekEnd, AtMonthBegin, AtMonthEnd:
			if tc.DateFlag != "" {
				return nil, ErrConflictingModifiers
			}
			tc.DateFlag = token
		default:
			return nil, ErrUnknownModifier
		}
	}

	var err error
	switch tc.TimeFlag {
	case AtOpen:
		tc.TimeSpec, err = parseTimeRelativeTo(timeSpecTokens, cal.hours.Open)
	case AtClose:
		tc.TimeSpec, err = parseTimeRelativeTo(timeSpecTokens, cal.hours.Close)
	default:
		tc.TimeSpec = strings.Join(timeSpecTokens, " ")
	}
	if err != nil {
		return nil, err
	}

	tc.schedule, err = specParser.Parse(tc.TimeSpec)
	if err != nil {
		log.Error().Err(err).Str("TimeSpec", tc.TimeSpec).Str("TradeCronSpec", cronSpec).Msg("robfig/cron could not parse timespec")
		return nil, err
	}

	return tc, nil
}

func sameDay(a time.Time, b time.Time, ok bool) bool {
	return ok && a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// matchesDate checks the date portion of the schedule against the calendar
func (tc *TradeCron) matchesDate(t time.Time) bool {
	if !tc.calendar.IsTradingDay(t) {
		return false
	}

	switch tc.DateFlag {
	case AtWeekBegin:
		d, ok := tc.calendar.FirstTradingDayOfWeek(t)
		return sameDay(t, d, ok)
	case AtWeekEnd:
		d, ok := tc.calendar.LastTradingDayOfWeek(t)
		return sameDay(t, d, ok)
	case AtMonthBegin:
		d, ok := tc.calendar.FirstTradingDayOfMonth(t)
		return sameDay(t, d, ok)
	case AtMonthEnd:
		d, ok := tc.calendar.LastTradingDayOfMonth(t)
		return sameDay(t, d, ok)
	}

	return true
}

// Next returns the first activation strictly after t in exchange time, or the zero time if
// none could be found
func (tc *TradeCron) Next(t time.Time) time.Time {
	next := t.In(tc.calendar.Location())
	for ii := 0; ii < maxIterations; ii++ {
		next = tc.schedule.Next(next)
		if next.IsZero() {
			return next
		}

		if !tc.matchesDate(next) {
			// nothing else on this day can match
			next = tc.calendar.endOfDay(next)
			continue
		}

		if tc.TimeFlag == "" && !tc.calendar.IsOpen(next) {
			continue
		}

		return next
	}

	log.Error().Str("Schedule", tc.ScheduleString).Time("From", t).Msg("no activation found for schedule")
	return time.Time{}
}

// IsTradeDay reports whether the schedule fires at any time on forDate
func (tc *TradeCron) IsTradeDay(forDate time.Time) bool {
	start := tc.calendar.midnight(forDate)
	next := tc.Next(start.Add(-time.Nanosecond))
	return !next.IsZero() && sameDay(next, start, true)
}
