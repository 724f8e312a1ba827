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
	"sync"
	"time"

	// the exchange timezone must resolve even on hosts without a zoneinfo database
	_ "time/tzdata"

	"github.com/penny-vault/pv-risk/common"
	"github.com/rs/zerolog/log"
)

// MarketHours are the open and close times of the exchange as HHMM
type MarketHours struct {
	Open  int
	Close int
}

var (
	RegularHours = MarketHours{
		Open:  930,
		Close: 1600,
	}
	ExtendedHours = MarketHours{
		Open:  700,
		Close: 2000,
	}
)

// Holiday is a day the exchange is closed. When EarlyClose is non-zero the exchange opens but
// closes at that time (HHMM) instead.
type Holiday struct {
	Date       time.Time
	EarlyClose int
}

// Calendar knows which days the exchange trades. It is safe for concurrent use.
type Calendar struct {
	hours MarketHours
	tz    *time.Location

	mu       sync.RWMutex
	holidays map[string]int
}

var (
	exchangeTZ     *time.Location
	exchangeTZOnce sync.Once
)

// Timezone is the exchange's local time
func Timezone() *time.Location {
	exchangeTZOnce.Do(func() {
		nyc, err := time.LoadLocation("America/New_York")
		if err != nil {
			log.Panic().Err(err).Msg("could not load nyc timezone")
		}
		exchangeTZ = nyc
	})
	return exchangeTZ
}

// NewCalendar returns a calendar that only knows about weekends until holidays are added
func NewCalendar(hours MarketHours) *Calendar {
	return &Calendar{
		hours:    hours,
		tz:       Timezone(),
		holidays: make(map[string]int),
	}
}

func (cal *Calendar) Location() *time.Location {
	return cal.tz
}

// AddHolidays merges holidays into the calendar; a later entry for the same day wins
func (cal *Calendar) AddHolidays(holidays ...Holiday) {
	cal.mu.Lock()
	defer cal.mu.Unlock()

	for _, holiday := range holidays {
		cal.holidays[holiday.Date.Format(common.DateFormat)] = holiday.EarlyClose
	}
}

func (cal *Calendar) midnight(t time.Time) time.Time {
	t = t.In(cal.tz)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, cal.tz)
}

// endOfDay is the last instant of t's day in exchange time
func (cal *Calendar) endOfDay(t time.Time) time.Time {
	return cal.midnight(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (cal *Calendar) holiday(t time.Time) (int, bool) {
	cal.mu.RLock()
	defer cal.mu.RUnlock()

	closeTime, ok := cal.holidays[t.In(cal.tz).Format(common.DateFormat)]
	return closeTime, ok
}

// EarlyClose returns the close time of an early close day, e.g. 1300, and 0 otherwise
func (cal *Calendar) EarlyClose(t time.Time) int {
	closeTime, _ := cal.holiday(t)
	return closeTime
}

// IsHoliday is true when the exchange is closed all day for a holiday
func (cal *Calendar) IsHoliday(t time.Time) bool {
	closeTime, ok := cal.holiday(t)
	return ok && closeTime == 0
}

// IsTradingDay is true for weekdays that are not full holidays
func (cal *Calendar) IsTradingDay(t time.Time) bool {
	switch t.In(cal.tz).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !cal.IsHoliday(t)
}

// IsOpen is true during trading hours, taking early closes into account
func (cal *Calendar) IsOpen(t time.Time) bool {
	if !cal.IsTradingDay(t) {
		return false
	}

	closeTime := cal.hours.Close
	if early := cal.EarlyClose(t); early != 0 {
		closeTime = early
	}

	local := t.In(cal.tz)
	timeOfDay := local.Hour()*100 + local.Minute()
	return timeOfDay >= cal.hours.Open && timeOfDay <= closeTime
}

// firstTradingDay walks from start by step days until a trading day is found, giving up after
// limit days
func (cal *Calendar) firstTradingDay(start time.Time, step, limit int) (time.Time, bool) {
	d := cal.midnight(start)
	for ii := 0; ii < limit; ii++ {
		if cal.IsTradingDay(d) {
			return d, true
		}
		d = d.AddDate(0, 0, step)
	}
	return time.Time{}, false
}

// FirstTradingDayOfWeek is the first trading day of the Monday to Friday week containing t
func (cal *Calendar) FirstTradingDayOfWeek(t time.Time) (time.Time, bool) {
	d := cal.midnight(t)
	monday := d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
	return cal.firstTradingDay(monday, 1, 5)
}

// LastTradingDayOfWeek is the last trading day of the Monday to Friday week containing t
func (cal *Calendar) LastTradingDayOfWeek(t time.Time) (time.Time, bool) {
	d := cal.midnight(t)
	friday := d.AddDate(0, 0, 4-((int(d.Weekday())+6)%7))
	return cal.firstTradingDay(friday, -1, 5)
}

// FirstTradingDayOfMonth is the first trading day in t's month
func (cal *Calendar) FirstTradingDayOfMonth(t time.Time) (time.Time, bool) {
	d := cal.midnight(t)
	return cal.firstTradingDay(d.AddDate(0, 0, 1-d.Day()), 1, 31)
}

// LastTradingDayOfMonth is the last trading day in t's month
func (cal *Calendar) LastTradingDayOfMonth(t time.Time) (time.Time, bool) {
	d := cal.midnight(t)
	first := d.AddDate(0, 0, 1-d.Day())
	return cal.firstTradingDay(first.AddDate(0, 1, -1), -1, 31)
}

// MostRecentTradingDay is t's day if the exchange trades then, otherwise the closest earlier
// trading day
func (cal *Calendar) MostRecentTradingDay(t time.Time) time.Time {
	d, ok := cal.firstTradingDay(t, -1, 31)
	if !ok {
		return cal.midnight(t)
	}
	return d
}
