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
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/data/database"
	"github.com/penny-vault/pv-risk/messenger"
	"github.com/penny-vault/pv-risk/tradecron"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const requestPollWait = 5 * time.Second

var runNow bool

func init() {
	scheduleCmd.Flags().String("cron", "@close 30 0 * * *", "Market aware cron specification of when to regenerate the report")
	viper.BindPFlag("schedule.cron", scheduleCmd.Flags().Lookup("cron"))
	scheduleCmd.Flags().Bool("extended-hours", false, "Evaluate @open and @close against extended trading hours")
	viper.BindPFlag("schedule.extended_hours", scheduleCmd.Flags().Lookup("extended-hours"))
	scheduleCmd.Flags().StringSlice("holiday", []string{}, "Additional exchange holiday as YYYY-MM-DD or YYYY-MM-DD@HHMM for an early close (may be repeated)")
	viper.BindPFlag("schedule.holidays", scheduleCmd.Flags().Lookup("holiday"))
	scheduleCmd.Flags().BoolVar(&runNow, "run-now", false, "Generate a report immediately in addition to the schedule")

	rootCmd.AddCommand(scheduleCmd)
}

// marketCalendar loads exchange holidays from the database when it is the price source and
// adds any configured by hand
func marketCalendar(ctx context.Context, manager *data.Manager) (*tradecron.Calendar, error) {
	hours := tradecron.RegularHours
	if viper.GetBool("schedule.extended_hours") {
		hours = tradecron.ExtendedHours
	}
	cal := tradecron.NewCalendar(hours)

	if manager.DataType() == "pvdb" {
		holidays, err := tradecron.LoadHolidays(ctx)
		if err != nil {
			return nil, err
		}
		cal.AddHolidays(holidays...)
	}

	extra, err := tradecron.ParseHolidays(viper.GetStringSlice("schedule.holidays"))
	if err != nil {
		return nil, err
	}
	cal.AddHolidays(extra...)

	return cal, nil
}

// regenerateMu keeps scheduled and requested generations from writing the report concurrently
var regenerateMu sync.Mutex

// regenerate builds a report and saves it. A zero asOf means the most recent trading day unless
// fund.as_of pins the date.
func regenerate(ctx context.Context, manager *data.Manager, cal *tradecron.Calendar, asOf time.Time) {
	regenerateMu.Lock()
	defer regenerateMu.Unlock()

	if asOf.IsZero() && viper.GetString("fund.as_of") == "" {
		tradingDay := cal.MostRecentTradingDay(time.Now())
		asOf = time.Date(tradingDay.Year(), tradingDay.Month(), tradingDay.Day(), 0, 0, 0, 0, time.UTC)
	}

	rep, err := buildReport(ctx, manager, asOf)
	if err != nil {
		log.Error().Err(err).Msg("report generation failed")
		return
	}

	if err := saveReport(ctx, rep); err != nil {
		log.Error().Err(err).Msg("could not save report")
	}

	if database.OpenTransactionCount() > 0 {
		database.LogOpenTransactions()
	}
}

// serveRequests handles on demand generation requests until ctx is cancelled
func serveRequests(ctx context.Context, manager *data.Manager, cal *tradecron.Calendar) {
	log.Info().Str("Subject", viper.GetString("nats.requests_subject")).Msg("listening for generation requests")
	for ctx.Err() == nil {
		req, msg, err := messenger.NextRequest(requestPollWait)
		if err != nil {
			if errors.Is(err, messenger.ErrMalformedRequest) {
				continue
			}
			log.Error().Err(err).Msg("could not read generation requests")
			select {
			case <-ctx.Done():
			case <-time.After(requestPollWait):
			}
			continue
		}
		if req == nil {
			continue
		}

		// AsOfDate was validated when the request was decoded
		asOf, _ := req.AsOfDate()
		log.Info().Str("RequestedBy", req.RequestedBy).Str("AsOf", req.AsOf).Msg("generating requested report")
		regenerate(ctx, manager, cal, asOf)

		if err := msg.Ack(); err != nil {
			log.Error().Err(err).Msg("could not acknowledge generation request")
		}
	}
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Regenerate the report on a market aware schedule until interrupted",
	Long: `Regenerate the report on a schedule until interrupted. The schedule is a standard 5 field
cron specification evaluated in exchange time that only fires on trading days. The modifiers
@open and @close make the minute and hour fields an offset from the market open or close and
@weekbegin, @weekend, @monthbegin and @monthend restrict runs to the first or last trading day
of the week or month.`,
	Run: func(cmd *cobra.Command, args []string) {
		shutdown := setup()
		defer shutdown()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		manager, err := priceManager(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize price provider")
		}

		cal, err := marketCalendar(ctx, manager)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load market calendar")
		}

		spec := viper.GetString("schedule.cron")
		schedule, err := tradecron.New(spec, cal)
		if err != nil {
			log.Fatal().Err(err).Str("Spec", spec).Msg("invalid schedule")
		}

		scheduler := cron.New(cron.WithLocation(cal.Location()))
		scheduler.Schedule(schedule, cron.FuncJob(func() { regenerate(ctx, manager, cal, time.Time{}) }))

		if runNow {
			regenerate(ctx, manager, cal, time.Time{})
		}

		if messenger.Enabled() && viper.GetString("nats.requests_subject") != "" {
			go serveRequests(ctx, manager, cal)
		}

		scheduler.Start()
		log.Info().Str("Spec", spec).Str("TimeSpec", schedule.TimeSpec).Time("NextRun", schedule.Next(time.Now())).Msg("scheduler started")

		<-ctx.Done()

		// wait for a running generation to finish
		<-scheduler.Stop().Done()
		log.Info().Msg("scheduler stopped")
	},
}
