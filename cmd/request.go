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
	"os"
	"os/user"
	"time"

	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/messenger"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var requestAsOf string

func init() {
	requestCmd.Flags().StringVar(&requestAsOf, "date", "", "As-of date (YYYY-MM-DD) of the requested report; defaults to the most recent trading day")
	rootCmd.AddCommand(requestCmd)
}

func requester() string {
	if u, err := user.Current(); err == nil {
		if host, err := os.Hostname(); err == nil {
			return u.Username + "@" + host
		}
		return u.Username
	}
	return "pvrisk"
}

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Ask a running scheduler to generate a report now",
	Run: func(cmd *cobra.Command, args []string) {
		shutdown := setup()
		defer shutdown()

		if !messenger.Enabled() {
			log.Fatal().Msg("requests are delivered over NATS; set --nats-server")
		}

		var asOf time.Time
		if requestAsOf != "" {
			var err error
			asOf, err = time.Parse(common.DateFormat, requestAsOf)
			if err != nil {
				log.Fatal().Err(err).Str("Date", requestAsOf).Msg("could not parse date")
			}
		}

		if err := messenger.CreateRequest(requester(), asOf); err != nil {
			log.Fatal().Err(err).Msg("could not queue generation request")
		}
		log.Info().Str("AsOf", requestAsOf).Msg("queued generation request")
	},
}
