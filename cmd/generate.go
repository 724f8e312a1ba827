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
	"time"

	"github.com/penny-vault/pv-risk/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var quiet bool

func init() {
	generateCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print a summary of the report")

	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compute the risk report for the fund and save it",
	Run: func(cmd *cobra.Command, args []string) {
		shutdown := setup()
		defer shutdown()

		ctx := context.Background()
		manager, err := priceManager(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize price provider")
		}

		rep, err := buildReport(ctx, manager, time.Time{})
		if err != nil {
			log.Fatal().Err(err).Msg("report generation failed")
		}

		if err := saveReport(ctx, rep); err != nil {
			log.Fatal().Err(err).Msg("could not save report")
		}

		if !quiet {
			fmt.Println(report.Summary(rep))
		}
	},
}
