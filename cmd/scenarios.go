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
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pv-risk/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the stress scenarios that will be applied",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		cfg, err := fundConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load configuration")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Scenario", "Kind", "Shocks"})
		table.SetAutoWrapText(false)
		for _, scenario := range cfg.Scenarios {
			table.Append([]string{scenario.Name, scenario.Rule.Kind(), strings.ReplaceAll(scenario.Rule.Describe(), ", ", "\n")})
		}
		table.Render()
	},
}
