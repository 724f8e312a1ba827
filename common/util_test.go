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

package common_test

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/penny-vault/pv-risk/common"
)

var _ = Describe("Util", func() {
	It("truncates to midnight UTC of the same calendar day", func() {
		nyc, err := time.LoadLocation("America/New_York")
		Expect(err).To(BeNil())

		Expect(common.TruncateDay(time.Date(2024, 7, 15, 23, 59, 0, 0, nyc))).To(Equal(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)))
	})

	Context("when setting up logging", func() {
		var (
			logger zerolog.Logger
			level  zerolog.Level
		)

		BeforeEach(func() {
			logger = log.Logger
			level = zerolog.GlobalLevel()
		})

		AfterEach(func() {
			log.Logger = logger
			zerolog.SetGlobalLevel(level)
			viper.Set("log.output", "")
			viper.Set("log.level", "")
		})

		It("copies log lines to extra writers", func() {
			viper.Set("log.level", "info")
			dir, err := os.MkdirTemp("", "pvrisk")
			Expect(err).To(BeNil())
			DeferCleanup(os.RemoveAll, dir)

			viper.Set("log.output", filepath.Join(dir, "pvrisk.log"))
			viper.Set("log.pretty", false)

			var buf bytes.Buffer
			common.SetupLogging(&buf)
			log.Info().Str("Ticker", "AAA").Msg("loaded prices")

			Expect(zerolog.GlobalLevel()).To(Equal(zerolog.InfoLevel))
			Expect(buf.String()).To(ContainSubstring(`"Ticker":"AAA"`))
			Expect(buf.String()).To(ContainSubstring(`"message":"loaded prices"`))
		})
	})
})
