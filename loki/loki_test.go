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

package loki

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
)

var _ = Describe("Loki", func() {
	var (
		writer *Writer
		mu     sync.Mutex
		pushes []pushRequest
	)

	BeforeEach(func() {
		var err error
		writer, err = New("http://loki.test:3100", map[string]string{"app": "pvrisk"}, 0, time.Hour)
		Expect(err).To(BeNil())
		httpmock.ActivateNonDefault(writer.client)

		pushes = nil
		httpmock.RegisterResponder("POST", "http://loki.test:3100/loki/api/v1/push",
			func(req *http.Request) (*http.Response, error) {
				body, err := io.ReadAll(req.Body)
				if err != nil {
					return nil, err
				}
				var push pushRequest
				if err := json.Unmarshal(body, &push); err != nil {
					return httpmock.NewStringResponse(400, err.Error()), nil
				}
				mu.Lock()
				pushes = append(pushes, push)
				mu.Unlock()
				return httpmock.NewStringResponse(204, ""), nil
			})
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	It("rewrites the url to the push endpoint", func() {
		Expect(writer.URL).To(Equal("http://loki.test:3100/loki/api/v1/push"))
		Expect(writer.Close()).To(Succeed())
	})

	It("groups lines into one stream per level", func() {
		logger := zerolog.New(writer)
		logger.Info().Str("Ticker", "AAA").Msg("loaded prices")
		logger.Info().Msg("report generated")
		logger.Warn().Str("Ticker", "ZZZ").Msg("ticker excluded")

		Expect(writer.Close()).To(Succeed())

		mu.Lock()
		defer mu.Unlock()
		Expect(pushes).To(HaveLen(1))

		streams := pushes[0].Streams
		Expect(streams).To(HaveLen(2))
		Expect(string(streams[0].Stream["app"])).To(Equal("pvrisk"))
		Expect(string(streams[0].Stream["level"])).To(Equal("info"))
		Expect(streams[0].Values).To(HaveLen(2))
		Expect(streams[0].Values[0][1]).To(ContainSubstring("loaded prices"))
		Expect(streams[0].Values[0][0] <= streams[0].Values[1][0]).To(BeTrue())

		Expect(string(streams[1].Stream["level"])).To(Equal("warn"))
		Expect(streams[1].Values[0][1]).To(ContainSubstring(`"Ticker":"ZZZ"`))
	})

	It("rejects writes after close", func() {
		Expect(writer.Close()).To(Succeed())
		Expect(writer.Close()).To(Succeed())

		_, err := writer.Write([]byte(`{"level":"info"}`))
		Expect(err).To(MatchError(ErrClosed))
	})

	It("validates labels", func() {
		Expect(writer.Close()).To(Succeed())

		_, err := New("http://loki.test:3100", map[string]string{"bad-label": "x"}, 0, 0)
		Expect(err).To(HaveOccurred())
	})
})
