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

package messenger_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-risk/messenger"
)

var _ = Describe("GenerationRequest", func() {
	It("decodes a request with an as-of date", func() {
		req, err := messenger.DecodeRequest([]byte(`{"requested_by":"risk-desk","as_of_date":"2025-06-30","request_time":"2025-07-01T13:00:00Z"}`))
		Expect(err).To(BeNil())
		Expect(req.RequestedBy).To(Equal("risk-desk"))

		asOf, err := req.AsOfDate()
		Expect(err).To(BeNil())
		Expect(asOf).To(Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)))
	})

	It("leaves the as-of date to the consumer when omitted", func() {
		req, err := messenger.DecodeRequest([]byte(`{"requested_by":"risk-desk"}`))
		Expect(err).To(BeNil())

		asOf, err := req.AsOfDate()
		Expect(err).To(BeNil())
		Expect(asOf.IsZero()).To(BeTrue())
	})

	DescribeTable("rejects malformed requests",
		func(body string) {
			_, err := messenger.DecodeRequest([]byte(body))
			Expect(err).To(MatchError(messenger.ErrMalformedRequest))
		},
		Entry("not json", "generate please"),
		Entry("bad date", `{"requested_by":"risk-desk","as_of_date":"30/06/2025"}`),
	)

	It("requires a connection", func() {
		_, _, err := messenger.NextRequest(time.Millisecond)
		Expect(err).To(MatchError(messenger.ErrNotConnected))
		Expect(messenger.CreateRequest("risk-desk", time.Time{})).To(MatchError(messenger.ErrNotConnected))
	})
})
