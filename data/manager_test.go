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

package data_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-risk/common"
	"github.com/penny-vault/pv-risk/data"
	"github.com/penny-vault/pv-risk/dataframe"
)

type stubProvider struct {
	rows  map[string]int
	calls map[string]int
	lock  sync.Mutex
}

func (p *stubProvider) DataType() string {
	return "stub"
}

func (p *stubProvider) GetEOD(ctx context.Context, ticker string, begin, end time.Time) (*dataframe.DataFrame, error) {
	p.lock.Lock()
	p.calls[ticker]++
	p.lock.Unlock()

	n, ok := p.rows[ticker]
	if !ok {
		return nil, data.ErrNoData
	}

	df := &dataframe.DataFrame{ColNames: []string{ticker}, Vals: [][]float64{{}}}
	for ii := 0; ii < n; ii++ {
		df.InsertRow(begin.AddDate(0, 0, ii), 100+float64(ii))
	}
	return df, nil
}

var _ = Describe("Manager", func() {
	var (
		provider *stubProvider
		manager  *data.Manager
		ctx      context.Context
		begin    time.Time
		end      time.Time
	)

	BeforeEach(func() {
		provider = &stubProvider{
			rows: map[string]int{
				"MSFT":  60,
				"GOOG":  70,
				"SHORT": 50,
			},
			calls: make(map[string]int),
		}
		manager = data.NewManager(provider)
		manager.UseCache = false
		ctx = context.Background()
		begin = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	})

	It("defaults its settings", func() {
		Expect(manager.MinObservations).To(Equal(data.DefaultMinObservations))
		Expect(manager.Concurrency).To(Equal(data.DefaultConcurrency))
	})

	It("merges fetched tickers and reports exclusions", func() {
		df, exclusions, err := manager.FetchPrices(ctx, []string{"MSFT", "MISSING", "GOOG", "SHORT"}, begin, end)
		Expect(err).To(BeNil())
		Expect(df.ColNames).To(Equal([]string{"GOOG", "MSFT"}))
		Expect(df.Len()).To(Equal(70))

		Expect(exclusions).To(HaveLen(2))
		Expect(exclusions[0].Ticker).To(Equal("MISSING"))
		Expect(exclusions[0].Reason).To(Equal(data.ReasonFetchFailed))
		Expect(exclusions[1].Ticker).To(Equal("SHORT"))
		Expect(exclusions[1].Reason).To(Equal(data.ReasonInsufficientData))
	})

	It("fetches duplicate tickers once", func() {
		_, _, err := manager.FetchPrices(ctx, []string{"MSFT", "MSFT"}, begin, end)
		Expect(err).To(BeNil())
		Expect(provider.calls["MSFT"]).To(Equal(1))
	})

	It("errors when nothing could be fetched", func() {
		_, exclusions, err := manager.FetchPrices(ctx, []string{"MISSING", "SHORT"}, begin, end)
		Expect(errors.Is(err, data.ErrNoData)).To(BeTrue())
		Expect(exclusions).To(HaveLen(2))
	})

	It("rejects an inverted time range", func() {
		_, _, err := manager.FetchPrices(ctx, []string{"MSFT"}, end, begin)
		Expect(errors.Is(err, data.ErrInvalidTimeRange)).To(BeTrue())
	})

	Context("with the cache enabled", func() {
		BeforeEach(func() {
			Expect(common.SetupCache()).To(Succeed())
			manager.UseCache = true
		})

		It("serves repeated requests from the cache", func() {
			first, _, err := manager.FetchPrices(ctx, []string{"MSFT"}, begin, end)
			Expect(err).To(BeNil())
			second, _, err := manager.FetchPrices(ctx, []string{"MSFT"}, begin, end)
			Expect(err).To(BeNil())

			Expect(provider.calls["MSFT"]).To(Equal(1))
			Expect(second.Vals).To(Equal(first.Vals))
			Expect(second.Dates).To(HaveLen(first.Len()))
			Expect(second.Dates[0].Equal(first.Dates[0])).To(BeTrue())
		})
	})
})
