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

package dataframe_test

import (
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-risk/dataframe"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("DataFrame", func() {
	var (
		df *dataframe.DataFrame
	)

	BeforeEach(func() {
		df = &dataframe.DataFrame{
			Dates:    []time.Time{day(2), day(3), day(4), day(5)},
			ColNames: []string{"MSFT", "GOOG", "V"},
			Vals: [][]float64{
				{100, 101, 102, 103},
				{50, math.NaN(), 52, 53},
				{10, 10, 10, 10},
			},
		}
	})

	Describe("when selecting columns", func() {
		It("returns columns in the requested order", func() {
			sel, err := df.Select("V", "MSFT")
			Expect(err).To(BeNil())
			Expect(sel.ColNames).To(Equal([]string{"V", "MSFT"}))
			Expect(sel.Vals[0]).To(Equal([]float64{10, 10, 10, 10}))
			Expect(sel.Vals[1]).To(Equal([]float64{100, 101, 102, 103}))
			Expect(sel.Len()).To(Equal(4))
		})

		It("errors when a column is missing", func() {
			_, err := df.Select("MSFT", "AAPL")
			Expect(errors.Is(err, dataframe.ErrColumnNotFound)).To(BeTrue())
		})

		It("finds column index", func() {
			Expect(df.ColIndex("GOOG")).To(Equal(1))
			Expect(df.ColIndex("AAPL")).To(Equal(-1))
			Expect(df.Column("AAPL")).To(BeNil())
		})
	})

	Describe("when splitting and dropping columns", func() {
		It("splits into requested and remaining columns", func() {
			one, two := df.Split("GOOG")
			Expect(one.ColNames).To(Equal([]string{"GOOG"}))
			Expect(two.ColNames).To(Equal([]string{"MSFT", "V"}))
		})

		It("drops named columns", func() {
			res := df.DropColumns("MSFT", "UNKNOWN")
			Expect(res.ColNames).To(Equal([]string{"GOOG", "V"}))
		})
	})

	Describe("when dropping rows", func() {
		It("removes rows with NaN", func() {
			res := df.Drop(math.NaN())
			Expect(res.Len()).To(Equal(3))
			Expect(res.Dates).To(Equal([]time.Time{day(2), day(4), day(5)}))
			Expect(res.Vals[1]).To(Equal([]float64{50, 52, 53}))
			// original is untouched
			Expect(df.Len()).To(Equal(4))
		})
	})

	Describe("when copying", func() {
		It("produces an independent dataframe", func() {
			cp := df.Copy()
			cp.Vals[0][0] = -1
			cp.ColNames[0] = "X"
			Expect(df.Vals[0][0]).To(Equal(100.0))
			Expect(df.ColNames[0]).To(Equal("MSFT"))
		})
	})

	Describe("when trimming", func() {
		It("keeps an inclusive date range", func() {
			res := df.Trim(day(3), day(4))
			Expect(res.Dates).To(Equal([]time.Time{day(3), day(4)}))
			Expect(res.Vals[0]).To(Equal([]float64{101, 102}))
		})

		It("is empty when the range is inverted", func() {
			res := df.Trim(day(5), day(2))
			Expect(res.Len()).To(Equal(0))
		})

		It("is empty when the range is outside the data", func() {
			res := df.Trim(day(20), day(25))
			Expect(res.Len()).To(Equal(0))
		})
	})

	Describe("when inserting", func() {
		It("appends rows after the last date", func() {
			df.InsertRow(day(6), 104, 54, 10)
			Expect(df.Len()).To(Equal(5))
			Expect(df.End()).To(Equal(day(6)))
			Expect(df.Vals[2][4]).To(Equal(10.0))
		})

		It("panics when the date is not increasing", func() {
			Expect(func() { df.InsertRow(day(3), 1, 2, 3) }).To(Panic())
		})

		It("panics when the column length is wrong", func() {
			Expect(func() { df.Insert("BAD", []float64{1}) }).To(Panic())
		})
	})

	Describe("when filling", func() {
		It("forward fills gaps", func() {
			res := df.ForwardFill()
			Expect(res.Vals[1]).To(Equal([]float64{50, 50, 52, 53}))
			Expect(math.IsNaN(df.Vals[1][1])).To(BeTrue())
		})

		It("back fills leading gaps", func() {
			df.Vals[1] = []float64{math.NaN(), math.NaN(), 52, math.NaN()}
			res := df.Fill()
			Expect(res.Vals[1]).To(Equal([]float64{52, 52, 52, 52}))
		})

		It("leaves an all-NaN column untouched", func() {
			df.Vals[2] = []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
			res := df.Fill()
			for _, v := range res.Vals[2] {
				Expect(math.IsNaN(v)).To(BeTrue())
			}
		})
	})

	Describe("when rendering a table", func() {
		It("includes the header and dates", func() {
			out := df.Table()
			Expect(out).To(ContainSubstring("MSFT"))
			Expect(out).To(ContainSubstring("2024-01-02"))
		})

		It("reports no data for an empty frame", func() {
			Expect((&dataframe.DataFrame{}).Table()).To(Equal("<NO DATA>"))
		})
	})
})

var _ = Describe("Map", func() {
	It("outer joins on the union of dates", func() {
		m := dataframe.Map{
			"B": {
				Dates:    []time.Time{day(3), day(5)},
				ColNames: []string{"B"},
				Vals:     [][]float64{{30, 50}},
			},
			"A": {
				Dates:    []time.Time{day(2), day(3), day(4)},
				ColNames: []string{"A"},
				Vals:     [][]float64{{2, 3, 4}},
			},
		}

		merged := m.Merge()
		Expect(merged.Dates).To(Equal([]time.Time{day(2), day(3), day(4), day(5)}))
		Expect(merged.ColNames).To(Equal([]string{"A", "B"}))
		Expect(merged.Vals[0][:3]).To(Equal([]float64{2, 3, 4}))
		Expect(math.IsNaN(merged.Vals[0][3])).To(BeTrue())
		Expect(math.IsNaN(merged.Vals[1][0])).To(BeTrue())
		Expect(merged.Vals[1][1]).To(Equal(30.0))
		Expect(merged.Vals[1][3]).To(Equal(50.0))
	})

	It("is empty for an empty map", func() {
		merged := dataframe.Map{}.Merge()
		Expect(merged.Len()).To(Equal(0))
		Expect(merged.ColCount()).To(Equal(0))
	})
})
