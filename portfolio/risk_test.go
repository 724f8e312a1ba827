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

package portfolio_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-risk/portfolio"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("Risk", func() {
	Describe("when combining two assets", func() {
		It("gives no diversification benefit for perfectly correlated assets", func() {
			a := wave(40, 0.01, 4, 0.5, 0.001)
			returns := returnsFrame([]string{"A", "B"}, a, a)
			cov := portfolio.CovarianceMatrix(returns, 252)

			vol := math.Sqrt(portfolio.PortfolioVariance([]float64{0.5, 0.5}, cov))
			Expect(vol).To(BeNumerically("~", portfolio.AnnualizedVolatility(a, 252), 1e-12))
		})

		It("reduces volatility for uncorrelated assets", func() {
			a := make([]float64, 40)
			b := make([]float64, 40)
			for ii := range a {
				a[ii] = []float64{0.01, -0.01, 0.01, -0.01}[ii%4]
				b[ii] = []float64{0.01, 0.01, -0.01, -0.01}[ii%4]
			}
			returns := returnsFrame([]string{"A", "B"}, a, b)
			cov := portfolio.CovarianceMatrix(returns, 252)
			Expect(cov.At(0, 1)).To(BeNumerically("~", 0, 1e-12))

			single := portfolio.AnnualizedVolatility(a, 252)
			vol := math.Sqrt(portfolio.PortfolioVariance([]float64{0.5, 0.5}, cov))
			Expect(vol).To(BeNumerically("<", single))
			Expect(vol).To(BeNumerically("~", single/math.Sqrt2, 1e-12))
		})
	})

	DescribeTable("portfolio variance is never negative",
		func(w []float64) {
			returns := portfolio.Returns(samplePrices())
			cov := portfolio.CovarianceMatrix(returns, 252)
			Expect(floats.Sum(w)).To(BeNumerically("~", 1, 1e-12))
			Expect(portfolio.PortfolioVariance(w, cov)).To(BeNumerically(">=", 0))
		},
		Entry("equal weight", []float64{1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7}),
		Entry("concentrated", []float64{1, 0, 0, 0, 0, 0, 0}),
		Entry("long short", []float64{1.5, -0.5, 0, 0, 0, 0, 0}),
		Entry("hedged against the benchmark", []float64{0.5, 0, 0, 0, 0, 0.9, -0.4}),
	)

	Describe("Sharpe ratio", func() {
		It("is the excess return per unit volatility", func() {
			Expect(portfolio.SharpeRatio(0.145, 0.045, 0.2)).To(BeNumerically("~", 0.5, 1e-12))
		})

		It("is exactly 0 when volatility is 0", func() {
			Expect(portfolio.SharpeRatio(0.145, 0.045, 0)).To(Equal(0.0))
		})
	})

	Describe("tail risk", func() {
		It("interpolates percentiles linearly between ranks", func() {
			x := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
			Expect(portfolio.Percentile(x, 5)).To(BeNumerically("~", 1.45, 1e-12))
			Expect(portfolio.Percentile(x, 50)).To(BeNumerically("~", 5.5, 1e-12))
			Expect(portfolio.Percentile(x, 100)).To(Equal(10.0))
			Expect(portfolio.Percentile(x, 0)).To(Equal(1.0))
			// input is not reordered
			Expect(x[0]).To(Equal(10.0))
		})

		It("is NaN for an empty series", func() {
			Expect(math.IsNaN(portfolio.Percentile(nil, 5))).To(BeTrue())
		})

		It("never reports CVaR above VaR", func() {
			daily := wave(250, 0.02, 23, 0.1, 0.0003)
			varThreshold := portfolio.Percentile(daily, 5)
			cvar := portfolio.ConditionalVaR(daily, varThreshold)
			Expect(varThreshold).To(BeNumerically("<", 0))
			Expect(cvar).To(BeNumerically("<=", varThreshold))
		})

		It("falls back to VaR when the tail is empty", func() {
			Expect(portfolio.ConditionalVaR([]float64{0.01, 0.02}, -0.5)).To(Equal(-0.5))
		})
	})

	Describe("max drawdown", func() {
		It("finds the deepest peak to trough decline", func() {
			Expect(portfolio.MaxDrawdown([]float64{1, 1.1, 0.99, 1.05, 1.2, 1.08})).To(BeNumerically("~", -0.1, 1e-12))
		})

		It("is 0 for a rising curve", func() {
			Expect(portfolio.MaxDrawdown([]float64{1, 1.01, 1.02})).To(Equal(0.0))
		})
	})

	Describe("risk contributions", func() {
		It("sum to 100 percent", func() {
			returns := portfolio.Returns(samplePrices())
			cov := portfolio.CovarianceMatrix(returns, 252)
			w := []float64{0.3, 0.2, 0.15, 0.15, 0.1, 0.05, 0.05}

			marginal, component, pct := portfolio.RiskContributions(w, cov)
			Expect(floats.Sum(pct)).To(BeNumerically("~", 100, 1e-9))
			Expect(floats.Sum(component)).To(BeNumerically("~", math.Sqrt(portfolio.PortfolioVariance(w, cov)), 1e-12))
			Expect(component[0]).To(BeNumerically("~", w[0]*marginal[0], 1e-15))
		})

		It("are all zero when the portfolio has no variance", func() {
			cov := mat.NewSymDense(2, nil)
			marginal, component, pct := portfolio.RiskContributions([]float64{0.5, 0.5}, cov)
			Expect(marginal).To(Equal([]float64{0, 0}))
			Expect(component).To(Equal([]float64{0, 0}))
			Expect(pct).To(Equal([]float64{0, 0}))
		})
	})

	Describe("portfolio risk summary", func() {
		It("aggregates return, volatility and tail risk", func() {
			cfg := testConfig()
			returns := portfolio.Returns(samplePrices())
			cov := portfolio.CovarianceMatrix(returns, cfg.PeriodsPerYear)
			w := []float64{0.2, 0.2, 0.2, 0.2, 0.1, 0.1, 0}
			annReturns := []float64{0.1, 0.2, 0.05, 0.0, -0.1, 0.3, 0.07}
			daily := portfolio.DailyReturns(returns, w)

			summary := portfolio.PortfolioRisk(w, annReturns, cov, daily, cfg)
			Expect(summary.AnnReturn).To(BeNumerically("~", 0.02+0.04+0.01-0.01+0.03, 1e-12))
			Expect(summary.AnnVol).To(BeNumerically("~", math.Sqrt(summary.Variance), 1e-15))
			Expect(summary.Sharpe).To(BeNumerically("~", (summary.AnnReturn-cfg.RiskFreeRate)/summary.AnnVol, 1e-12))
			Expect(summary.CVaR95).To(BeNumerically("<=", summary.VaR95))
			Expect(summary.MaxDrawdown).To(BeNumerically("<=", 0))
			Expect(summary.Cumulative.Len()).To(Equal(returns.Len()))
			Expect(summary.Cumulative.Vals[0][0]).To(BeNumerically("~", 1+daily.Vals[0][0], 1e-15))
		})
	})
})
