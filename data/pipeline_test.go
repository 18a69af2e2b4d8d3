// Copyright 2024
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
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvscreen/data"
)

func row(symbol, date string, values map[string]float64) *data.Observation {
	obs := data.NewObservation(symbol, date)
	for k, v := range values {
		obs.Values[k] = v
	}
	return obs
}

func annual(symbol string, years []int, column string, value float64) []*data.Observation {
	rows := make([]*data.Observation, 0, len(years))
	for _, year := range years {
		rows = append(rows, row(symbol, fmt.Sprintf("%d-12-31", year), map[string]float64{column: value}))
	}
	return rows
}

func yearRange(start, end int) []int {
	years := make([]int, 0, end-start+1)
	for year := start; year <= end; year++ {
		years = append(years, year)
	}
	return years
}

var _ = Describe("Clean", func() {
	It("keeps only rows with 10 character dates and derives the year", func() {
		frame := data.NewFrame()
		frame.Append(
			row("AAPL", "2019-09-28", map[string]float64{"revenue": 1}),
			row("AAPL", "2019-9-28", map[string]float64{"revenue": 2}),
			row("AAPL", "TTM", map[string]float64{"revenue": 3}),
			row("MSFT", "2018-06-30", map[string]float64{"revenue": 4}),
			row("MSFT", "FY18-06-30", map[string]float64{"revenue": 5}),
		)

		cleaned := data.Clean(frame)
		Expect(cleaned.Len()).To(Equal(2))
		for _, obs := range cleaned.Rows {
			Expect(obs.Date).To(HaveLen(10))
		}
		Expect(cleaned.Rows[0].Year).To(Equal(2019))
		Expect(cleaned.Rows[1].Year).To(Equal(2018))
	})

	It("leaves the input rows untouched", func() {
		frame := data.NewFrame()
		frame.Append(row("AAPL", "2019-09-28", map[string]float64{"revenue": 1}))

		cleaned := data.Clean(frame)
		Expect(cleaned.Rows[0].Year).To(Equal(2019))
		Expect(frame.Rows[0].Year).To(Equal(0))
		Expect(cleaned.Rows[0]).NotTo(BeIdenticalTo(frame.Rows[0]))
	})

	It("counts characters rather than bytes", func() {
		frame := data.NewFrame()
		frame.Append(
			row("AAA", "2019-12-3é", map[string]float64{"revenue": 1}),
			row("BBB", "2019／12／31", map[string]float64{"revenue": 2}),
		)

		cleaned := data.Clean(frame)
		Expect(cleaned.Symbols()).To(Equal([]string{"AAA", "BBB"}))
	})
})

var _ = Describe("Deduplicate", func() {
	It("keeps the last row reported for a symbol and year", func() {
		frame := data.NewFrame()
		frame.Append(
			row("MSFT", "2019-06-30", map[string]float64{"revenue": 10}),
			row("AAPL", "2019-03-31", map[string]float64{"revenue": 1}),
			row("AAPL", "2019-09-28", map[string]float64{"revenue": 2}),
			row("AAPL", "2018-09-29", map[string]float64{"revenue": 3}),
		)

		deduped := data.Deduplicate(data.Clean(frame))
		Expect(deduped.Len()).To(Equal(3))
		Expect(deduped.Rows[0].Symbol).To(Equal("AAPL"))
		Expect(deduped.Rows[0].Year).To(Equal(2018))
		Expect(deduped.Rows[1].Date).To(Equal("2019-09-28"))
		Expect(deduped.Rows[2].Symbol).To(Equal("MSFT"))
	})
})

var _ = Describe("Latest", func() {
	It("keeps each symbol's most recent row", func() {
		frame := data.NewFrame()
		frame.Append(
			row("AAPL", "2018-09-29", nil),
			row("AAPL", "2019-09-28", nil),
			row("MSFT", "2017-06-30", nil),
		)

		latest := data.Latest(data.Clean(frame))
		Expect(latest.Len()).To(Equal(2))
		Expect(latest.Rows[0].Date).To(Equal("2019-09-28"))
		Expect(latest.Rows[1].Date).To(Equal("2017-06-30"))
	})
})

var _ = Describe("SelectWindow", func() {
	var frame *data.Frame

	BeforeEach(func() {
		frame = data.NewFrame()
		frame.Append(annual("AAA", yearRange(2010, 2019), "roe", 0.1)...)
		frame.Append(annual("BBB", yearRange(2013, 2018), "roe", 0.2)...)
		frame.Append(annual("CCC", yearRange(2015, 2019), "roe", 0.3)...)
		frame = data.Clean(frame)
	})

	It("covers the report year and the preceding lookback-1 years", func() {
		window := data.Window{ReportYear: 2019, Lookback: 5}
		Expect(window.Years()).To(Equal([]int{2015, 2016, 2017, 2018, 2019}))
	})

	It("drops symbols missing any window year under the strict policy", func() {
		selected, err := data.SelectWindow(frame, data.Window{ReportYear: 2019, Lookback: 5, Policy: data.WindowStrict})
		Expect(err).NotTo(HaveOccurred())
		Expect(selected.Symbols()).To(Equal([]string{"AAA", "CCC"}))

		for _, symbol := range []string{"AAA", "CCC"} {
			years := selected.FilterSymbols([]string{symbol}).Years()
			Expect(years).To(Equal(yearRange(2015, 2019)))
		}
	})

	It("allows gaps but requires the report year under the latest policy", func() {
		gappy := frame.Filter(func(obs *data.Observation) bool {
			return !(obs.Symbol == "CCC" && obs.Year == 2017)
		})

		selected, err := data.SelectWindow(gappy, data.Window{ReportYear: 2019, Lookback: 5, Policy: data.WindowLatest})
		Expect(err).NotTo(HaveOccurred())
		Expect(selected.Symbols()).To(Equal([]string{"AAA", "CCC"}))
		Expect(selected.FilterSymbols([]string{"CCC"}).Years()).To(Equal([]int{2015, 2016, 2018, 2019}))
	})

	It("rejects an empty window", func() {
		_, err := data.SelectWindow(frame, data.Window{ReportYear: 2019, Lookback: 0})
		Expect(err).To(MatchError(data.ErrInvalidWindow))
	})

	DescribeTable("parsing window policies",
		func(input string, expected data.WindowPolicy, fails bool) {
			policy, err := data.ParseWindowPolicy(input)
			if fails {
				Expect(err).To(MatchError(data.ErrInvalidWindow))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(policy).To(Equal(expected))
		},
		Entry("empty defaults to strict", "", data.WindowStrict, false),
		Entry("strict", "strict", data.WindowStrict, false),
		Entry("latest is case insensitive", "Latest", data.WindowLatest, false),
		Entry("unknown", "rolling", data.WindowPolicy(""), true),
	)
})

var _ = Describe("CalculateStats", func() {
	window := data.Window{ReportYear: 2019, Lookback: 10}

	It("computes percent change from the earliest and latest years", func() {
		frame := data.NewFrame()
		frame.Append(
			row("AAA", "2010-12-31", map[string]float64{"revenue": 100}),
			row("AAA", "2012-12-31", map[string]float64{"revenue": 900}),
			row("AAA", "2015-12-31", map[string]float64{"revenue": 150}),
		)

		stats, err := data.CalculateStats(data.Clean(frame), data.StatPercentChange, window, "revenue")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Len()).To(Equal(1))
		Expect(stats.Rows[0].Year).To(Equal(2019))
		Expect(stats.Rows[0].Values["10Y revenue % Change"]).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("does not depend on row order", func() {
		frame := data.NewFrame()
		frame.Append(
			row("AAA", "2015-12-31", map[string]float64{"revenue": 150}),
			row("AAA", "2010-12-31", map[string]float64{"revenue": 100}),
		)

		stats, err := data.CalculateStats(data.Clean(frame), data.StatPercentChange, window, "revenue")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Rows[0].Values["10Y revenue % Change"]).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("leaves percent change null with a single year or a zero base", func() {
		frame := data.NewFrame()
		frame.Append(
			row("ONE", "2015-12-31", map[string]float64{"revenue": 150}),
			row("ZERO", "2010-12-31", map[string]float64{"revenue": 0}),
			row("ZERO", "2015-12-31", map[string]float64{"revenue": 10}),
		)

		stats, err := data.CalculateStats(data.Clean(frame), data.StatPercentChange, window, "revenue")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Len()).To(Equal(2))
		for _, obs := range stats.Rows {
			_, ok := obs.Value("10Y revenue % Change")
			Expect(ok).To(BeFalse())
		}
	})

	It("computes mean and median over non-null values", func() {
		frame := data.NewFrame()
		frame.Append(
			row("AAA", "2016-12-31", map[string]float64{"roe": 0.1}),
			row("AAA", "2017-12-31", map[string]float64{"roe": 0.4}),
			row("AAA", "2018-12-31", map[string]float64{}),
			row("AAA", "2019-12-31", map[string]float64{"roe": 0.2, "other": 1}),
			row("AAA", "2015-12-31", map[string]float64{"roe": 0.3}),
		)
		frame = data.Clean(frame)

		means, err := data.CalculateStats(frame, data.StatMean, data.Window{ReportYear: 2019, Lookback: 5}, "roe")
		Expect(err).NotTo(HaveOccurred())
		Expect(means.Columns).To(Equal([]string{"5Y roe Mean"}))
		Expect(means.Rows[0].Values["5Y roe Mean"]).To(BeNumerically("~", 0.25, 1e-12))

		medians, err := data.CalculateStats(frame, data.StatMedian, data.Window{ReportYear: 2019, Lookback: 5}, "roe")
		Expect(err).NotTo(HaveOccurred())
		Expect(medians.Rows[0].Values["5Y roe Median"]).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("rejects unknown columns and statistics", func() {
		frame := data.NewFrame()
		frame.Append(row("AAA", "2019-12-31", map[string]float64{"roe": 0.1}))

		_, err := data.CalculateStats(frame, data.StatMean, window, "missing")
		Expect(err).To(MatchError(data.ErrColumnNotFound))

		_, err = data.CalculateStats(frame, data.Statistic("Mode"), window, "roe")
		Expect(err).To(MatchError(data.ErrUnknownStatistic))
	})

	DescribeTable("parsing statistic names",
		func(input string, expected data.Statistic) {
			stat, err := data.ParseStatistic(input)
			Expect(err).NotTo(HaveOccurred())
			Expect(stat).To(Equal(expected))
		},
		Entry("mean", "mean", data.StatMean),
		Entry("median", "Median", data.StatMedian),
		Entry("short percent change", "pct-change", data.StatPercentChange),
		Entry("label percent change", "% Change", data.StatPercentChange),
	)
})

var _ = Describe("Screen", func() {
	criteria := data.Criteria{{Column: "ROE", Min: 0.10, Max: 0.50}}

	DescribeTable("strict bounds with nulls passing",
		func(values map[string]float64, passes bool) {
			frame := data.NewFrame()
			frame.AddColumn("ROE")
			frame.Append(row("AAA", "2019-12-31", values))

			screened, err := data.Screen(frame, criteria)
			Expect(err).NotTo(HaveOccurred())
			if passes {
				Expect(screened.Symbols()).To(Equal([]string{"AAA"}))
			} else {
				Expect(screened.Symbols()).To(BeEmpty())
			}
		},
		Entry("inside the range", map[string]float64{"ROE": 0.15}, true),
		Entry("null", map[string]float64{}, true),
		Entry("below the range", map[string]float64{"ROE": 0.05}, false),
		Entry("above the range", map[string]float64{"ROE": 0.55}, false),
		Entry("on the lower bound", map[string]float64{"ROE": 0.10}, false),
		Entry("on the upper bound", map[string]float64{"ROE": 0.50}, false),
	)

	It("requires every criterion to pass", func() {
		frame := data.NewFrame()
		frame.Append(
			row("AAA", "2019-12-31", map[string]float64{"ROE": 0.2, "debt": 0.1}),
			row("BBB", "2019-12-31", map[string]float64{"ROE": 0.2, "debt": 0.9}),
			row("CCC", "2019-12-31", map[string]float64{"ROE": 0.6, "debt": 0.1}),
		)

		screened, err := data.Screen(frame, data.Criteria{
			{Column: "ROE", Min: 0.1, Max: 0.5},
			{Column: "debt", Min: 0, Max: 0.5},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(screened.Symbols()).To(Equal([]string{"AAA"}))
	})

	It("returns an error for a text column", func() {
		frame := data.NewFrame()
		obs := row("AAA", "2019-12-31", map[string]float64{"ROE": 0.2})
		obs.Text["sector"] = "Technology"
		frame.Append(obs)

		_, err := data.Screen(frame, data.Criteria{{Column: "sector", Min: 0, Max: 1}})
		Expect(err).To(MatchError(data.ErrColumnNotNumeric))
	})

	It("treats placeholders in a loaded file as nulls that pass", func() {
		csvFile := "symbol,date,year,interestCoverage,currentRatio\n" +
			"AAA,2019-12-31,2019,3,2\n" +
			"BBB,2019-12-31,2019,N/A,2\n" +
			"CCC,2019-12-31,2019,NaN,None\n"

		frame, err := data.ReadCSV(strings.NewReader(csvFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(frame.Columns).To(Equal([]string{"interestCoverage", "currentRatio"}))

		screened, err := data.Screen(frame, data.Criteria{
			{Column: "interestCoverage", Min: 15, Max: 5000},
			{Column: "currentRatio", Min: 1.5, Max: 10},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(screened.Symbols()).To(Equal([]string{"BBB", "CCC"}))
	})

	It("builds the default criteria from the configured statistic", func() {
		columns := make([]string, 0)
		for _, criterion := range data.DefaultCriteria(10, data.StatMean) {
			columns = append(columns, criterion.Column)
		}
		Expect(columns).To(ContainElement("10Y returnOnEquity Mean"))
		Expect(columns).NotTo(ContainElement("10Y returnOnEquity Median"))
	})

	It("returns an error for a column the frame does not have", func() {
		frame := data.NewFrame()
		frame.Append(row("AAA", "2019-12-31", map[string]float64{"ROE": 0.2}))

		_, err := data.Screen(frame, data.Criteria{{Column: "Debt to Equity", Min: 0, Max: 0.5}})
		Expect(err).To(MatchError(data.ErrColumnNotFound))
	})

	DescribeTable("parsing criteria",
		func(input string, expected data.Criterion, fails bool) {
			criterion, err := data.ParseCriterion(input)
			if fails {
				Expect(err).To(MatchError(data.ErrInvalidCriterion))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(criterion).To(Equal(expected))
		},
		Entry("simple", "returnOnEquity:0.1:0.5", data.Criterion{Column: "returnOnEquity", Min: 0.1, Max: 0.5}, false),
		Entry("column with spaces", "10Y returnOnEquity Median:0.08:0.25", data.Criterion{Column: "10Y returnOnEquity Median", Min: 0.08, Max: 0.25}, false),
		Entry("missing max", "roe:0.1", data.Criterion{}, true),
		Entry("non-numeric bound", "roe:low:0.5", data.Criterion{}, true),
		Entry("inverted range", "roe:0.5:0.1", data.Criterion{}, true),
	)
})

var _ = Describe("Pipeline", func() {
	It("screens a three company universe end to end", func() {
		frame := data.NewFrame()
		frame.Append(annual("AAA", yearRange(2012, 2019), "returnOnEquity", 0.2)...)
		frame.Append(annual("BBB", yearRange(2012, 2018), "returnOnEquity", 0.2)...)
		frame.Append(annual("CCC", yearRange(2014, 2019), "returnOnEquity", 0.6)...)

		window := data.Window{ReportYear: 2019, Lookback: 5}
		selected, err := data.SelectWindow(data.Deduplicate(data.Clean(frame)), window)
		Expect(err).NotTo(HaveOccurred())
		Expect(selected.Symbols()).To(Equal([]string{"AAA", "CCC"}))
		Expect(selected.Years()).To(Equal(yearRange(2015, 2019)))

		medians, err := data.CalculateStats(selected, data.StatMedian, window, "returnOnEquity")
		Expect(err).NotTo(HaveOccurred())

		current := selected.FilterYear(2019).Join(medians, data.OnSymbolYear, data.InnerJoin)
		Expect(current.Len()).To(Equal(2))

		screened, err := data.Screen(current, data.Criteria{
			{Column: "returnOnEquity", Min: 0.1, Max: 0.5},
			{Column: "5Y returnOnEquity Median", Min: 0.08, Max: 0.25},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(screened.Symbols()).To(Equal([]string{"AAA"}))
	})
})
