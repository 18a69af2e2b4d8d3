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
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvscreen/data"
)

var _ = Describe("Frame", func() {
	Describe("Join", func() {
		var left, right *data.Frame

		BeforeEach(func() {
			left = data.NewFrame()
			left.Append(
				row("AAA", "2019-12-31", map[string]float64{"revenue": 1, "shared": 10}),
				row("AAA", "2018-12-31", map[string]float64{"revenue": 2, "shared": 20}),
				row("BBB", "2019-12-31", map[string]float64{"revenue": 3, "shared": 30}),
			)

			right = data.NewFrame()
			right.Append(
				row("AAA", "2019-12-31", map[string]float64{"assets": 100, "shared": -1}),
				row("AAA", "2019-12-31", map[string]float64{"assets": 999, "shared": -2}),
				row("AAA", "2018-12-31", map[string]float64{"assets": 200, "shared": -3}),
			)
		})

		It("matches on symbol and date without duplicating rows", func() {
			joined := left.Join(right, data.OnSymbolDate, data.InnerJoin)
			Expect(joined.Len()).To(Equal(2))
			Expect(joined.Rows[0].Values).To(Equal(map[string]float64{"revenue": 1, "shared": 10, "assets": 100}))
			Expect(joined.Rows[1].Values).To(Equal(map[string]float64{"revenue": 2, "shared": 20, "assets": 200}))
			Expect(joined.Columns).To(Equal([]string{"revenue", "shared", "assets"}))
		})

		It("keeps unmatched rows on a left join", func() {
			joined := left.Join(right, data.OnSymbolDate, data.LeftJoin)
			Expect(joined.Len()).To(Equal(3))
			_, ok := joined.Rows[2].Value("assets")
			Expect(ok).To(BeFalse())
		})

		It("does not modify the input frames", func() {
			left.Join(right, data.OnSymbolDate, data.InnerJoin)
			Expect(left.Rows[0].Values).NotTo(HaveKey("assets"))
			Expect(left.Columns).To(Equal([]string{"revenue", "shared"}))
		})

		It("attaches company attributes by symbol", func() {
			companies := data.CompaniesFrame([]*data.Company{
				{Symbol: "AAA", CompanyName: "Alpha Corp", Sector: "Technology", Price: 12.5},
			})

			joined := left.Join(companies, data.OnSymbol, data.LeftJoin)
			Expect(joined.Len()).To(Equal(3))
			Expect(joined.Rows[0].Text["sector"]).To(Equal("Technology"))
			Expect(joined.Rows[1].Values["price"]).To(Equal(12.5))
			Expect(joined.Rows[2].Text).NotTo(HaveKey("sector"))
		})
	})

	Describe("CSV", func() {
		It("writes symbol, date and year first", func() {
			frame := data.Clean(frameOf(
				row("AAA", "2019-12-31", map[string]float64{"revenue": 1.5}),
			))

			buf := bytes.Buffer{}
			Expect(frame.WriteCSV(&buf)).To(Succeed())
			Expect(buf.String()).To(Equal("symbol,date,year,revenue\nAAA,2019-12-31,2019,1.5\n"))
		})

		It("round trips values, nulls and text", func() {
			frame := frameOf(
				row("AAA", "2019-12-31", map[string]float64{"revenue": 1.25e9, "roe": -0.125}),
				row("BBB", "2018-06-30", map[string]float64{"revenue": 42}),
			)
			frame.Rows[0].Text["reportedCurrency"] = "USD"
			frame.AddTextColumn("reportedCurrency")
			frame = data.Clean(frame)

			buf := bytes.Buffer{}
			Expect(frame.WriteCSV(&buf)).To(Succeed())

			loaded, err := data.ReadCSV(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Columns).To(Equal(frame.Columns))
			Expect(loaded.TextColumns).To(Equal([]string{"reportedCurrency"}))
			Expect(loaded.Len()).To(Equal(2))

			for idx := range frame.Rows {
				Expect(loaded.Rows[idx].Symbol).To(Equal(frame.Rows[idx].Symbol))
				Expect(loaded.Rows[idx].Date).To(Equal(frame.Rows[idx].Date))
				Expect(loaded.Rows[idx].Year).To(Equal(frame.Rows[idx].Year))
				Expect(loaded.Rows[idx].Values).To(Equal(frame.Rows[idx].Values))
			}
			Expect(loaded.Rows[0].Text["reportedCurrency"]).To(Equal("USD"))
			_, ok := loaded.Rows[1].Value("roe")
			Expect(ok).To(BeFalse())
		})

		It("writes numbers held by a text column and text held by a numeric column", func() {
			frame := data.NewFrame()
			frame.AddTextColumn("payoutRatio")
			frame.AddTextColumn("note")
			obs := data.NewObservation("AAA", "2019-12-31")
			other := data.NewObservation("BBB", "2019-12-31")
			other.Text["payoutRatio"] = "n.m."
			frame.Append(obs, other)
			frame.AddColumn("payoutRatio")
			obs.Values["payoutRatio"] = 0.4
			obs.Values["note"] = 2

			buf := bytes.Buffer{}
			Expect(frame.WriteCSV(&buf)).To(Succeed())
			Expect(buf.String()).To(Equal("symbol,date,year,payoutRatio,note\nAAA,2019-12-31,,0.4,2\nBBB,2019-12-31,,n.m.,\n"))
		})

		It("reads placeholders as nulls without changing the column kind", func() {
			loaded, err := data.ReadCSV(strings.NewReader("symbol,date,year,roe,sector\nAAA,2019-12-31,2019,0.2,Tech\nBBB,2019-12-31,2019,N/A,n/a\nCCC,2019-12-31,2019,NaN,Energy\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Columns).To(Equal([]string{"roe"}))
			Expect(loaded.TextColumns).To(Equal([]string{"sector"}))

			_, ok := loaded.Rows[1].Value("roe")
			Expect(ok).To(BeFalse())
			_, ok = loaded.Rows[2].Value("roe")
			Expect(ok).To(BeFalse())
			Expect(loaded.Rows[1].Text).NotTo(HaveKey("sector"))
		})

		It("rejects files without the key columns", func() {
			_, err := data.ReadCSV(strings.NewReader("ticker,revenue\nAAA,1\n"))
			Expect(err).To(MatchError(data.ErrMalformedCSV))
		})
	})

	Describe("column kinds", func() {
		It("promotes a text column that another frame holds as numeric", func() {
			text := data.NewFrame()
			newer := data.NewObservation("NEW", "2019-12-31")
			newer.Text["payoutRatio"] = "n.m."
			text.Append(newer)
			Expect(text.TextColumns).To(Equal([]string{"payoutRatio"}))

			text.Concat(frameOf(row("OLD", "2019-12-31", map[string]float64{"payoutRatio": 0.3})))
			Expect(text.Columns).To(Equal([]string{"payoutRatio"}))
			Expect(text.TextColumns).To(BeEmpty())
			Expect(text.Rows[1].Values["payoutRatio"]).To(Equal(0.3))
		})

		It("promotes a text column when a row brings a number", func() {
			frame := data.NewFrame()
			frame.AddTextColumn("payoutRatio")
			frame.Append(row("OLD", "2019-12-31", map[string]float64{"payoutRatio": 0.3}))
			Expect(frame.Columns).To(Equal([]string{"payoutRatio"}))
			Expect(frame.TextColumns).To(BeEmpty())
		})

		It("keeps a numeric column numeric when text is added", func() {
			frame := frameOf(row("OLD", "2019-12-31", map[string]float64{"payoutRatio": 0.3}))
			frame.AddTextColumn("payoutRatio")
			Expect(frame.Columns).To(Equal([]string{"payoutRatio"}))
			Expect(frame.TextColumns).To(BeEmpty())
		})
	})

	DescribeTable("null placeholders",
		func(input string, isNull bool) {
			Expect(data.IsNullToken(input)).To(Equal(isNull))
		},
		Entry("empty", "", true),
		Entry("padded N/A", " N/A ", true),
		Entry("None", "None", true),
		Entry("null", "null", true),
		Entry("NaN", "NaN", true),
		Entry("negative infinity", "-Inf", true),
		Entry("zero", "0", false),
		Entry("text", "Technology", false),
	)

	Describe("statistic records", func() {
		It("round trips a statistic table through the long form", func() {
			stats := data.NewFrame()
			stats.AddColumn("5Y roe Median")
			stats.AddColumn("5Y roe Mean")
			aaa := data.NewObservation("AAA", "")
			aaa.Year = 2019
			aaa.Values["5Y roe Median"] = 0.2
			aaa.Values["5Y roe Mean"] = 0.21
			bbb := data.NewObservation("BBB", "")
			bbb.Year = 2019
			bbb.Values["5Y roe Mean"] = 0.3
			stats.Append(aaa, bbb)

			records := stats.Records()
			Expect(records).To(HaveLen(3))

			rebuilt := data.FrameFromRecords(records)
			Expect(rebuilt.Records()).To(Equal(records))
		})
	})
})

func frameOf(rows ...*data.Observation) *data.Frame {
	frame := data.NewFrame()
	frame.Append(rows...)
	return frame
}
