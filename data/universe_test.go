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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvscreen/data"
)

func price(val float64) *float64 {
	return &val
}

var _ = Describe("Universe", func() {
	var companies []*data.Company

	BeforeEach(func() {
		companies = []*data.Company{
			{Symbol: "AAPL", Sector: "Technology", Industry: "Consumer Electronics", Exchange: "Nasdaq Global Select", Price: 190},
			{Symbol: "JPM", Sector: "Financial Services", Industry: "Banks", Exchange: "New York Stock Exchange", Price: 150},
			{Symbol: "PENNY", Sector: "Technology", Industry: "Software", Exchange: "Nasdaq", Price: 4.99},
			{Symbol: "OTC", Sector: "Energy", Industry: "Oil & Gas", Exchange: "Other OTC", Price: 5},
		}
	})

	It("selects companies by sector", func() {
		selected := data.SelectSectors(companies, "Technology")
		Expect(selected).To(HaveLen(2))
		Expect(selected[0].Symbol).To(Equal("AAPL"))
		Expect(selected[1].Symbol).To(Equal("PENNY"))
	})

	It("accepts several sectors at once", func() {
		selected := data.SelectSectors(companies, "Technology", "Energy")
		Expect(selected).To(HaveLen(3))
	})

	It("selects companies by industry", func() {
		selected := data.SelectIndustries(companies, "Banks", "Software")
		Expect(selected).To(HaveLen(2))
		Expect(selected[0].Symbol).To(Equal("JPM"))
	})

	It("selects companies on the major exchanges", func() {
		selected := data.SelectExchanges(companies, data.MajorExchanges...)
		Expect(selected).To(HaveLen(3))
		for _, company := range selected {
			Expect(company.Symbol).NotTo(Equal("OTC"))
		}
	})

	DescribeTable("minimum price is inclusive",
		func(minPrice float64, expected []string) {
			selected := data.SelectMinimumPrice(companies, minPrice)
			symbols := make([]string, 0, len(selected))
			for _, company := range selected {
				symbols = append(symbols, company.Symbol)
			}
			Expect(symbols).To(Equal(expected))
		},
		Entry("default minimum", data.DefaultMinimumPrice, []string{"AAPL", "JPM", "OTC"}),
		Entry("just below a price", 4.99, []string{"AAPL", "JPM", "PENNY", "OTC"}),
		Entry("above every price", 1000.0, []string{}),
	)

	Describe("stock list", func() {
		var listings []*data.Listing

		BeforeEach(func() {
			listings = []*data.Listing{
				{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "Nasdaq Global Select", Price: price(190)},
				{Symbol: "NOPRICE", Name: "No Price Inc.", Exchange: "NYSE"},
				{Symbol: "NONAME", Exchange: "NYSE", Price: price(20)},
				{Symbol: "CHEAP", Name: "Cheap Co", Exchange: "NYSE", Price: price(1)},
			}
		})

		It("drops incomplete rows", func() {
			complete := data.DropIncomplete(listings)
			Expect(complete).To(HaveLen(2))
			Expect(complete[0].Symbol).To(Equal("AAPL"))
			Expect(complete[1].Symbol).To(Equal("CHEAP"))
		})

		It("drops rows without a price from the price filter", func() {
			selected := data.SelectMinimumPrice(listings, 5)
			Expect(selected).To(HaveLen(2))
			Expect(selected[0].Symbol).To(Equal("AAPL"))
			Expect(selected[1].Symbol).To(Equal("NONAME"))
		})

		It("skips rows without a name when mapping tickers", func() {
			mappings := data.TickerMappings(listings)
			Expect(mappings).To(HaveLen(3))
			for _, mapping := range mappings {
				Expect(mapping.Symbol).NotTo(Equal("NONAME"))
			}
		})
	})
})
