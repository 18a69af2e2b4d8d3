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
package data

import (
	"github.com/rs/zerolog"
)

// Company is a member of the investable universe. Companies are loaded once per run
// and not modified afterwards except for FIGI enrichment.
type Company struct {
	Symbol        string  `json:"symbol" csv:"symbol"`
	CompanyName   string  `json:"companyName" csv:"companyName"`
	Sector        string  `json:"sector" csv:"sector"`
	Industry      string  `json:"industry" csv:"industry"`
	Exchange      string  `json:"exchange" csv:"exchange"`
	CEO           string  `json:"ceo" csv:"ceo"`
	Description   string  `json:"description" csv:"description"`
	Website       string  `json:"website" csv:"website"`
	MarketCap     float64 `json:"mktCap" csv:"mktCap"`
	VolumeAvg     float64 `json:"volAvg" csv:"volAvg"`
	Beta          float64 `json:"beta" csv:"beta"`
	Price         float64 `json:"price" csv:"price"`
	CompositeFigi string  `json:"compositeFigi" csv:"compositeFigi"`
}

// Listing is a row of the exchange-wide stock list. Price is nil when the upstream
// list did not report one.
type Listing struct {
	Symbol   string   `json:"symbol" csv:"symbol"`
	Name     string   `json:"name" csv:"name"`
	Price    *float64 `json:"price" csv:"price"`
	Exchange string   `json:"exchange" csv:"exchange"`
}

// TickerMapping associates a ticker with the company name it trades under
type TickerMapping struct {
	Symbol      string `csv:"symbol"`
	CompanyName string `csv:"companyName"`
}

// Security is implemented by every record the universe filters operate on
type Security interface {
	Ticker() string
	ExchangeName() string
	LastPrice() (float64, bool)
}

func (company *Company) Ticker() string       { return company.Symbol }
func (company *Company) ExchangeName() string { return company.Exchange }

func (company *Company) LastPrice() (float64, bool) {
	return company.Price, true
}

func (company *Company) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", company.Symbol)
	e.Str("Name", company.CompanyName)
	e.Str("Exchange", company.Exchange)
	e.Str("Sector", company.Sector)
	e.Str("Industry", company.Industry)
	e.Float64("Price", company.Price)
}

// CompaniesFrame converts the companies into a frame with one undated row per symbol so
// profile attributes can be joined onto observations
func CompaniesFrame(companies []*Company) *Frame {
	frame := NewFrame()
	for _, col := range []string{"companyName", "sector", "industry", "exchange", "ceo", "website", "compositeFigi"} {
		frame.AddTextColumn(col)
	}
	for _, col := range []string{"mktCap", "volAvg", "beta", "price"} {
		frame.AddColumn(col)
	}

	for _, company := range companies {
		row := NewObservation(company.Symbol, "")
		row.Text["companyName"] = company.CompanyName
		row.Text["sector"] = company.Sector
		row.Text["industry"] = company.Industry
		row.Text["exchange"] = company.Exchange
		row.Text["ceo"] = company.CEO
		row.Text["website"] = company.Website
		if company.CompositeFigi != "" {
			row.Text["compositeFigi"] = company.CompositeFigi
		}
		row.Values["mktCap"] = company.MarketCap
		row.Values["volAvg"] = company.VolumeAvg
		row.Values["beta"] = company.Beta
		row.Values["price"] = company.Price
		frame.Rows = append(frame.Rows, row)
	}

	return frame
}

func (listing *Listing) Ticker() string       { return listing.Symbol }
func (listing *Listing) ExchangeName() string { return listing.Exchange }

func (listing *Listing) LastPrice() (float64, bool) {
	if listing.Price == nil {
		return 0, false
	}
	return *listing.Price, true
}

// Complete reports whether every field of the listing is populated
func (listing *Listing) Complete() bool {
	return listing.Symbol != "" && listing.Name != "" && listing.Exchange != "" && listing.Price != nil
}

func (listing *Listing) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", listing.Symbol)
	e.Str("Name", listing.Name)
	e.Str("Exchange", listing.Exchange)
	if listing.Price != nil {
		e.Float64("Price", *listing.Price)
	}
}
