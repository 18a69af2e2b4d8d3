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
	"github.com/rs/zerolog/log"
)

const (
	DefaultMinimumPrice = 5.00
)

// MajorExchanges are the exchange names the stock list uses for the primary US venues
var MajorExchanges = []string{
	"Nasdaq Global Select",
	"NasdaqGS",
	"Nasdaq",
	"New York Stock Exchange",
	"NYSE",
	"NYSE American",
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, val := range values {
		set[val] = struct{}{}
	}
	return set
}

func selectBy[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// SelectSectors keeps companies whose sector is one of sectors
func SelectSectors(companies []*Company, sectors ...string) []*Company {
	allowed := toSet(sectors)
	out := selectBy(companies, func(company *Company) bool {
		_, ok := allowed[company.Sector]
		return ok
	})

	log.Info().Strs("Sectors", sectors).Int("NumCompanies", len(out)).Msg("selected companies by sector")
	return out
}

// SelectIndustries keeps companies whose industry is one of industries
func SelectIndustries(companies []*Company, industries ...string) []*Company {
	allowed := toSet(industries)
	out := selectBy(companies, func(company *Company) bool {
		_, ok := allowed[company.Industry]
		return ok
	})

	log.Info().Strs("Industries", industries).Int("NumCompanies", len(out)).Msg("selected companies by industry")
	return out
}

// SelectExchanges keeps securities listed on one of exchanges
func SelectExchanges[T Security](securities []T, exchanges ...string) []T {
	allowed := toSet(exchanges)
	out := selectBy(securities, func(security T) bool {
		_, ok := allowed[security.ExchangeName()]
		return ok
	})

	log.Info().Strs("Exchanges", exchanges).Int("NumCompanies", len(out)).Msg("selected companies by exchange")
	return out
}

// SelectMinimumPrice keeps securities whose price is at least minPrice. Securities
// without a price are dropped.
func SelectMinimumPrice[T Security](securities []T, minPrice float64) []T {
	out := selectBy(securities, func(security T) bool {
		price, ok := security.LastPrice()
		return ok && price >= minPrice
	})

	log.Info().Float64("MinPrice", minPrice).Int("NumCompanies", len(out)).Msg("selected companies by price")
	return out
}

// DropIncomplete removes stock list rows that are missing any field
func DropIncomplete(listings []*Listing) []*Listing {
	out := selectBy(listings, func(listing *Listing) bool {
		return listing.Complete()
	})

	log.Info().Int("NumListings", len(listings)).Int("NumComplete", len(out)).Msg("dropped incomplete listings")
	return out
}

// TickerMappings pairs each listed ticker with its company name. Listings without a
// name are logged and skipped.
func TickerMappings(listings []*Listing) []*TickerMapping {
	mappings := make([]*TickerMapping, 0, len(listings))
	for _, listing := range listings {
		if listing.Name == "" {
			log.Warn().Str("Symbol", listing.Symbol).Msg("listing has no company name; skipping")
			continue
		}
		mappings = append(mappings, &TickerMapping{
			Symbol:      listing.Symbol,
			CompanyName: listing.Name,
		})
	}
	return mappings
}
