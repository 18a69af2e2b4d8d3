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
package figi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvscreen/data"
	"github.com/penny-vault/pvscreen/pkginfo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

const (
	OPENFIGI_MAPPING_URL string = "https://api.openfigi.com/v3/mapping"
	maxJobsPerRequest           = 100
)

var (
	ErrInvalidStatusCode = errors.New("invalid status code received")
)

// mappingURL is a variable so tests can point the client at a fake server
var mappingURL = OPENFIGI_MAPPING_URL

type MappingResponse struct {
	Data    []*OpenFigiAsset `json:"data"`
	Warning string           `json:"warning"`
}

type OpenFigiAsset struct {
	Figi                string `json:"figi"`
	SecurityType        string `json:"securityType"`
	MarketSector        string `json:"marketSector"`
	Ticker              string `json:"ticker"`
	Name                string `json:"name"`
	ExchangeCode        string `json:"exchCode"`
	ShareClassFIGI      string `json:"shareClassFIGI"`
	CompositeFIGI       string `json:"compositeFIGI"`
	SecurityType2       string `json:"securityType2"`
	SecurityDescription string `json:"securityDescription"`
}

type OpenFigiQuery struct {
	IdType                  string `json:"idType"`
	IdValue                 string `json:"idValue"`
	ExchangeCode            string `json:"exchCode"`
	MarketSectorDescription string `json:"marketSecDes"`
}

func rateLimit() *rate.Limiter {
	dur := (time.Second * 6) / 25
	openFigiRate := rate.Every(dur)
	return rate.NewLimiter(openFigiRate, 10)
}

func mapFigis(ctx context.Context, query []*OpenFigiQuery) ([]*MappingResponse, error) {
	if len(query) > maxJobsPerRequest {
		log.Error().Int("NumJobs", len(query)).Msg("programming error - too many tickers in request")
	}

	apiKey := viper.GetString("openfigi.apikey")
	mappingResponse := make([]*MappingResponse, 0)

	client := resty.New()
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", pkginfo.UserAgent()).
		SetHeader("X-OPENFIGI-APIKEY", apiKey).
		SetBody(query).
		SetResult(&mappingResponse).
		Post(mappingURL)

	log.Debug().Str("URL", mappingURL).Int("NumTickers", len(query)).Msg("map tickers to FIGIs")

	if err != nil {
		log.Error().Err(err).Msg("openfigi api call errored out")
		return nil, err
	}

	if resp.StatusCode() >= 400 {
		log.Error().Int("StatusCode", resp.StatusCode()).Str("Body", string(resp.Body())).Msg("openfigi api call returned invalid status code")
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, resp.StatusCode())
	}

	return mappingResponse, nil
}

// Enrich fills in the composite FIGI of each company that does not have one. Known
// tickers are served from the cache; the rest are looked up with OpenFIGI in
// batches of 100.
func Enrich(ctx context.Context, companies ...*data.Company) error {
	cache := MapInstance()

	missing := make([]string, 0, len(companies))
	for _, company := range companies {
		if company.CompositeFigi != "" {
			cache.Set(company.Symbol, company.CompositeFigi)
			continue
		}

		if compositeFigi, ok := cache.Get(company.Symbol); ok {
			company.CompositeFigi = compositeFigi
			continue
		}

		missing = append(missing, company.Symbol)
	}

	if len(missing) == 0 {
		return nil
	}

	figiMap, err := LookupFigi(ctx, missing, rateLimit())
	if err != nil {
		return err
	}

	numMapped := 0
	for _, company := range companies {
		if company.CompositeFigi != "" {
			continue
		}

		if asset, ok := figiMap[company.Symbol]; ok && asset.CompositeFIGI != "" {
			company.CompositeFigi = asset.CompositeFIGI
			cache.Set(company.Symbol, asset.CompositeFIGI)
			numMapped++
			continue
		}

		log.Warn().Str("Symbol", company.Symbol).Msg("no composite figi found for ticker")
	}

	log.Info().Int("NumRequested", len(missing)).Int("NumMapped", numMapped).Msg("enriched companies with composite figi")
	return nil
}

// LookupFigi maps tickers on US exchanges to their OpenFIGI descriptions
func LookupFigi(ctx context.Context, tickers []string, rateLimiter *rate.Limiter) (map[string]*OpenFigiAsset, error) {
	result := make(map[string]*OpenFigiAsset)

	for start := 0; start < len(tickers); start += maxJobsPerRequest {
		end := min(start+maxJobsPerRequest, len(tickers))

		query := make([]*OpenFigiQuery, 0, end-start)
		for _, ticker := range tickers[start:end] {
			query = append(query, &OpenFigiQuery{
				IdType:                  "TICKER",
				IdValue:                 ticker,
				ExchangeCode:            "US",
				MarketSectorDescription: "Equity",
			})
		}

		if err := rateLimiter.Wait(ctx); err != nil {
			log.Error().Err(err).Msg("rate limiter failed")
			return nil, err
		}

		mappingResponse, err := mapFigis(ctx, query)
		if err != nil {
			return nil, err
		}

		// responses are returned in the same order as the jobs
		for idx, resp := range mappingResponse {
			if idx >= len(query) {
				break
			}
			for _, figiAsset := range resp.Data {
				if figiAsset.CompositeFIGI != "" {
					result[query[idx].IdValue] = figiAsset
					break
				}
			}
		}
	}

	return result, nil
}
