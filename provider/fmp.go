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
package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvscreen/data"
	"github.com/penny-vault/pvscreen/pkginfo"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	FMPDefaultBaseURL   = "https://financialmodelingprep.com/api/v3"
	FMPDefaultRateLimit = 300
)

type FMP struct{}

type fmpClient struct {
	client  *resty.Client
	limiter *rate.Limiter
}

func (fmp *FMP) Name() string {
	return "Financial Modeling Prep"
}

func (fmp *FMP) ConfigDescription() map[string]string {
	return map[string]string{
		"apiKey":    "Enter your Financial Modeling Prep API key:",
		"rateLimit": "What is the maximum number of requests per minute?",
		"baseURL":   "Base URL of the FMP API (leave blank for the default):",
	}
}

func (fmp *FMP) Description() string {
	return `Financial Modeling Prep publishes company profiles, financial statements and
derived ratios for listed US companies through a JSON REST API. An API key is required.`
}

func (fmp *FMP) Datasets() map[string]Dataset {
	datasets := []Dataset{
		{
			Name:        "financials",
			Description: "Income statement, balance sheet and cash flow statement merged on report date.",
			Endpoints:   []string{"/income-statement/{ticker}", "/balance-sheet-statement/{ticker}", "/cash-flow-statement/{ticker}"},
			Periodic:    true,
		},
		{
			Name:        "financial-ratios",
			Description: "Liquidity, profitability, leverage and valuation ratios.",
			Endpoints:   []string{"/ratios/{ticker}"},
			Periodic:    true,
		},
		{
			Name:        "enterprise-value",
			Description: "Market capitalization, debt and cash used to derive enterprise value.",
			Endpoints:   []string{"/enterprise-values/{ticker}"},
			Periodic:    true,
		},
		{
			Name:        "company-key-metrics",
			Description: "Per share figures and valuation multiples.",
			Endpoints:   []string{"/key-metrics/{ticker}"},
			Periodic:    true,
		},
		{
			Name:        "financial-statement-growth",
			Description: "Year over year growth of financial statement items.",
			Endpoints:   []string{"/financial-growth/{ticker}"},
			Periodic:    true,
		},
		{
			Name:        "income-statement",
			Description: "Income statement from the legacy financials endpoint.",
			Endpoints:   []string{"/financials/income-statement/{ticker}"},
			ValueKey:    "financials",
			Periodic:    true,
		},
		{
			Name:        "balance-sheet-statement",
			Description: "Balance sheet from the legacy financials endpoint.",
			Endpoints:   []string{"/financials/balance-sheet-statement/{ticker}"},
			ValueKey:    "financials",
			Periodic:    true,
		},
		{
			Name:        "cash-flow-statement",
			Description: "Cash flow statement from the legacy financials endpoint.",
			Endpoints:   []string{"/financials/cash-flow-statement/{ticker}"},
			ValueKey:    "financials",
			Periodic:    true,
		},
		{
			Name:        "ratios-legacy",
			Description: "Grouped financial ratios from the legacy endpoint; group names are dropped from column names.",
			Endpoints:   []string{"/financial-ratios/{ticker}"},
			ValueKey:    "ratios",
			LeafNames:   true,
		},
	}

	result := make(map[string]Dataset, len(datasets))
	for _, dataset := range datasets {
		dataset := dataset
		dataset.Fetch = func(ctx context.Context, request *Request, tickers []string) (*data.Frame, error) {
			return fetchDataset(ctx, request, &dataset, tickers)
		}
		result[dataset.Name] = dataset
	}

	return result
}

// Listings downloads the full stock list
func (fmp *FMP) Listings(ctx context.Context, request *Request) ([]*data.Listing, error) {
	logger := zerolog.Ctx(ctx)
	api := newFMPClient(request.Config)

	body, err := api.get(ctx, "/company/stock/list", nil, nil)
	if err != nil {
		return nil, err
	}

	records, err := extractRecords(body, "symbolsList")
	if err != nil {
		logger.Error().Err(err).Msg("could not read stock list")
		return nil, err
	}

	listings := make([]*data.Listing, 0, len(records))
	for _, record := range records {
		listing := &data.Listing{}
		if err := json.Unmarshal([]byte(record.Raw), listing); err != nil {
			logger.Warn().Err(err).Str("Record", record.Raw).Msg("could not decode stock list entry; skipping")
			continue
		}
		listings = append(listings, listing)
	}

	logger.Info().Int("NumListings", len(listings)).Msg("downloaded stock list")
	return listings, nil
}

// Profiles downloads the company profile of each ticker. Tickers without a profile
// are skipped and recorded on the request.
func (fmp *FMP) Profiles(ctx context.Context, request *Request, tickers []string) ([]*data.Company, error) {
	logger := zerolog.Ctx(ctx)
	api := newFMPClient(request.Config)

	companies := make([]*data.Company, 0, len(tickers))
	for _, ticker := range tickers {
		body, err := api.get(ctx, "/company/profile/{ticker}", map[string]string{"ticker": ticker}, nil)
		if err != nil {
			return nil, err
		}

		records, err := extractRecords(body, "profile")
		if errors.Is(err, ErrMissingKey) {
			logger.Warn().Str("Ticker", ticker).Msg("no profile returned for ticker; skipping")
			request.Skipped = append(request.Skipped, ticker)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("profile for %s: %w", ticker, err)
		}

		for _, profile := range records {
			companies = append(companies, companyFromProfile(ticker, profile))
		}
	}

	logger.Info().Int("NumCompanies", len(companies)).Int("NumSkipped", len(request.Skipped)).Msg("downloaded company profiles")
	return companies, nil
}

func companyFromProfile(ticker string, profile gjson.Result) *data.Company {
	return &data.Company{
		Symbol:      ticker,
		CompanyName: profile.Get("companyName").String(),
		Sector:      profile.Get("sector").String(),
		Industry:    profile.Get("industry").String(),
		Exchange:    profile.Get("exchange").String(),
		CEO:         profile.Get("ceo").String(),
		Description: profile.Get("description").String(),
		Website:     profile.Get("website").String(),
		MarketCap:   profile.Get("mktCap").Float(),
		VolumeAvg:   profile.Get("volAvg").Float(),
		Beta:        profile.Get("beta").Float(),
		Price:       profile.Get("price").Float(),
	}
}

func newFMPClient(config map[string]string) *fmpClient {
	baseURL := config["baseURL"]
	if baseURL == "" {
		baseURL = FMPDefaultBaseURL
	}

	rateLimit, err := strconv.Atoi(config["rateLimit"])
	if err != nil || rateLimit <= 0 {
		rateLimit = FMPDefaultRateLimit
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetQueryParam("apikey", config["apiKey"]).
		SetHeader("User-Agent", pkginfo.UserAgent()).
		SetTimeout(60 * time.Second)
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &fmpClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
	}
}

func (api *fmpClient) get(ctx context.Context, path string, pathParams, query map[string]string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	if err := api.limiter.Wait(ctx); err != nil {
		logger.Error().Err(err).Msg("rate limiter failed")
		return nil, err
	}

	resp, err := api.client.R().
		SetContext(ctx).
		SetPathParams(pathParams).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		logger.Error().Err(err).Str("Path", path).Interface("PathParams", pathParams).Msg("fmp request failed")
		return nil, err
	}

	if resp.StatusCode() >= 400 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Path", path).Interface("PathParams", pathParams).Bytes("Body", resp.Body()).Msg("fmp returned an invalid status code")
		return nil, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), path)
	}

	return resp.Body(), nil
}

// tickerFrame requests every endpoint of the dataset for one ticker and joins the
// results on (symbol, date)
func (api *fmpClient) tickerFrame(ctx context.Context, request *Request, dataset *Dataset, ticker string) (*data.Frame, error) {
	var query map[string]string
	if dataset.Periodic {
		query = map[string]string{"period": string(request.Period)}
	}

	var merged *data.Frame
	for _, endpoint := range dataset.Endpoints {
		body, err := api.get(ctx, endpoint, map[string]string{"ticker": ticker}, query)
		if err != nil {
			return nil, err
		}

		records, err := extractRecords(body, dataset.ValueKey)
		if err != nil {
			return nil, err
		}

		frame := recordsFrame(records, ticker, dataset.LeafNames)
		if merged == nil {
			merged = frame
		} else {
			merged = merged.Join(frame, data.OnSymbolDate, data.InnerJoin)
		}
	}

	if merged == nil {
		merged = data.NewFrame()
	}

	return merged, nil
}

func fetchDataset(ctx context.Context, request *Request, dataset *Dataset, tickers []string) (*data.Frame, error) {
	logger := zerolog.Ctx(ctx)
	api := newFMPClient(request.Config)

	result := data.NewFrame()
	for _, ticker := range tickers {
		frame, err := api.tickerFrame(ctx, request, dataset, ticker)
		if errors.Is(err, ErrMissingKey) {
			logger.Warn().Str("Ticker", ticker).Str("Dataset", dataset.Name).Msg("response is missing expected data; skipping ticker")
			request.Skipped = append(request.Skipped, ticker)
			continue
		}
		if err != nil {
			logger.Error().Err(err).Str("Ticker", ticker).Str("Dataset", dataset.Name).Msg("fetch failed")
			return nil, fmt.Errorf("%s for %s: %w", dataset.Name, ticker, err)
		}

		result.Concat(frame)
		logger.Debug().Str("Ticker", ticker).Int("NumRows", frame.Len()).Msg("fetched ticker")
	}

	logger.Info().Str("Dataset", dataset.Name).Int("NumTickers", len(tickers)).Int("NumSkipped", len(request.Skipped)).Int("NumRows", result.Len()).Msg("fetched dataset")
	return result, nil
}
