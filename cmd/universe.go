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
package cmd

import (
	"context"

	"github.com/penny-vault/pvscreen/data"
	"github.com/penny-vault/pvscreen/figi"
	"github.com/penny-vault/pvscreen/library"
	"github.com/penny-vault/pvscreen/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Build the list of companies to screen",
	Long: `Download the stock list, keep complete listings on the configured exchanges that
trade at or above the minimum price and save the profile of each remaining company to
company-profiles.csv. The mapping of every ticker to its company name is saved to
ticker-company-mapping.csv.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		summary := data.NewRunSummary("universe", "fmp")
		ctx = startRun(ctx, summary)

		companies, err := buildUniverse(ctx, myLibrary, summary)
		finishRun(ctx, myLibrary, summary, data.CompaniesFrame(companies), err)
	},
}

func buildUniverse(ctx context.Context, myLibrary *library.Library, summary *data.RunSummary) ([]*data.Company, error) {
	logger := zerolog.Ctx(ctx)

	request, err := provider.NewRequest("fmp", "", analysisPeriod(), fmpConfig())
	if err != nil {
		return nil, err
	}

	universe, ok := provider.Map[request.Provider].(provider.UniverseProvider)
	if !ok {
		return nil, provider.ErrDatasetNotFound
	}

	listings, err := universe.Listings(ctx, request)
	if err != nil {
		return nil, err
	}

	if err := myLibrary.SaveTickerMappings(library.TickerMappingFile, data.TickerMappings(listings)); err != nil {
		return nil, err
	}

	listings = data.DropIncomplete(listings)
	listings = data.SelectExchanges(listings, viper.GetStringSlice("universe.exchanges")...)
	listings = data.SelectMinimumPrice(listings, viper.GetFloat64("universe.min_price"))

	tickers := make([]string, len(listings))
	for idx, listing := range listings {
		tickers[idx] = listing.Symbol
	}

	logger.Info().Int("NumTickers", len(tickers)).Msg("fetching company profiles")

	companies, err := universe.Profiles(ctx, request, tickers)
	if err != nil {
		return nil, err
	}
	summary.NumSkipped = len(request.Skipped)

	if sectors := viper.GetStringSlice("universe.sectors"); len(sectors) > 0 {
		companies = data.SelectSectors(companies, sectors...)
	}

	if industries := viper.GetStringSlice("universe.industries"); len(industries) > 0 {
		companies = data.SelectIndustries(companies, industries...)
	}

	if viper.GetString("openfigi.apikey") != "" {
		if previous, err := myLibrary.LoadCompanies(library.CompanyProfilesFile); err == nil {
			figi.LoadCache(previous)
		}

		if err := figi.Enrich(ctx, companies...); err != nil {
			logger.Warn().Err(err).Msg("could not enrich companies with composite figi")
		}
	}

	if err := myLibrary.SaveCompanies(library.CompanyProfilesFile, companies); err != nil {
		return nil, err
	}
	summary.OutputFile = myLibrary.Path(library.CompanyProfilesFile)

	return companies, nil
}

func init() {
	rootCmd.AddCommand(universeCmd)

	universeCmd.Flags().StringSlice("sector", []string{}, "only keep companies in these sectors")
	if err := viper.BindPFlag("universe.sectors", universeCmd.Flags().Lookup("sector")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag failed")
	}

	universeCmd.Flags().Float64("min-price", 5.0, "minimum last price of a security")
	if err := viper.BindPFlag("universe.min_price", universeCmd.Flags().Lookup("min-price")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag failed")
	}
}
