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
	"fmt"

	"github.com/penny-vault/pvscreen/backblaze"
	"github.com/penny-vault/pvscreen/data"
	"github.com/penny-vault/pvscreen/library"
	"github.com/penny-vault/pvscreen/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	fetchTickers []string
	fetchUpload  bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [dataset...]",
	Short: "Download, clean and window fundamentals for the company universe",
	Long: `Fetch each dataset for every company in company-profiles.csv (or the tickers given
with --ticker). Rows with malformed dates are dropped, duplicate reports removed and the
remaining rows are restricted to the analysis window before being written to
<dataset>-<lookback>Y.csv. When no datasets are named the fetch.requests setting is used.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		tickers := fetchTickers
		if len(tickers) == 0 {
			companies, err := myLibrary.LoadCompanies(library.CompanyProfilesFile)
			if err != nil {
				log.Fatal().Err(err).Msg("could not load company universe; run `pvscreen universe` first")
			}
			for _, company := range companies {
				tickers = append(tickers, company.Symbol)
			}
		}

		requests := args
		if len(requests) == 0 {
			requests = viper.GetStringSlice("fetch.requests")
		}

		period := analysisPeriod()
		window := analysisWindow()

		outputFiles := make([]string, 0, len(requests))
		for _, datasetName := range requests {
			summary := data.NewRunSummary("fetch", datasetName)
			runCtx := startRun(ctx, summary)

			frame, err := fetchRequest(runCtx, myLibrary, summary, datasetName, period, window, tickers)
			finishRun(runCtx, myLibrary, summary, frame, err)

			outputFiles = append(outputFiles, summary.OutputFile)
		}

		if fetchUpload {
			if err := backblaze.UploadAll(outputFiles, viper.GetString("backblaze.bucket"), viper.GetString("backblaze.directory")); err != nil {
				log.Fatal().Err(err).Msg("upload failed")
			}
		}
	},
}

// fetchRequest runs one dataset through fetch, clean, deduplicate and window and
// saves the result
func fetchRequest(ctx context.Context, myLibrary *library.Library, summary *data.RunSummary, datasetName string,
	period provider.Period, window data.Window, tickers []string) (*data.Frame, error) {
	logger := zerolog.Ctx(ctx)

	request, err := provider.NewRequest("fmp", datasetName, period, fmpConfig())
	if err != nil {
		return nil, err
	}

	logger.Info().Object("Request", request).Int("NumTickers", len(tickers)).Msg("fetching dataset")

	frame, err := request.Fetch(ctx, tickers)
	if err != nil {
		return nil, err
	}
	summary.NumSkipped = len(request.Skipped)

	frame = data.Clean(frame)
	frame = data.Deduplicate(frame)

	frame, err = data.SelectWindow(frame, window)
	if err != nil {
		return nil, err
	}

	fn := library.FileName(datasetName, string(period), window.Lookback)
	if err := myLibrary.SaveFrame(fn, frame); err != nil {
		return nil, fmt.Errorf("save %s: %w", fn, err)
	}
	summary.OutputFile = myLibrary.Path(fn)

	return frame, nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringSliceVarP(&fetchTickers, "ticker", "t", []string{}, "fetch these tickers instead of the company universe")
	fetchCmd.Flags().BoolVar(&fetchUpload, "upload", false, "upload the output files to backblaze")
}
