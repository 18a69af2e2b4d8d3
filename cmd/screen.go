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
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/penny-vault/pvscreen/backblaze"
	"github.com/penny-vault/pvscreen/data"
	"github.com/penny-vault/pvscreen/library"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	screenCriteria []string
	screenLatest   bool
	screenParquet  bool
	screenUpload   bool
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen the fetched fundamentals against the configured criteria",
	Long: `Join every <dataset>-<lookback>Y.csv file with the company profiles, compute
trailing statistics over the analysis window and keep the companies whose report year
satisfies every criterion. Criteria are read from the screen.criteria setting or given
as --criterion column:min:max; bounds are exclusive and missing values pass.

The full history of the qualified companies is written to screen-<year>.csv and the
statistics to statistics-<lookback>Y-<year>.csv.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		window := analysisWindow()
		criteria := screenCriteriaFromConfig(window.Lookback)

		summary := data.NewRunSummary("screen", fmt.Sprintf("%d/%dY", window.ReportYear, window.Lookback))
		ctx = startRun(ctx, summary)

		qualified, outputFiles, err := runScreen(ctx, myLibrary, summary, window, criteria)
		finishRun(ctx, myLibrary, summary, qualified, err)

		if screenUpload {
			if err := backblaze.UploadAll(outputFiles, viper.GetString("backblaze.bucket"), viper.GetString("backblaze.directory")); err != nil {
				log.Fatal().Err(err).Msg("upload failed")
			}
		}

		printScreenSummary(window, criteria, qualified)
	},
}

func screenCriteriaFromConfig(lookback int) data.Criteria {
	if len(screenCriteria) > 0 {
		criteria := make(data.Criteria, 0, len(screenCriteria))
		for _, spec := range screenCriteria {
			criterion, err := data.ParseCriterion(spec)
			if err != nil {
				log.Fatal().Err(err).Str("Criterion", spec).Msg("could not parse criterion")
			}
			criteria = append(criteria, criterion)
		}
		return criteria
	}

	if viper.IsSet("screen.criteria") {
		var criteria data.Criteria
		if err := viper.UnmarshalKey("screen.criteria", &criteria); err != nil {
			log.Fatal().Err(err).Msg("could not read screen.criteria")
		}
		return criteria
	}

	stat, err := data.ParseStatistic(viper.GetString("screen.statistic"))
	if err != nil {
		log.Fatal().Err(err).Msg("could not read screen.statistic")
	}

	return data.DefaultCriteria(lookback, stat)
}

// runScreen returns the full history of the qualified companies
func runScreen(ctx context.Context, myLibrary *library.Library, summary *data.RunSummary, window data.Window,
	criteria data.Criteria) (*data.Frame, []string, error) {
	logger := zerolog.Ctx(ctx)

	stat, err := data.ParseStatistic(viper.GetString("screen.statistic"))
	if err != nil {
		return nil, nil, err
	}

	prepared, err := myLibrary.Prepare(string(analysisPeriod()), window.Lookback)
	if err != nil {
		return nil, nil, err
	}

	prepared, err = data.SelectWindow(prepared, window)
	if err != nil {
		return nil, nil, err
	}

	stats, err := data.CalculateStats(prepared, stat, window, viper.GetStringSlice("screen.columns")...)
	if err != nil {
		return nil, nil, err
	}

	var report *data.Frame
	if screenLatest {
		report = data.Latest(prepared).Join(stats, data.OnSymbol, data.InnerJoin)
	} else {
		report = prepared.FilterYear(window.ReportYear).Join(stats, data.OnSymbolYear, data.InnerJoin)
	}

	passed, err := data.Screen(report, criteria)
	if err != nil {
		return nil, nil, err
	}

	qualified := prepared.FilterSymbols(passed.Symbols())
	summary.NumSkipped = len(report.Symbols()) - len(passed.Symbols())

	logger.Info().Int("NumCandidates", len(report.Symbols())).Int("NumQualified", len(passed.Symbols())).Msg("screen complete")

	screenFn := library.ScreenFileName(window.ReportYear)
	if err := myLibrary.SaveFrame(screenFn, qualified); err != nil {
		return nil, nil, err
	}
	summary.OutputFile = myLibrary.Path(screenFn)

	records := stats.Records()
	statsFn := library.StatisticsFileName(window.Lookback, window.ReportYear, "csv")
	if err := myLibrary.SaveStatistics(statsFn, records); err != nil {
		return nil, nil, err
	}

	outputFiles := []string{myLibrary.Path(screenFn), myLibrary.Path(statsFn)}

	if screenParquet {
		parquetFn := library.StatisticsFileName(window.Lookback, window.ReportYear, "parquet")
		if err := myLibrary.SaveParquet(parquetFn, records); err != nil {
			return nil, nil, err
		}
		outputFiles = append(outputFiles, myLibrary.Path(parquetFn))
	}

	return qualified, outputFiles, nil
}

func printScreenSummary(window data.Window, criteria data.Criteria, qualified *data.Frame) {
	var sb strings.Builder
	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}

	fmt.Fprintf(&sb, "%s\n\nReport year: %s\nLookback: %s\n\n",
		lipgloss.NewStyle().Bold(true).Render("SCREEN RESULTS"),
		keyword(fmt.Sprintf("%d", window.ReportYear)),
		keyword(fmt.Sprintf("%d years", window.Lookback)),
	)

	fmt.Fprintln(&sb, lipgloss.NewStyle().Bold(true).Render("Criteria"))
	for _, criterion := range criteria {
		fmt.Fprintf(&sb, "\n%s", keyword(criterion.String()))
	}

	symbols := qualified.Symbols()
	fmt.Fprintf(&sb, "\n\n%s\n\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Qualified companies (%d)", len(symbols))))
	if len(symbols) == 0 {
		fmt.Fprint(&sb, "none")
	} else {
		fmt.Fprint(&sb, keyword(strings.Join(symbols, ", ")))
	}

	fmt.Println(
		lipgloss.NewStyle().
			Width(60).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Render(sb.String()),
	)
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringArrayVarP(&screenCriteria, "criterion", "c", []string{}, "screening criterion as column:min:max; may be repeated")
	screenCmd.Flags().BoolVar(&screenLatest, "latest", false, "screen each company's most recent report instead of the report year")
	screenCmd.Flags().BoolVar(&screenParquet, "parquet", false, "also write the statistics as parquet")
	screenCmd.Flags().BoolVar(&screenUpload, "upload", false, "upload the output files to backblaze")

	screenCmd.Flags().String("stat", "median", "trailing statistic (mean, median or pct-change)")
	if err := viper.BindPFlag("screen.statistic", screenCmd.Flags().Lookup("stat")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for stat failed")
	}

	screenCmd.Flags().StringSlice("column", []string{"returnOnEquity"}, "columns to compute the trailing statistic for")
	if err := viper.BindPFlag("screen.columns", screenCmd.Flags().Lookup("column")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for column failed")
	}
}
