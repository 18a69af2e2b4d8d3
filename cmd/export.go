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
	"github.com/penny-vault/pvscreen/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	exportTable      string
	exportStatsTable string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file...>",
	Short: "Export observation and statistic files to PostgreSQL",
	Long: `Load each observation file from the data directory and upsert its values into the
observations table in long form (symbol, event_date, metric, value). Statistic files
(statistics-*.csv or statistics-*.parquet) are written to the statistics table
instead. Tables are created when they do not exist.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if viper.GetString("db.url") == "" {
			log.Fatal().Msg("db.url must be set to export data")
		}

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		for _, fn := range args {
			if library.IsStatisticsFile(fn) {
				records, err := myLibrary.LoadStatistics(fn)
				if err != nil {
					log.Fatal().Err(err).Str("FileName", fn).Msg("could not load statistics")
				}

				if err := myLibrary.ExportStatistics(ctx, exportStatsTable, records); err != nil {
					log.Fatal().Err(err).Str("FileName", fn).Str("Table", exportStatsTable).Msg("export failed")
				}

				if len(records) > 0 {
					stored, err := myLibrary.LoadStatisticsDB(ctx, exportStatsTable, int(records[0].Year))
					if err != nil {
						log.Fatal().Err(err).Str("Table", exportStatsTable).Msg("could not read back exported statistics")
					}
					log.Info().Str("Table", exportStatsTable).Int32("Year", records[0].Year).
						Int("NumSymbols", len(data.FrameFromRecords(stored).Symbols())).Msg("statistics stored for year")
				}

				log.Info().Str("FileName", fn).Str("Table", exportStatsTable).Int("NumRecords", len(records)).Msg("exported statistics")
				continue
			}

			frame, err := myLibrary.LoadFrame(fn)
			if err != nil {
				log.Fatal().Err(err).Str("FileName", fn).Msg("could not load observations")
			}

			if err := myLibrary.ExportFrame(ctx, exportTable, frame); err != nil {
				log.Fatal().Err(err).Str("FileName", fn).Str("Table", exportTable).Msg("export failed")
			}

			log.Info().Str("FileName", fn).Str("Table", exportTable).Int("NumRows", frame.Len()).Msg("exported observations")
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportTable, "table", "fundamentals", "table that receives observations")
	exportCmd.Flags().StringVar(&exportStatsTable, "stats-table", "fundamental_statistics", "table that receives statistics")
}
