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
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvscreen/db"
	"github.com/penny-vault/pvscreen/library"
	"github.com/penny-vault/pvscreen/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type fmpSettings struct {
	APIKey    string `toml:"apikey"`
	RateLimit int    `toml:"rate_limit"`
}

type dbSettings struct {
	URL string `toml:"url,omitempty"`
}

type openfigiSettings struct {
	APIKey string `toml:"apikey,omitempty"`
}

type configFile struct {
	Library  library.Library  `toml:"library"`
	Data     dataSettings     `toml:"data"`
	FMP      fmpSettings      `toml:"fmp"`
	DB       dbSettings       `toml:"db"`
	OpenFIGI openfigiSettings `toml:"openfigi"`
}

type dataSettings struct {
	Dir string `toml:"dir"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather API keys and storage settings and write the config file",
	Run: func(cmd *cobra.Command, args []string) {
		config := configFile{
			FMP: fmpSettings{RateLimit: provider.FMPDefaultRateLimit},
		}

		form := huh.NewForm(
			// Name the library and pick where its files live
			huh.NewGroup(
				huh.NewInput().
					Title("Give the library a name:").
					Value(&config.Library.Name),

				huh.NewInput().
					Title("Which directory should CSV files be written to?").
					Value(&config.Data.Dir).
					Validate(func(dir string) error {
						return os.MkdirAll(dir, 0755)
					}),
			),

			// API keys
			huh.NewGroup(
				huh.NewInput().
					Title("financialmodelingprep.com API key:").
					Value(&config.FMP.APIKey),

				huh.NewInput().
					Title("OpenFIGI API key (optional):").
					Value(&config.OpenFIGI.APIKey),
			),

			// Optional database
			huh.NewGroup(
				huh.NewInput().
					Title("Optional DSN for recording runs in PostgreSQL (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&config.DB.URL).
					Validate(func(dsn string) error {
						if dsn == "" {
							return nil
						}
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		config.Library.Dir = config.Data.Dir

		if config.DB.URL != "" {
			log.Info().Msg("creating database tables")

			if err := db.Migrate(config.DB.URL); err != nil {
				log.Fatal().Err(err).Msg("error running database migration")
			}

			log.Info().Msg("database tables created")
		}

		// save settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvscreen.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving settings to config file")
		configData, err := toml.Marshal(config)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("pvscreen has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
