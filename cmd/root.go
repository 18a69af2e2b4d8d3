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

	"github.com/penny-vault/pvscreen/data"
	"github.com/penny-vault/pvscreen/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvscreen",
	Short: "pvscreen screens companies on the quality of their reported fundamentals",
	Long: `pvscreen is a command line utility for building a fundamental stock screen
from financialmodelingprep.com data. Work is split into stages that each write
CSV files into the data directory so any stage can be re-run on its own:

	* universe: list the securities on the major US exchanges and save the
	  profile of every company priced above the minimum
	* fetch: download financial statements and ratios for the universe, clean
	  them and restrict them to the analysis window
	* screen: compute trailing statistics and keep the companies that satisfy
	  every screening criterion

Results can optionally be exported to PostgreSQL or uploaded to backblaze.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := zerolog.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			log.Warn().Err(err).Str("Level", viper.GetString("log.level")).Msg("unknown log level, using info")
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvscreen.toml)")

	rootCmd.PersistentFlags().String("data-dir", ".", "directory that holds the CSV files of each stage")
	if err := viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for data-dir failed")
	}

	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for log-level failed")
	}

	rootCmd.PersistentFlags().String("db-url", "", "PostgreSQL connection string used to record runs and export results")
	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db-url failed")
	}

	rootCmd.PersistentFlags().String("period", "annual", "reporting period (annual or quarter)")
	if err := viper.BindPFlag("analysis.period", rootCmd.PersistentFlags().Lookup("period")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for period failed")
	}

	rootCmd.PersistentFlags().Int("year", 2019, "last year of the analysis window")
	if err := viper.BindPFlag("analysis.report_year", rootCmd.PersistentFlags().Lookup("year")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for year failed")
	}

	rootCmd.PersistentFlags().Int("lookback", 10, "number of years in the analysis window")
	if err := viper.BindPFlag("analysis.lookback", rootCmd.PersistentFlags().Lookup("lookback")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for lookback failed")
	}

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("fmp.rate_limit", provider.FMPDefaultRateLimit)
	viper.SetDefault("fmp.base_url", provider.FMPDefaultBaseURL)

	viper.SetDefault("universe.exchanges", data.MajorExchanges)
	viper.SetDefault("universe.min_price", data.DefaultMinimumPrice)

	viper.SetDefault("analysis.report_year", 2019)
	viper.SetDefault("analysis.lookback", 10)
	viper.SetDefault("analysis.window_policy", string(data.WindowStrict))
	viper.SetDefault("analysis.period", string(provider.PeriodAnnual))

	viper.SetDefault("fetch.requests", []string{
		"financials",
		"financial-ratios",
		"financial-statement-growth",
		"company-key-metrics",
		"enterprise-value",
	})

	viper.SetDefault("screen.statistic", string(data.StatMedian))
	viper.SetDefault("screen.columns", []string{"returnOnEquity"})

	viper.SetDefault("backblaze.directory", "pvscreen")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvscreen" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvscreen")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
