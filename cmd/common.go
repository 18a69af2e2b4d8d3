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
	"strconv"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pvscreen/data"
	"github.com/penny-vault/pvscreen/healthcheck"
	"github.com/penny-vault/pvscreen/library"
	"github.com/penny-vault/pvscreen/provider"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// openLibrary opens the data directory and connects to the database when one is
// configured
func openLibrary(ctx context.Context) *library.Library {
	myLibrary, err := library.New(viper.GetString("library.name"), viper.GetString("data.dir"))
	if err != nil {
		log.Fatal().Err(err).Str("DataDir", viper.GetString("data.dir")).Msg("could not open data directory")
	}

	myLibrary.DBUrl = viper.GetString("db.url")
	if myLibrary.DBUrl != "" {
		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
	}

	return myLibrary
}

func fmpConfig() map[string]string {
	return map[string]string{
		"apiKey":    viper.GetString("fmp.apikey"),
		"rateLimit": strconv.Itoa(viper.GetInt("fmp.rate_limit")),
		"baseURL":   viper.GetString("fmp.base_url"),
	}
}

func analysisPeriod() provider.Period {
	period, err := provider.ParsePeriod(viper.GetString("analysis.period"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analysis.period")
	}
	return period
}

func analysisWindow() data.Window {
	policy, err := data.ParseWindowPolicy(viper.GetString("analysis.window_policy"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analysis.window_policy")
	}

	window := data.Window{
		ReportYear: viper.GetInt("analysis.report_year"),
		Lookback:   viper.GetInt("analysis.lookback"),
		Policy:     policy,
	}

	if err := window.Validate(); err != nil {
		log.Fatal().Err(err).Object("Window", window).Msg("invalid analysis window")
	}

	return window
}

// startRun attaches a logger carrying the run id to ctx and notifies the health check
func startRun(ctx context.Context, summary *data.RunSummary) context.Context {
	logger := log.With().Str("RunID", summary.ID.String()).Str("Command", summary.Command).Logger()
	ctx = logger.WithContext(ctx)

	if err := healthcheck.Start(ctx, viper.GetString("healthchecks.ping_id")); err != nil {
		logger.Warn().Err(err).Msg("could not signal start to healthchecks.io")
	}

	return ctx
}

// finishRun logs the outcome of a run, records it in the database and notifies the
// health check
func finishRun(ctx context.Context, myLibrary *library.Library, summary *data.RunSummary, frame *data.Frame, runErr error) {
	logger := zerolog.Ctx(ctx)
	pingID := viper.GetString("healthchecks.ping_id")

	summary.Finish(frame)

	if runErr != nil {
		if err := healthcheck.Fail(ctx, pingID, runErr.Error()); err != nil {
			logger.Warn().Err(err).Msg("could not signal failure to healthchecks.io")
		}
		logger.Fatal().Err(runErr).Object("Run", summary).Msg("run failed")
	}

	if myLibrary.Pool != nil {
		if err := myLibrary.SaveRun(ctx, summary); err != nil {
			logger.Warn().Err(err).Msg("could not record run in database")
		}
	}

	msg := fmt.Sprintf("%s finished: %d symbols, %d observations, %d skipped", summary.Command,
		summary.NumSymbols, summary.NumObservations, summary.NumSkipped)
	if err := healthcheck.Ping(ctx, pingID, msg); err != nil {
		logger.Warn().Err(err).Msg("could not signal success to healthchecks.io")
	}

	logger.Info().Object("Run", summary).Str("RunTime", durafmt.Parse(summary.Duration()).LimitFirstN(2).String()).Msg(msg)
}
