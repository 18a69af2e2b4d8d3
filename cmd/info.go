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

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	infoPlain bool
	infoWidth int
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Summarize the fetched fundamentals and screen results",
	Long: `Describe the data directory: the size of the company universe, every fetched
<dataset>-<lookback>Y.csv file with its year range, the screen-<year>.csv outputs with
their matching statistics files and, when db.url is set, the most recent runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		summary, err := myLibrary.Summary(ctx)
		if err != nil {
			log.Fatal().Err(err).Str("DataDir", myLibrary.Dir).Msg("could not summarize data directory")
		}

		if infoPlain {
			fmt.Print(summary)
			return
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(infoWidth),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create markdown renderer")
		}

		out, err := renderer.Render(summary)
		if err != nil {
			log.Fatal().Err(err).Msg("could not render summary")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&infoPlain, "plain", false, "print the summary as markdown without styling")
	infoCmd.Flags().IntVar(&infoWidth, "width", 100, "wrap the rendered summary at this many columns")
}
