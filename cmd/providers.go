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
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvscreen/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers <name>",
	Short: "List all providers available or get details about a specific provider",
	Run: func(cmd *cobra.Command, args []string) {

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		builder := strings.Builder{}

		if len(args) > 0 {
			dataProvider, ok := provider.Map[args[0]]
			if !ok {
				log.Fatal().Str("Provider", args[0]).Msg("provider not found; run `pvscreen providers` for a list")
			}

			builder.WriteString(fmt.Sprintf("# %s\n", dataProvider.Name()))
			builder.WriteString(dataProvider.Description())

			builder.WriteString("\n\n## Configuration\n")
			for key, desc := range dataProvider.ConfigDescription() {
				builder.WriteString(fmt.Sprintf("- **%s**: %s\n", key, desc))
			}

			builder.WriteString("\n## Datasets\n")
			datasets := dataProvider.Datasets()
			names := make([]string, 0, len(datasets))
			for name := range datasets {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				dataset := datasets[name]
				builder.WriteString(fmt.Sprintf("- %s (%s): %s\n", name, strings.Join(dataset.Endpoints, ", "), dataset.Description))
			}
		} else {
			builder.WriteString("# Available Providers\n")
			for key, dataProvider := range provider.Map {
				builder.WriteString(fmt.Sprintf("\n## %s (%s)\n", dataProvider.Name(), key))
				builder.WriteString(dataProvider.Description())
			}
		}

		out, err := r.Render(builder.String())
		if err != nil {
			log.Fatal().Err(err).Msg("could not render provider document")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
