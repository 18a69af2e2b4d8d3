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
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DatasetInfo describes one CSV file of the library
type DatasetInfo struct {
	FileName   string
	NumRows    int
	NumSymbols int
	FirstYear  int
	LastYear   int
	Modified   time.Time
}

// Datasets inspects every fetched frame file in the library directory. Company
// profiles, screen outputs and statistic records are skipped.
func (myLibrary *Library) Datasets() ([]*DatasetInfo, error) {
	matches, err := filepath.Glob(myLibrary.Path("*.csv"))
	if err != nil {
		return nil, err
	}

	datasets := make([]*DatasetInfo, 0, len(matches))
	for _, match := range matches {
		fn := filepath.Base(match)
		if fn == CompanyProfilesFile || fn == TickerMappingFile || IsStatisticsFile(fn) || IsScreenFile(fn) {
			continue
		}

		stat, err := os.Stat(match)
		if err != nil {
			return nil, err
		}

		frame, err := myLibrary.LoadFrame(fn)
		if err != nil {
			continue
		}

		info := &DatasetInfo{
			FileName:   fn,
			NumRows:    frame.Len(),
			NumSymbols: len(frame.Symbols()),
			Modified:   stat.ModTime(),
		}

		if years := frame.Years(); len(years) > 0 {
			info.FirstYear = years[0]
			info.LastYear = years[len(years)-1]
		}

		datasets = append(datasets, info)
	}

	return datasets, nil
}

// ScreenInfo describes the output of one screen run
type ScreenInfo struct {
	FileName     string
	NumQualified int
	Statistics   []string
	Modified     time.Time
}

// Screens lists the screen outputs in the library along with the statistic files
// written for the same report year
func (myLibrary *Library) Screens() ([]*ScreenInfo, error) {
	matches, err := filepath.Glob(myLibrary.Path("screen-*.csv"))
	if err != nil {
		return nil, err
	}

	statMatches, err := filepath.Glob(myLibrary.Path("statistics-*"))
	if err != nil {
		return nil, err
	}

	screens := make([]*ScreenInfo, 0, len(matches))
	for _, match := range matches {
		fn := filepath.Base(match)

		stat, err := os.Stat(match)
		if err != nil {
			return nil, err
		}

		info := &ScreenInfo{
			FileName:   fn,
			Statistics: []string{},
			Modified:   stat.ModTime(),
		}

		if frame, err := myLibrary.LoadFrame(fn); err == nil {
			info.NumQualified = len(frame.Symbols())
		}

		// statistics-<lookback>Y-<year>.<ext> pairs with screen-<year>.csv
		year := strings.TrimSuffix(strings.TrimPrefix(fn, "screen-"), ".csv")
		for _, statMatch := range statMatches {
			statFn := filepath.Base(statMatch)
			if strings.HasSuffix(strings.TrimSuffix(statFn, filepath.Ext(statFn)), "-"+year) {
				info.Statistics = append(info.Statistics, statFn)
			}
		}

		screens = append(screens, info)
	}

	return screens, nil
}

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString(fmt.Sprintf("# %s\n", myLibrary.Name)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("Data directory: %s\n\n", myLibrary.Dir)); err != nil {
		return "", err
	}

	// Universe size
	numCompanies := 0
	if companies, err := myLibrary.LoadCompanies(CompanyProfilesFile); err == nil {
		numCompanies = len(companies)
	}

	if _, err := builder.WriteString(p.Sprintf("  * Companies in Universe: %d\n", numCompanies)); err != nil {
		return "", err
	}

	datasets, err := myLibrary.Datasets()
	if err != nil {
		return "", err
	}

	totalRecords := 0
	lastUpdated := time.Time{}
	for _, dataset := range datasets {
		totalRecords += dataset.NumRows
		if dataset.Modified.After(lastUpdated) {
			lastUpdated = dataset.Modified
		}
	}

	if _, err := builder.WriteString(p.Sprintf("  * Data Files: %d\n", len(datasets))); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Total Records: %d\n\n", totalRecords)); err != nil {
		return "", err
	}

	// Last updated time
	if lastUpdated.Equal(time.Time{}) {
		if _, err := builder.WriteString("Last Updated: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(lastUpdated)
		if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, lastUpdated.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	// Datasets
	if _, err := builder.WriteString("## Datasets\n\n"); err != nil {
		return "", err
	}

	if len(datasets) == 0 {
		if _, err := builder.WriteString("No fundamentals fetched yet. Run `pvscreen universe` and then `pvscreen fetch` to populate the data directory.\n"); err != nil {
			return "", err
		}
	}

	for _, dataset := range datasets {
		years := "no dated rows"
		if dataset.FirstYear != 0 {
			years = fmt.Sprintf("%d - %d", dataset.FirstYear, dataset.LastYear)
		}

		if _, err := builder.WriteString(p.Sprintf("  * %s (%s): %d rows, %d symbols\n", dataset.FileName, years,
			dataset.NumRows, dataset.NumSymbols)); err != nil {
			return "", err
		}
	}

	screens, err := myLibrary.Screens()
	if err != nil {
		return "", err
	}

	if len(screens) > 0 {
		if _, err := builder.WriteString("\n## Screens\n\n"); err != nil {
			return "", err
		}

		for _, screen := range screens {
			line := p.Sprintf("  * %s: %d qualified companies, %s", screen.FileName, screen.NumQualified,
				timeago.English.Format(screen.Modified))
			if len(screen.Statistics) > 0 {
				line += fmt.Sprintf(" (statistics: %s)", strings.Join(screen.Statistics, ", "))
			}
			if _, err := builder.WriteString(line + "\n"); err != nil {
				return "", err
			}
		}
	}

	// Recent runs are only known when a database is configured
	if myLibrary.Pool != nil {
		runs, err := myLibrary.Runs(ctx, 10)
		if err != nil {
			return "", err
		}

		if _, err := builder.WriteString("\n## Recent runs\n\n"); err != nil {
			return "", err
		}

		for _, run := range runs {
			if _, err := builder.WriteString(p.Sprintf("  * %s %s %s: %d symbols, %d skipped [%s]\n", run.StartTime.Local().Format("2006-01-02 15:04"),
				run.Command, run.Request, run.NumSymbols, run.NumSkipped, run.ID.String()[:6])); err != nil {
				return "", err
			}
		}
	}

	return builder.String(), nil
}
