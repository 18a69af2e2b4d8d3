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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvscreen/data"
	"github.com/rs/zerolog/log"
)

const (
	CompanyProfilesFile = "company-profiles.csv"
	TickerMappingFile   = "ticker-company-mapping.csv"
)

var (
	ErrNoData = errors.New("no data files found")
)

// Library is a directory of CSV files produced by the pipeline stages. Each stage
// reads the files written by the previous one so stages can be run separately.
type Library struct {
	Name  string `toml:"name"`
	Dir   string `toml:"dir"`
	DBUrl string `toml:"-"`

	Pool *pgxpool.Pool `toml:"-"`
}

// New opens the library in dir, creating the directory if needed
func New(name, dir string) (*Library, error) {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if name == "" {
		name = filepath.Base(dir)
	}

	return &Library{
		Name: name,
		Dir:  dir,
	}, nil
}

// FileName returns the name of the file holding a request's cleaned observations,
// e.g. financial-ratios-5Y.csv or financial-ratios-quarter-5Y.csv
func FileName(request, period string, lookback int) string {
	name := slug.Make(request)
	if period != "" && period != "annual" {
		name = fmt.Sprintf("%s-%s", name, slug.Make(period))
	}
	return fmt.Sprintf("%s-%dY.csv", name, lookback)
}

// ScreenFileName returns the name of the screen output for a report year
func ScreenFileName(year int) string {
	return fmt.Sprintf("screen-%d.csv", year)
}

// IsScreenFile reports whether fn holds the output of a screen
func IsScreenFile(fn string) bool {
	return strings.HasPrefix(filepath.Base(fn), "screen-")
}

// StatisticsFileName returns the name of the long-form statistics output
func StatisticsFileName(lookback, year int, ext string) string {
	return fmt.Sprintf("statistics-%dY-%d.%s", lookback, year, ext)
}

// IsStatisticsFile reports whether fn holds long-form statistic records
func IsStatisticsFile(fn string) bool {
	return strings.HasPrefix(filepath.Base(fn), "statistics-")
}

// Path returns the full path of a file in the library
func (myLibrary *Library) Path(fn string) string {
	return filepath.Join(myLibrary.Dir, fn)
}

// SaveFrame writes the frame as CSV
func (myLibrary *Library) SaveFrame(fn string, frame *data.Frame) error {
	path := myLibrary.Path(fn)
	fh, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("FileName", path).Msg("could not create file")
		return err
	}
	defer fh.Close()

	if err := frame.WriteCSV(fh); err != nil {
		log.Error().Err(err).Str("FileName", path).Msg("could not write frame")
		return err
	}

	log.Info().Str("FileName", path).Int("NumRows", frame.Len()).Int("NumColumns", len(frame.Columns)).Msg("saved frame")
	return nil
}

// LoadFrame reads a CSV file written by SaveFrame
func (myLibrary *Library) LoadFrame(fn string) (*data.Frame, error) {
	path := myLibrary.Path(fn)
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	frame, err := data.ReadCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return frame, nil
}

// SaveCompanies writes the universe file
func (myLibrary *Library) SaveCompanies(fn string, companies []*data.Company) error {
	return saveRecords(myLibrary.Path(fn), &companies)
}

// LoadCompanies reads the universe file
func (myLibrary *Library) LoadCompanies(fn string) ([]*data.Company, error) {
	companies := make([]*data.Company, 0)
	if err := loadRecords(myLibrary.Path(fn), &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// SaveTickerMappings writes the ticker to company name mapping
func (myLibrary *Library) SaveTickerMappings(fn string, mappings []*data.TickerMapping) error {
	return saveRecords(myLibrary.Path(fn), &mappings)
}

// SaveStatistics writes long-form statistic records
func (myLibrary *Library) SaveStatistics(fn string, records []*data.StatisticRecord) error {
	return saveRecords(myLibrary.Path(fn), &records)
}

// LoadStatistics reads long-form statistic records from a csv or parquet file
func (myLibrary *Library) LoadStatistics(fn string) ([]*data.StatisticRecord, error) {
	if strings.EqualFold(filepath.Ext(fn), ".parquet") {
		return myLibrary.LoadParquet(fn)
	}

	records := make([]*data.StatisticRecord, 0)
	if err := loadRecords(myLibrary.Path(fn), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func saveRecords(path string, records interface{}) error {
	fh, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("FileName", path).Msg("could not create file")
		return err
	}
	defer fh.Close()

	if err := gocsv.MarshalFile(records, fh); err != nil {
		log.Error().Err(err).Str("FileName", path).Msg("could not write records")
		return err
	}

	log.Info().Str("FileName", path).Msg("saved records")
	return nil
}

func loadRecords(path string, records interface{}) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	if err := gocsv.UnmarshalFile(fh, records); err != nil {
		log.Error().Err(err).Str("FileName", path).Msg("could not parse records")
		return err
	}

	return nil
}

// DataFiles lists the request files saved for a lookback and period in name order
func (myLibrary *Library) DataFiles(period string, lookback int) ([]string, error) {
	suffix := fmt.Sprintf("-%dY.csv", lookback)
	quarterly := period != "" && period != "annual"

	matches, err := filepath.Glob(myLibrary.Path("*" + suffix))
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(matches))
	for _, match := range matches {
		fn := filepath.Base(match)
		isQuarterly := strings.HasSuffix(strings.TrimSuffix(fn, suffix), "-quarter")
		if quarterly != isQuarterly {
			continue
		}
		files = append(files, fn)
	}

	return files, nil
}

// Prepare assembles the analysis table: every request file for the lookback is
// inner-joined on (symbol, date) and company profiles, when present, are left-joined
// on symbol
func (myLibrary *Library) Prepare(period string, lookback int) (*data.Frame, error) {
	files, err := myLibrary.DataFiles(period, lookback)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s/*-%dY.csv", ErrNoData, myLibrary.Dir, lookback)
	}

	var prepared *data.Frame
	for _, fn := range files {
		frame, err := myLibrary.LoadFrame(fn)
		if err != nil {
			return nil, err
		}

		if prepared == nil {
			prepared = frame
		} else {
			prepared = prepared.Join(frame, data.OnSymbolDate, data.InnerJoin)
		}

		log.Info().Str("FileName", fn).Int("NumRows", prepared.Len()).Msg("merged data file")
	}

	companies, err := myLibrary.LoadCompanies(CompanyProfilesFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn().Str("FileName", CompanyProfilesFile).Msg("company profiles not found; skipping profile join")
	case err != nil:
		return nil, err
	default:
		prepared = prepared.Join(data.CompaniesFrame(companies), data.OnSymbol, data.LeftJoin)
	}

	return prepared, nil
}
