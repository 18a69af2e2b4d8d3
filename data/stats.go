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
package data

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownStatistic = errors.New("unknown statistic")
)

type Statistic string

const (
	StatMean          Statistic = "Mean"
	StatMedian        Statistic = "Median"
	StatPercentChange Statistic = "% Change"
)

// ParseStatistic accepts the column label of a statistic or its short name
// (mean, median, pct-change)
func ParseStatistic(name string) (Statistic, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mean":
		return StatMean, nil
	case "median":
		return StatMedian, nil
	case "% change", "pct-change", "percent-change", "change":
		return StatPercentChange, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownStatistic, name)
	}
}

// StatColumn returns the column label of a statistic, e.g. "10Y returnOnEquity Median"
func StatColumn(lookback int, column string, stat Statistic) string {
	return fmt.Sprintf("%dY %s %s", lookback, column, stat)
}

type yearValue struct {
	year  int
	value float64
}

// CalculateStats computes one statistic for each requested column over each symbol's
// observations. The result has one row per symbol with Year set to the window's
// report year. A statistic that cannot be computed is left null.
func CalculateStats(frame *Frame, stat Statistic, window Window, columns ...string) (*Frame, error) {
	switch stat {
	case StatMean, StatMedian, StatPercentChange:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatistic, stat)
	}

	for _, col := range columns {
		if !slices.Contains(frame.Columns, col) {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, col)
		}
	}

	// pivot: symbol -> column -> per-year values (one per year after Deduplicate)
	pivot := make(map[string]map[string][]yearValue)
	for _, row := range frame.Rows {
		bySymbol, ok := pivot[row.Symbol]
		if !ok {
			bySymbol = make(map[string][]yearValue)
			pivot[row.Symbol] = bySymbol
		}
		for _, col := range columns {
			if val, ok := row.Values[col]; ok {
				bySymbol[col] = append(bySymbol[col], yearValue{year: row.Year, value: val})
			}
		}
	}

	out := NewFrame()
	for _, col := range columns {
		out.AddColumn(StatColumn(window.Lookback, col, stat))
	}

	for _, symbol := range frame.Symbols() {
		row := NewObservation(symbol, "")
		row.Year = window.ReportYear

		for _, col := range columns {
			series := pivot[symbol][col]

			var (
				val float64
				ok  bool
			)

			switch stat {
			case StatMean:
				val, ok = mean(series)
			case StatMedian:
				val, ok = median(series)
			case StatPercentChange:
				val, ok = percentChange(series)
			}

			if ok {
				row.Values[StatColumn(window.Lookback, col, stat)] = val
			}
		}

		out.Rows = append(out.Rows, row)
	}

	log.Info().Str("Statistic", string(stat)).Strs("Columns", columns).Int("NumSymbols", out.Len()).Msg("calculated statistics")
	return out, nil
}

func mean(series []yearValue) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, obs := range series {
		sum += obs.value
	}
	return sum / float64(len(series)), true
}

func median(series []yearValue) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}

	values := make([]float64, len(series))
	for idx, obs := range series {
		values[idx] = obs.value
	}
	slices.Sort(values)

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid], true
	}
	return (values[mid-1] + values[mid]) / 2, true
}

// percentChange compares the value of the latest year with the value of the earliest
// year; it is null with fewer than two years or a zero base
func percentChange(series []yearValue) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}

	first, last := series[0], series[0]
	for _, obs := range series[1:] {
		if obs.year < first.year {
			first = obs
		}
		if obs.year > last.year {
			last = obs
		}
	}

	if first.year == last.year || first.value == 0 {
		return 0, false
	}

	return last.value/first.value - 1, true
}
