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
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const dateLength = 10

// Clean drops rows whose date is not a 10 character YYYY-MM-DD string and sets Year
// on copies of the rows that remain. A date with a non-numeric year prefix counts as
// malformed.
func Clean(frame *Frame) *Frame {
	out := frame.Filter(func(*Observation) bool { return false })
	for _, row := range frame.Rows {
		if utf8.RuneCountInString(row.Date) != dateLength {
			continue
		}

		year, err := strconv.Atoi(row.Date[:4])
		if err != nil {
			continue
		}

		clean := row.Clone()
		clean.Year = year
		out.Rows = append(out.Rows, clean)
	}

	log.Info().Int("NumRows", frame.Len()).Int("NumClean", out.Len()).Msg("cleaned observations")
	return out
}

// Deduplicate sorts the frame by symbol and year and keeps the last row reported for
// each (symbol, year) pair
func Deduplicate(frame *Frame) *Frame {
	sorted := frame.Filter(func(*Observation) bool { return true })
	sorted.Sort()

	out := sorted.Filter(func(*Observation) bool { return false })
	for idx, row := range sorted.Rows {
		if idx+1 < len(sorted.Rows) {
			next := sorted.Rows[idx+1]
			if next.Symbol == row.Symbol && next.Year == row.Year {
				continue
			}
		}
		out.Rows = append(out.Rows, row)
	}

	log.Info().Int("NumRows", frame.Len()).Int("NumUnique", out.Len()).Msg("removed duplicate observations")
	return out
}

// Latest keeps the most recent row of each symbol
func Latest(frame *Frame) *Frame {
	latest := make(map[string]*Observation)
	for _, row := range frame.Rows {
		if prev, ok := latest[row.Symbol]; !ok || row.Year > prev.Year || (row.Year == prev.Year && row.Date >= prev.Date) {
			latest[row.Symbol] = row
		}
	}

	return frame.Filter(func(row *Observation) bool {
		return latest[row.Symbol] == row
	})
}
