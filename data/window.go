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
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidWindow = errors.New("invalid analysis window")
)

type WindowPolicy string

const (
	// WindowStrict keeps a symbol only if it has a row for every year of the window
	WindowStrict WindowPolicy = "strict"

	// WindowLatest keeps a symbol if its most recent year is the report year; gaps
	// inside the window are allowed
	WindowLatest WindowPolicy = "latest"
)

// Window is the trailing range of years [ReportYear-Lookback+1, ReportYear]
type Window struct {
	ReportYear int
	Lookback   int
	Policy     WindowPolicy
}

// ParseWindowPolicy converts a configuration value into a policy; an empty string
// selects WindowStrict
func ParseWindowPolicy(policy string) (WindowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", string(WindowStrict):
		return WindowStrict, nil
	case string(WindowLatest):
		return WindowLatest, nil
	default:
		return "", fmt.Errorf("%w: unknown policy %q", ErrInvalidWindow, policy)
	}
}

// Validate checks the window describes at least one year
func (window Window) Validate() error {
	if window.Lookback < 1 {
		return fmt.Errorf("%w: lookback must be at least 1 (got %d)", ErrInvalidWindow, window.Lookback)
	}
	if window.ReportYear < 1 {
		return fmt.Errorf("%w: report year %d", ErrInvalidWindow, window.ReportYear)
	}
	return nil
}

func (window Window) StartYear() int {
	return window.ReportYear - window.Lookback + 1
}

// Years returns every year of the window in ascending order
func (window Window) Years() []int {
	years := make([]int, 0, window.Lookback)
	for year := window.StartYear(); year <= window.ReportYear; year++ {
		years = append(years, year)
	}
	return years
}

func (window Window) Contains(year int) bool {
	return year >= window.StartYear() && year <= window.ReportYear
}

func (window Window) MarshalZerologObject(e *zerolog.Event) {
	e.Int("ReportYear", window.ReportYear)
	e.Int("Lookback", window.Lookback)
	e.Str("Policy", string(window.Policy))
}

// SelectWindow restricts the frame to the window's years and drops symbols that do
// not satisfy the window policy
func SelectWindow(frame *Frame, window Window) (*Frame, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	yearsBySymbol := make(map[string]map[int]struct{})
	latestBySymbol := make(map[string]int)
	for _, row := range frame.Rows {
		years, ok := yearsBySymbol[row.Symbol]
		if !ok {
			years = make(map[int]struct{})
			yearsBySymbol[row.Symbol] = years
		}
		years[row.Year] = struct{}{}

		if latest, ok := latestBySymbol[row.Symbol]; !ok || row.Year > latest {
			latestBySymbol[row.Symbol] = row.Year
		}
	}

	qualified := make(map[string]bool, len(yearsBySymbol))
	for symbol, years := range yearsBySymbol {
		switch window.Policy {
		case WindowLatest:
			qualified[symbol] = latestBySymbol[symbol] == window.ReportYear
		default:
			covered := true
			for _, year := range window.Years() {
				if _, ok := years[year]; !ok {
					covered = false
					break
				}
			}
			qualified[symbol] = covered
		}
	}

	out := frame.Filter(func(row *Observation) bool {
		return qualified[row.Symbol] && window.Contains(row.Year)
	})

	log.Info().Object("Window", window).Int("NumSymbols", len(out.Symbols())).Int("NumRows", out.Len()).Msg("selected analysis window")
	return out, nil
}
