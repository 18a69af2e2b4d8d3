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
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidCriterion = errors.New("invalid criterion")
	ErrColumnNotNumeric = errors.New("column is not numeric")
)

// Criterion is an exclusive (Min, Max) range a column must fall within
type Criterion struct {
	Column string  `mapstructure:"column" toml:"column"`
	Min    float64 `mapstructure:"min" toml:"min"`
	Max    float64 `mapstructure:"max" toml:"max"`
}

// Criteria are applied in order; a row passes only if it passes every criterion
type Criteria []Criterion

// DefaultCriteria returns the quality screen used when none is configured: low
// leverage, adequate liquidity, consistent returns on equity and strong interest
// coverage. The trailing return on equity criterion refers to the column stat
// produces for the lookback.
func DefaultCriteria(lookback int, stat Statistic) Criteria {
	return Criteria{
		{Column: "debtEquityRatio", Min: 0, Max: 0.5},
		{Column: "currentRatio", Min: 1.5, Max: 10},
		{Column: "returnOnEquity", Min: 0.10, Max: 0.50},
		{Column: StatColumn(lookback, "returnOnEquity", stat), Min: 0.08, Max: 0.25},
		{Column: "interestCoverage", Min: 15, Max: 5000},
	}
}

// ParseCriterion reads a criterion written as column:min:max. The column name may
// itself contain colons.
func ParseCriterion(spec string) (Criterion, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return Criterion{}, fmt.Errorf("%w: %q is not column:min:max", ErrInvalidCriterion, spec)
	}

	maxVal, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64)
	if err != nil {
		return Criterion{}, fmt.Errorf("%w: max of %q: %w", ErrInvalidCriterion, spec, err)
	}

	minVal, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-2]), 64)
	if err != nil {
		return Criterion{}, fmt.Errorf("%w: min of %q: %w", ErrInvalidCriterion, spec, err)
	}

	column := strings.Join(parts[:len(parts)-2], ":")
	if column == "" {
		return Criterion{}, fmt.Errorf("%w: %q has no column", ErrInvalidCriterion, spec)
	}

	if minVal >= maxVal {
		return Criterion{}, fmt.Errorf("%w: min %g is not below max %g", ErrInvalidCriterion, minVal, maxVal)
	}

	return Criterion{Column: column, Min: minVal, Max: maxVal}, nil
}

// Passes reports whether the row's value is strictly inside the range. A null value
// passes.
func (criterion Criterion) Passes(row *Observation) bool {
	val, ok := row.Value(criterion.Column)
	if !ok {
		return true
	}
	return val > criterion.Min && val < criterion.Max
}

func (criterion Criterion) String() string {
	return fmt.Sprintf("%g < %s < %g", criterion.Min, criterion.Column, criterion.Max)
}

func (criterion Criterion) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Column", criterion.Column)
	e.Float64("Min", criterion.Min)
	e.Float64("Max", criterion.Max)
}

// Screen keeps the rows that pass every criterion. A criterion on a column the frame
// does not have returns ErrColumnNotFound; one on a text column returns
// ErrColumnNotNumeric.
func Screen(frame *Frame, criteria Criteria) (*Frame, error) {
	for _, criterion := range criteria {
		switch {
		case slices.Contains(frame.Columns, criterion.Column):
		case slices.Contains(frame.TextColumns, criterion.Column):
			return nil, fmt.Errorf("%w: %s", ErrColumnNotNumeric, criterion.Column)
		default:
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, criterion.Column)
		}
	}

	out := frame
	for _, criterion := range criteria {
		out = out.Filter(criterion.Passes)
		log.Info().Object("Criterion", criterion).Int("NumRemaining", out.Len()).Msg("applied screen criterion")
	}

	return out, nil
}
