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
	"sort"

	"github.com/rs/zerolog"
)

var (
	ErrColumnNotFound = errors.New("column not found")
)

// Observation is a single row of a frame. Rows are keyed by (Symbol, Date); Year is
// derived from Date by Clean. A column missing from Values is null.
type Observation struct {
	Symbol string
	Date   string
	Year   int
	Values map[string]float64
	Text   map[string]string
}

// NewObservation creates an empty row for the given symbol and date
func NewObservation(symbol, date string) *Observation {
	return &Observation{
		Symbol: symbol,
		Date:   date,
		Values: make(map[string]float64),
		Text:   make(map[string]string),
	}
}

// Value returns the numeric value stored in column and false if it is null
func (obs *Observation) Value(column string) (float64, bool) {
	val, ok := obs.Values[column]
	return val, ok
}

func (obs *Observation) Clone() *Observation {
	clone := NewObservation(obs.Symbol, obs.Date)
	clone.Year = obs.Year
	for k, v := range obs.Values {
		clone.Values[k] = v
	}
	for k, v := range obs.Text {
		clone.Text[k] = v
	}
	return clone
}

func (obs *Observation) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", obs.Symbol)
	e.Str("Date", obs.Date)
	e.Int("Year", obs.Year)
	e.Int("NumValues", len(obs.Values))
}

// Frame is an ordered table of observations. Columns lists the numeric metric columns
// and TextColumns the non-numeric attributes, both in first-seen order.
type Frame struct {
	Columns     []string
	TextColumns []string
	Rows        []*Observation
}

// JoinKey selects the columns two frames are matched on
type JoinKey int

const (
	OnSymbol JoinKey = iota
	OnSymbolDate
	OnSymbolYear
)

// JoinType controls what happens to rows of the left frame that have no match
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

func NewFrame() *Frame {
	return &Frame{
		Columns:     []string{},
		TextColumns: []string{},
		Rows:        []*Observation{},
	}
}

// Len returns the number of rows in the frame
func (frame *Frame) Len() int {
	return len(frame.Rows)
}

// HasColumn reports whether name is a numeric or text column of the frame
func (frame *Frame) HasColumn(name string) bool {
	return slices.Contains(frame.Columns, name) || slices.Contains(frame.TextColumns, name)
}

// AddColumn registers a numeric column. A text column of the same name becomes
// numeric; registering an existing numeric column is a no-op.
func (frame *Frame) AddColumn(name string) {
	if slices.Contains(frame.Columns, name) {
		return
	}
	if idx := slices.Index(frame.TextColumns, name); idx >= 0 {
		frame.TextColumns = slices.Delete(frame.TextColumns, idx, idx+1)
	}
	frame.Columns = append(frame.Columns, name)
}

// AddTextColumn registers a text column; registering an existing column of either
// kind is a no-op
func (frame *Frame) AddTextColumn(name string) {
	if !frame.HasColumn(name) {
		frame.TextColumns = append(frame.TextColumns, name)
	}
}

// Append adds rows to the frame and registers any columns the frame has not seen.
// Columns first seen on a row are registered in sorted order so output is stable.
func (frame *Frame) Append(rows ...*Observation) {
	for _, row := range rows {
		frame.registerColumns(row)
		frame.Rows = append(frame.Rows, row)
	}
}

func (frame *Frame) registerColumns(row *Observation) {
	newCols := make([]string, 0)
	for k := range row.Values {
		if !slices.Contains(frame.Columns, k) {
			newCols = append(newCols, k)
		}
	}
	sort.Strings(newCols)
	for _, col := range newCols {
		frame.AddColumn(col)
	}

	newText := make([]string, 0)
	for k := range row.Text {
		if !frame.HasColumn(k) {
			newText = append(newText, k)
		}
	}
	sort.Strings(newText)
	frame.TextColumns = append(frame.TextColumns, newText...)
}

// Concat appends every row of other, merging its column lists into the frame. A
// column that is numeric in either frame is numeric in the result.
func (frame *Frame) Concat(other *Frame) {
	for _, col := range other.Columns {
		frame.AddColumn(col)
	}
	for _, col := range other.TextColumns {
		frame.AddTextColumn(col)
	}
	frame.Rows = append(frame.Rows, other.Rows...)
}

// Filter returns a new frame with the same columns holding the rows for which keep
// returns true. Rows are shared with the receiver.
func (frame *Frame) Filter(keep func(*Observation) bool) *Frame {
	out := &Frame{
		Columns:     slices.Clone(frame.Columns),
		TextColumns: slices.Clone(frame.TextColumns),
		Rows:        make([]*Observation, 0, len(frame.Rows)),
	}

	for _, row := range frame.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}

	return out
}

// FilterSymbols keeps the rows whose symbol is in symbols
func (frame *Frame) FilterSymbols(symbols []string) *Frame {
	allowed := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		allowed[symbol] = struct{}{}
	}

	return frame.Filter(func(row *Observation) bool {
		_, ok := allowed[row.Symbol]
		return ok
	})
}

// FilterYear keeps the rows for a single year
func (frame *Frame) FilterYear(year int) *Frame {
	return frame.Filter(func(row *Observation) bool {
		return row.Year == year
	})
}

// Symbols returns the distinct symbols of the frame in the order they first appear
func (frame *Frame) Symbols() []string {
	seen := make(map[string]struct{})
	symbols := make([]string, 0)
	for _, row := range frame.Rows {
		if _, ok := seen[row.Symbol]; ok {
			continue
		}
		seen[row.Symbol] = struct{}{}
		symbols = append(symbols, row.Symbol)
	}
	return symbols
}

// Years returns the sorted distinct years present in the frame
func (frame *Frame) Years() []int {
	years := make([]int, 0)
	for _, row := range frame.Rows {
		if !slices.Contains(years, row.Year) {
			years = append(years, row.Year)
		}
	}
	slices.Sort(years)
	return years
}

// Sort orders rows by symbol, year and date. The sort is stable so rows with
// identical keys keep their original relative order.
func (frame *Frame) Sort() {
	sort.SliceStable(frame.Rows, func(i, j int) bool {
		a, b := frame.Rows[i], frame.Rows[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Date < b.Date
	})
}

func joinKey(row *Observation, key JoinKey) string {
	switch key {
	case OnSymbolDate:
		return row.Symbol + "|" + row.Date
	case OnSymbolYear:
		return fmt.Sprintf("%s|%d", row.Symbol, row.Year)
	default:
		return row.Symbol
	}
}

// Join matches each row of the frame with the first row of other that has the same
// key. Columns of other that already exist in the frame are dropped so the left
// value always wins. With InnerJoin unmatched left rows are discarded; with LeftJoin
// they are kept with nulls for the columns of other.
func (frame *Frame) Join(other *Frame, key JoinKey, how JoinType) *Frame {
	index := make(map[string]*Observation, len(other.Rows))
	for _, row := range other.Rows {
		k := joinKey(row, key)
		if _, ok := index[k]; !ok {
			index[k] = row
		}
	}

	out := &Frame{
		Columns:     slices.Clone(frame.Columns),
		TextColumns: slices.Clone(frame.TextColumns),
		Rows:        make([]*Observation, 0, len(frame.Rows)),
	}

	addCols := make([]string, 0)
	for _, col := range other.Columns {
		if !frame.HasColumn(col) {
			addCols = append(addCols, col)
			out.Columns = append(out.Columns, col)
		}
	}

	addText := make([]string, 0)
	for _, col := range other.TextColumns {
		if !frame.HasColumn(col) && !slices.Contains(addCols, col) {
			addText = append(addText, col)
			out.TextColumns = append(out.TextColumns, col)
		}
	}

	for _, row := range frame.Rows {
		match, ok := index[joinKey(row, key)]
		if !ok {
			if how == LeftJoin {
				out.Rows = append(out.Rows, row.Clone())
			}
			continue
		}

		merged := row.Clone()
		for _, col := range addCols {
			if val, ok := match.Values[col]; ok {
				merged.Values[col] = val
			}
		}
		for _, col := range addText {
			if val, ok := match.Text[col]; ok {
				merged.Text[col] = val
			}
		}
		out.Rows = append(out.Rows, merged)
	}

	return out
}
