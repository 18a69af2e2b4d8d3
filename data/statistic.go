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
	"github.com/rs/zerolog"
)

// StatisticRecord is the long form of a statistic table: one value per
// (symbol, year, column)
type StatisticRecord struct {
	Symbol string  `csv:"symbol" db:"symbol" parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Year   int32   `csv:"year" db:"year" parquet:"name=year, type=INT32"`
	Column string  `csv:"statistic" db:"statistic" parquet:"name=statistic, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Value  float64 `csv:"value" db:"value" parquet:"name=value, type=DOUBLE"`
}

func (record *StatisticRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Symbol", record.Symbol)
	e.Int32("Year", record.Year)
	e.Str("Statistic", record.Column)
	e.Float64("Value", record.Value)
}

// Records converts a frame into long-form statistic records. Null values are
// omitted.
func (frame *Frame) Records() []*StatisticRecord {
	records := make([]*StatisticRecord, 0, len(frame.Rows)*len(frame.Columns))
	for _, row := range frame.Rows {
		for _, col := range frame.Columns {
			if val, ok := row.Values[col]; ok {
				records = append(records, &StatisticRecord{
					Symbol: row.Symbol,
					Year:   int32(row.Year),
					Column: col,
					Value:  val,
				})
			}
		}
	}
	return records
}

// FrameFromRecords pivots long-form records back into a frame with one row per
// (symbol, year)
func FrameFromRecords(records []*StatisticRecord) *Frame {
	frame := NewFrame()
	index := make(map[string]*Observation)

	for _, record := range records {
		frame.AddColumn(record.Column)

		key := joinKey(&Observation{Symbol: record.Symbol, Year: int(record.Year)}, OnSymbolYear)
		row, ok := index[key]
		if !ok {
			row = NewObservation(record.Symbol, "")
			row.Year = int(record.Year)
			index[key] = row
			frame.Rows = append(frame.Rows, row)
		}
		row.Values[record.Column] = record.Value
	}

	return frame
}
