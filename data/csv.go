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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrMalformedCSV = errors.New("malformed csv")
)

var keyColumns = []string{"symbol", "date", "year"}

// WriteCSV writes the frame with a header row. The column order is symbol, date,
// year, the numeric columns and finally the text columns. Null values are written
// as empty cells.
func (frame *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(keyColumns)+len(frame.Columns)+len(frame.TextColumns))
	header = append(header, keyColumns...)
	header = append(header, frame.Columns...)
	header = append(header, frame.TextColumns...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range frame.Rows {
		record := make([]string, 0, len(header))
		year := ""
		if row.Year != 0 {
			year = strconv.Itoa(row.Year)
		}
		record = append(record, row.Symbol, row.Date, year)

		for _, col := range frame.Columns {
			record = append(record, cell(row, col))
		}

		for _, col := range frame.TextColumns {
			record = append(record, cell(row, col))
		}

		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// cell formats the value of col; a row may hold it in either map whatever the
// column's kind
func cell(row *Observation, col string) string {
	if val, ok := row.Values[col]; ok {
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return row.Text[col]
}

// ReadCSV parses a file written by WriteCSV. Empty cells and placeholders such as
// N/A or NaN are null. A column is numeric when every other cell parses as a
// number; otherwise it is a text column.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedCSV)
	}

	header := records[0]
	if len(header) < len(keyColumns) {
		return nil, fmt.Errorf("%w: header has %d columns", ErrMalformedCSV, len(header))
	}
	for idx, col := range keyColumns {
		if header[idx] != col {
			return nil, fmt.Errorf("%w: expected column %d to be %q, got %q", ErrMalformedCSV, idx, col, header[idx])
		}
	}

	body := records[1:]
	numeric := make([]bool, len(header))
	for colIdx := len(keyColumns); colIdx < len(header); colIdx++ {
		numeric[colIdx] = true
		for _, record := range body {
			if IsNullToken(record[colIdx]) {
				continue
			}
			if _, err := strconv.ParseFloat(record[colIdx], 64); err != nil {
				numeric[colIdx] = false
				break
			}
		}
	}

	frame := NewFrame()
	for colIdx := len(keyColumns); colIdx < len(header); colIdx++ {
		if numeric[colIdx] {
			frame.AddColumn(header[colIdx])
		} else {
			frame.AddTextColumn(header[colIdx])
		}
	}

	for lineIdx, record := range body {
		row := NewObservation(record[0], record[1])
		if record[2] != "" {
			year, err := strconv.Atoi(record[2])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: year %q", ErrMalformedCSV, lineIdx+2, record[2])
			}
			row.Year = year
		}

		for colIdx := len(keyColumns); colIdx < len(header); colIdx++ {
			value := record[colIdx]
			if IsNullToken(value) {
				continue
			}
			if numeric[colIdx] {
				val, _ := strconv.ParseFloat(value, 64)
				row.Values[header[colIdx]] = val
			} else {
				row.Text[header[colIdx]] = value
			}
		}

		frame.Rows = append(frame.Rows, row)
	}

	return frame, nil
}
