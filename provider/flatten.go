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
package provider

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/penny-vault/pvscreen/data"
	"github.com/tidwall/gjson"
)

type field struct {
	name  string
	value gjson.Result
}

// extractRecords pulls the list of records out of a response body. With an empty
// key the body must be an array; otherwise key must exist and hold an array or a
// single object. A body that is an empty object or lacks key returns ErrMissingKey.
func extractRecords(body []byte, key string) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid json", ErrUnexpectedPayload)
	}

	root := gjson.ParseBytes(body)

	if key == "" {
		switch {
		case root.IsArray():
			return root.Array(), nil
		case root.IsObject() && len(root.Map()) == 0:
			return nil, ErrMissingKey
		default:
			return nil, fmt.Errorf("%w: expected an array, got %s", ErrUnexpectedPayload, root.Type)
		}
	}

	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object, got %s", ErrUnexpectedPayload, root.Type)
	}

	value := root.Get(key)
	switch {
	case !value.Exists():
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, key)
	case value.IsArray():
		return value.Array(), nil
	case value.IsObject():
		return []gjson.Result{value}, nil
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrUnexpectedPayload, key, value.Type)
	}
}

// flatten walks a record in document order. Nested objects become dotted column
// names, or just the innermost name when leafNames is set. Arrays are not expanded.
func flatten(record gjson.Result, leafNames bool) []field {
	fields := make([]field, 0)
	flattenInto(&fields, "", record, leafNames)
	return fields
}

func flattenInto(fields *[]field, prefix string, record gjson.Result, leafNames bool) {
	record.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if prefix != "" && !leafNames {
			name = prefix + "." + name
		}

		switch {
		case value.IsObject():
			flattenInto(fields, name, value, leafNames)
		case value.IsArray():
		default:
			*fields = append(*fields, field{name: name, value: value})
		}

		return true
	})
}

// missing reports whether a value should be treated as null: JSON null, a
// placeholder string such as "N/A" or "None", or a NaN / infinite number
func missing(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null:
		return true
	case gjson.String:
		str := strings.TrimSpace(value.Str)
		if data.IsNullToken(str) {
			return true
		}
		val, err := strconv.ParseFloat(str, 64)
		return err == nil && (math.IsNaN(val) || math.IsInf(val, 0))
	default:
		return false
	}
}

// numeric returns the value as a float when it is a JSON number or a string holding
// a number. Some legacy endpoints report every number as a string.
func numeric(value gjson.Result) (float64, bool) {
	switch value.Type {
	case gjson.Number:
		return value.Num, true
	case gjson.String:
		val, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		return val, err == nil
	default:
		return 0, false
	}
}

// recordsFrame converts flattened records into frame rows for ticker. The symbol of
// every row is the requested ticker and the date comes from the record's date
// field. A column that holds a number in any record is numeric; text found in a
// numeric column is kept on the row's text map so it is not silently lost.
func recordsFrame(records []gjson.Result, ticker string, leafNames bool) *data.Frame {
	frame := data.NewFrame()

	for _, record := range records {
		if !record.IsObject() {
			continue
		}

		obs := data.NewObservation(ticker, "")

		for _, fld := range flatten(record, leafNames) {
			switch fld.name {
			case "symbol":
				continue
			case "date":
				obs.Date = fld.value.String()
				continue
			}

			if missing(fld.value) {
				continue
			}

			if val, ok := numeric(fld.value); ok {
				frame.AddColumn(fld.name)
				obs.Values[fld.name] = val
				continue
			}

			frame.AddTextColumn(fld.name)
			obs.Text[fld.name] = fld.value.String()
		}

		frame.Append(obs)
	}

	return frame
}
