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
	"fmt"
)

// DataType describes a table layout frames can be exported to
type DataType struct {
	Name   string
	Schema string
}

const (
	ObservationsKey = "observations"
	StatisticsKey   = "statistics"
)

var DataTypes = map[string]*DataType{
	ObservationsKey: {
		Name: ObservationsKey,
		Schema: `CREATE TABLE IF NOT EXISTS %[1]s (
symbol     TEXT    NOT NULL,
event_date DATE    NOT NULL,
year       INT     NOT NULL,
metric     TEXT    NOT NULL,
value      NUMERIC,
PRIMARY KEY (symbol, event_date, metric)
);

CREATE INDEX IF NOT EXISTS %[1]s_year_idx ON %[1]s(year);`,
	},
	StatisticsKey: {
		Name: StatisticsKey,
		Schema: `CREATE TABLE IF NOT EXISTS %[1]s (
symbol    TEXT             NOT NULL,
year      INT              NOT NULL,
statistic TEXT             NOT NULL,
value     DOUBLE PRECISION NOT NULL,
PRIMARY KEY (symbol, year, statistic)
);`,
	},
}

// ExpandedSchema returns the schema with the table name substituted
func (dataType *DataType) ExpandedSchema(tbl string) string {
	return fmt.Sprintf(dataType.Schema, tbl)
}
