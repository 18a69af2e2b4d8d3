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
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// SaveDB writes every non-null value of the frame to tbl in the observations layout.
// Rows without a 10 character date are skipped. The insert runs in a single
// transaction that is rolled back on the first error.
func (frame *Frame) SaveDB(ctx context.Context, tbl string, dbConn *pgxpool.Conn) error {
	tx, err := dbConn.Begin(ctx)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf(`INSERT INTO %[1]s (
		"symbol",
		"event_date",
		"year",
		"metric",
		"value"
	) VALUES (
		$1, $2, $3, $4, $5
	) ON CONFLICT ON CONSTRAINT %[1]s_pkey DO UPDATE SET
		year = EXCLUDED.year,
		value = EXCLUDED.value`, tbl)

	for _, row := range frame.Rows {
		if len(row.Date) != dateLength {
			continue
		}

		for _, col := range frame.Columns {
			val, ok := row.Values[col]
			if !ok {
				continue
			}

			if _, err := tx.Exec(ctx, sql, row.Symbol, row.Date, row.Year, col, val); err != nil {
				log.Error().Err(err).Str("SQL", sql).Object("Observation", row).Str("Metric", col).Msg("save observation to DB failed")
				if err2 := tx.Rollback(ctx); err2 != nil {
					log.Error().Err(err2).Msg("error rolling back tx")
				}
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// SaveStatisticsDB writes long-form statistic records to tbl in the statistics layout
func SaveStatisticsDB(ctx context.Context, tbl string, records []*StatisticRecord, dbConn *pgxpool.Conn) error {
	tx, err := dbConn.Begin(ctx)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf(`INSERT INTO %[1]s (
		"symbol",
		"year",
		"statistic",
		"value"
	) VALUES (
		$1, $2, $3, $4
	) ON CONFLICT ON CONSTRAINT %[1]s_pkey DO UPDATE SET
		value = EXCLUDED.value`, tbl)

	for _, record := range records {
		if _, err := tx.Exec(ctx, sql, record.Symbol, record.Year, record.Column, record.Value); err != nil {
			log.Error().Err(err).Str("SQL", sql).Object("Statistic", record).Msg("save statistic to DB failed")
			if err2 := tx.Rollback(ctx); err2 != nil {
				log.Error().Err(err2).Msg("error rolling back tx")
			}
			return err
		}
	}

	return tx.Commit(ctx)
}
