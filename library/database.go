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
package library

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvscreen/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected    = errors.New("library is not connected to a database")
	ErrUnknownDataType = errors.New("unknown data type")
	ErrInvalidTable    = errors.New("invalid table name")
)

var tableNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateTable(tbl string) error {
	if !tableNameRegex.MatchString(tbl) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, tbl)
	}
	return nil
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	if myLibrary.DBUrl == "" {
		return ErrNotConnected
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
		myLibrary.Pool = nil
	}
}

// CreateTable creates tbl with the layout of dataTypeKey if it does not exist
func (myLibrary *Library) CreateTable(ctx context.Context, dataTypeKey, tbl string) error {
	if myLibrary.Pool == nil {
		return ErrNotConnected
	}

	dataType, ok := data.DataTypes[dataTypeKey]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDataType, dataTypeKey)
	}

	if err := validateTable(tbl); err != nil {
		return err
	}

	if _, err := myLibrary.Pool.Exec(ctx, dataType.ExpandedSchema(tbl)); err != nil {
		log.Error().Err(err).Str("Table", tbl).Str("DataType", dataTypeKey).Msg("could not create table")
		return err
	}

	return nil
}

// ExportFrame saves the observations of a frame into tbl
func (myLibrary *Library) ExportFrame(ctx context.Context, tbl string, frame *data.Frame) error {
	if err := myLibrary.CreateTable(ctx, data.ObservationsKey, tbl); err != nil {
		return err
	}

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return frame.SaveDB(ctx, tbl, conn)
}

// ExportStatistics saves long-form statistic records into tbl
func (myLibrary *Library) ExportStatistics(ctx context.Context, tbl string, records []*data.StatisticRecord) error {
	if err := myLibrary.CreateTable(ctx, data.StatisticsKey, tbl); err != nil {
		return err
	}

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return data.SaveStatisticsDB(ctx, tbl, records, conn)
}

// LoadStatisticsDB reads the statistic records of a report year from tbl
func (myLibrary *Library) LoadStatisticsDB(ctx context.Context, tbl string, year int) ([]*data.StatisticRecord, error) {
	if myLibrary.Pool == nil {
		return nil, ErrNotConnected
	}

	if err := validateTable(tbl); err != nil {
		return nil, err
	}

	records := make([]*data.StatisticRecord, 0)
	sql := fmt.Sprintf("SELECT symbol, year, statistic, value FROM %s WHERE year = $1 ORDER BY symbol, statistic", tbl)
	if err := pgxscan.Select(ctx, myLibrary.Pool, &records, sql, year); err != nil {
		log.Error().Err(err).Str("SQL", sql).Msg("could not load statistics")
		return nil, err
	}

	return records, nil
}

// SaveRun records a completed pipeline run
func (myLibrary *Library) SaveRun(ctx context.Context, summary *data.RunSummary) error {
	if myLibrary.Pool == nil {
		return ErrNotConnected
	}

	_, err := myLibrary.Pool.Exec(ctx, `INSERT INTO runs (
		"id",
		"command",
		"request",
		"start_time",
		"end_time",
		"num_symbols",
		"num_skipped",
		"num_observations",
		"output_file"
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		summary.ID,
		summary.Command,
		summary.Request,
		summary.StartTime,
		summary.EndTime,
		summary.NumSymbols,
		summary.NumSkipped,
		summary.NumObservations,
		summary.OutputFile,
	)

	if err != nil {
		log.Error().Err(err).Object("Run", summary).Msg("could not save run")
	}

	return err
}

// Runs returns the most recent runs, newest first
func (myLibrary *Library) Runs(ctx context.Context, limit int) ([]*data.RunSummary, error) {
	if myLibrary.Pool == nil {
		return nil, ErrNotConnected
	}

	runs := make([]*data.RunSummary, 0, limit)
	err := pgxscan.Select(ctx, myLibrary.Pool, &runs, `SELECT id, command, request, start_time, end_time,
		num_symbols, num_skipped, num_observations, output_file FROM runs ORDER BY start_time DESC LIMIT $1`, limit)
	return runs, err
}
