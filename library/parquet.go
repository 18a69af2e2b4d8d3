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
	"github.com/penny-vault/pvscreen/data"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// SaveParquet writes long-form statistic records as a zstd compressed parquet file
func (myLibrary *Library) SaveParquet(fn string, records []*data.StatisticRecord) error {
	path := myLibrary.Path(fn)

	fh, err := local.NewLocalFileWriter(path)
	if err != nil {
		log.Error().Err(err).Str("FileName", path).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(data.StatisticRecord), 4)
	if err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, record := range records {
		if err = pw.Write(record); err != nil {
			log.Error().Err(err).Object("Statistic", record).Msg("parquet write failed for record")
			return err
		}
	}

	if err = pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	log.Info().Str("FileName", path).Int("NumRecords", len(records)).Msg("parquet write finished")
	return nil
}

// LoadParquet reads statistic records written by SaveParquet
func (myLibrary *Library) LoadParquet(fn string) ([]*data.StatisticRecord, error) {
	path := myLibrary.Path(fn)

	fh, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	pr, err := reader.NewParquetReader(fh, new(data.StatisticRecord), 4)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	numRows := int(pr.GetNumRows())
	records := make([]data.StatisticRecord, numRows)
	if err := pr.Read(&records); err != nil {
		return nil, err
	}

	result := make([]*data.StatisticRecord, numRows)
	for idx := range records {
		result[idx] = &records[idx]
	}

	return result, nil
}
