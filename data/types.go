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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RunSummary struct {
	ID              uuid.UUID `db:"id"`
	Command         string    `db:"command"`
	Request         string    `db:"request"`
	StartTime       time.Time `db:"start_time"`
	EndTime         time.Time `db:"end_time"`
	NumSymbols      int       `db:"num_symbols"`
	NumSkipped      int       `db:"num_skipped"`
	NumObservations int       `db:"num_observations"`
	OutputFile      string    `db:"output_file"`
}

// NewRunSummary starts a summary for a command; the start time is now
func NewRunSummary(command, request string) *RunSummary {
	return &RunSummary{
		ID:        uuid.New(),
		Command:   command,
		Request:   request,
		StartTime: time.Now(),
	}
}

// Finish records the end time and the shape of the produced frame
func (summary *RunSummary) Finish(frame *Frame) {
	summary.EndTime = time.Now()
	if frame != nil {
		summary.NumSymbols = len(frame.Symbols())
		summary.NumObservations = frame.Len()
	}
}

func (summary *RunSummary) Duration() time.Duration {
	return summary.EndTime.Sub(summary.StartTime)
}

func (summary *RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", summary.ID.String())
	e.Str("Command", summary.Command)
	e.Str("Request", summary.Request)
	e.Int("NumSymbols", summary.NumSymbols)
	e.Int("NumSkipped", summary.NumSkipped)
	e.Int("NumObservations", summary.NumObservations)
}
