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
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/penny-vault/pvscreen/data"
	"github.com/rs/zerolog"
)

type Period string

const (
	PeriodAnnual  Period = "annual"
	PeriodQuarter Period = "quarter"
)

// ParsePeriod accepts annual or quarter (quarterly is an alias)
func ParsePeriod(period string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", "annual", "yearly":
		return PeriodAnnual, nil
	case "quarter", "quarterly":
		return PeriodQuarter, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPeriod, period)
	}
}

// Request is a single retrieval of a provider dataset
type Request struct {
	ID       uuid.UUID
	Provider string
	Dataset  string
	Period   Period
	Config   map[string]string

	// Skipped lists the tickers whose response did not contain the expected data
	Skipped []string
}

// NewRequest returns a new request object with the provider and dataset validated.
// An empty datasetName creates a request that is only used for the provider's
// universe functions.
func NewRequest(providerName, datasetName string, period Period, config map[string]string) (*Request, error) {
	providerObj, ok := Map[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	if datasetName != "" {
		if _, ok := providerObj.Datasets()[datasetName]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetName)
		}
	}

	switch period {
	case PeriodAnnual, PeriodQuarter:
	case "":
		period = PeriodAnnual
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeriod, period)
	}

	if config == nil {
		config = make(map[string]string)
	}

	request := &Request{
		ID:       uuid.New(),
		Provider: providerName,
		Dataset:  datasetName,
		Period:   period,
		Config:   config,
		Skipped:  []string{},
	}

	return request, nil
}

// Fetch runs the request's dataset for tickers
func (request *Request) Fetch(ctx context.Context, tickers []string) (*data.Frame, error) {
	dataset, ok := Map[request.Provider].Datasets()[request.Dataset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, request.Dataset)
	}

	return dataset.Fetch(ctx, request, tickers)
}

func (request *Request) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RequestID", request.ID.String())
	e.Str("Provider", request.Provider)
	e.Str("Dataset", request.Dataset)
	e.Str("Period", string(request.Period))
}
