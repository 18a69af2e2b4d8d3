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
	"errors"

	"github.com/penny-vault/pvscreen/data"
)

var (
	ErrMissingKey        = errors.New("response is missing the expected key")
	ErrInvalidStatusCode = errors.New("invalid status code received")
	ErrUnexpectedPayload = errors.New("unexpected response payload")
	ErrProviderNotFound  = errors.New("provider not found")
	ErrDatasetNotFound   = errors.New("dataset not found")
	ErrUnknownPeriod     = errors.New("unknown reporting period")
)

// Map lists every provider by the key used on the command line and in configuration
var Map = map[string]Provider{
	"fmp": &FMP{},
}

type Provider interface {
	Name() string
	ConfigDescription() map[string]string
	Description() string
	Datasets() map[string]Dataset
}

// UniverseProvider is implemented by providers that can list the securities of an
// exchange and describe each company
type UniverseProvider interface {
	Listings(ctx context.Context, request *Request) ([]*data.Listing, error)
	Profiles(ctx context.Context, request *Request, tickers []string) ([]*data.Company, error)
}

type Dataset struct {
	Name        string
	Description string

	// Endpoints are path templates requested once per ticker; {ticker} is replaced by
	// the ticker. When there is more than one endpoint the responses are joined on
	// (symbol, date).
	Endpoints []string

	// ValueKey is the key holding the records in the response body; empty means the
	// body is a top-level array
	ValueKey string

	// LeafNames drops the parent path from flattened column names
	LeafNames bool

	// Periodic datasets accept the annual / quarter period parameter
	Periodic bool

	// Fetch retrieves the dataset for each ticker in order and returns the
	// concatenated rows. Tickers whose response lacks ValueKey are skipped and
	// recorded on the request; any other error aborts the fetch.
	Fetch func(ctx context.Context, request *Request, tickers []string) (*data.Frame, error)
}
