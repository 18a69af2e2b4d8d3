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
package figi

import (
	"github.com/alphadose/haxmap"
	"github.com/penny-vault/pvscreen/data"
	"github.com/rs/zerolog/log"
)

var (
	figiMap *haxmap.Map[string, string]
)

func init() {
	figiMap = haxmap.New[string, string]()
}

// MapInstance returns the process wide ticker to composite FIGI cache
func MapInstance() *haxmap.Map[string, string] {
	return figiMap
}

// LoadCache seeds the cache from companies that already carry a composite FIGI,
// typically the universe saved by a previous run
func LoadCache(companies []*data.Company) {
	cache := MapInstance()

	count := 0
	for _, company := range companies {
		if company.CompositeFigi == "" {
			continue
		}
		cache.Set(company.Symbol, company.CompositeFigi)
		count++
	}

	log.Debug().Int("NumCached", count).Msg("loaded figi cache")
}
