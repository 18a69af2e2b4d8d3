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
	"context"
	"net/http"

	"github.com/alphadose/haxmap"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/penny-vault/pvscreen/data"
)

const mappingAAPLMSFT = `[
  {"data": [{"figi": "BBG000B9XRY4", "ticker": "AAPL", "exchCode": "US", "compositeFIGI": "BBG000B9XRY4"}]},
  {"warning": "No identifier found."}
]`

var _ = Describe("OpenFIGI", func() {
	var (
		server *ghttp.Server
		ctx    context.Context
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		mappingURL = server.URL() + "/v3/mapping"
		figiMap = haxmap.New[string, string]()
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
		mappingURL = OPENFIGI_MAPPING_URL
	})

	It("fills in composite figis for unmapped companies", func() {
		server.AppendHandlers(
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v3/mapping"),
				ghttp.VerifyJSON(`[
					{"idType": "TICKER", "idValue": "AAPL", "exchCode": "US", "marketSecDes": "Equity"},
					{"idType": "TICKER", "idValue": "MSFT", "exchCode": "US", "marketSecDes": "Equity"}
				]`),
				ghttp.RespondWith(http.StatusOK, mappingAAPLMSFT),
			),
		)

		companies := []*data.Company{{Symbol: "AAPL"}, {Symbol: "MSFT"}}
		Expect(Enrich(ctx, companies...)).To(Succeed())

		Expect(companies[0].CompositeFigi).To(Equal("BBG000B9XRY4"))
		Expect(companies[1].CompositeFigi).To(BeEmpty())

		cached, ok := MapInstance().Get("AAPL")
		Expect(ok).To(BeTrue())
		Expect(cached).To(Equal("BBG000B9XRY4"))
	})

	It("serves known tickers from the cache", func() {
		LoadCache([]*data.Company{{Symbol: "IBM", CompositeFigi: "BBG000BLNNH6"}, {Symbol: "XYZ"}})

		companies := []*data.Company{{Symbol: "IBM"}}
		Expect(Enrich(ctx, companies...)).To(Succeed())
		Expect(companies[0].CompositeFigi).To(Equal("BBG000BLNNH6"))
		Expect(server.ReceivedRequests()).To(BeEmpty())
	})

	It("returns an error when the api rejects the request", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusTooManyRequests, `{"error": "slow down"}`))

		err := Enrich(ctx, &data.Company{Symbol: "AAPL"})
		Expect(err).To(MatchError(ErrInvalidStatusCode))
	})
})
