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
package healthcheck_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/penny-vault/pvscreen/healthcheck"
)

var _ = Describe("Healthcheck", func() {
	var (
		server  *ghttp.Server
		ctx     context.Context
		origURL string
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		origURL = healthcheck.PingURL
		healthcheck.PingURL = server.URL()
		ctx = context.Background()
	})

	AfterEach(func() {
		healthcheck.PingURL = origURL
		server.Close()
	})

	It("pings start, success and failure endpoints", func() {
		server.AppendHandlers(
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/abc-123/start"),
				ghttp.RespondWith(http.StatusOK, "OK"),
			),
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/abc-123"),
				ghttp.VerifyBody([]byte("fetched 3 tickers")),
				ghttp.RespondWith(http.StatusOK, "OK"),
			),
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/abc-123/fail"),
				ghttp.VerifyBody([]byte("boom")),
				ghttp.RespondWith(http.StatusOK, "OK"),
			),
		)

		Expect(healthcheck.Start(ctx, "abc-123")).To(Succeed())
		Expect(healthcheck.Ping(ctx, "abc-123", "fetched 3 tickers")).To(Succeed())
		Expect(healthcheck.Fail(ctx, "abc-123", "boom")).To(Succeed())
		Expect(server.ReceivedRequests()).To(HaveLen(3))
	})

	It("does nothing without a check id", func() {
		Expect(healthcheck.Ping(ctx, "", "ignored")).To(Succeed())
		Expect(server.ReceivedRequests()).To(BeEmpty())
	})

	It("wraps unexpected status codes", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "not found"))
		Expect(healthcheck.Ping(ctx, "missing", "")).To(MatchError(healthcheck.ErrStatus))
	})
})
