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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvscreen/pkginfo"
	"github.com/rs/zerolog/log"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// PingURL is the healthchecks.io ping endpoint
var PingURL = "https://hc-ping.com"

func ping(ctx context.Context, id string, suffix string, body string) error {
	if id == "" {
		return nil
	}

	url := fmt.Sprintf("%s/%s%s", PingURL, id, suffix)

	client := resty.New().SetTimeout(10 * time.Second)
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("User-Agent", pkginfo.UserAgent()).
		SetBody(body).
		Post(url)

	if err != nil {
		log.Warn().Err(err).Str("URL", url).Msg("healthcheck ping failed")
		return err
	}

	if resp.StatusCode() != 200 {
		log.Warn().Int("StatusCode", resp.StatusCode()).Str("URL", url).Msg("healthcheck ping returned invalid status code")
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}

// Start signals that a monitored job has begun. An empty id disables monitoring.
func Start(ctx context.Context, id string) error {
	return ping(ctx, id, "/start", "")
}

// Ping signals success
func Ping(ctx context.Context, id string, msg string) error {
	return ping(ctx, id, "", msg)
}

// Fail signals that a job failed; msg is attached to the check log
func Fail(ctx context.Context, id string, msg string) error {
	return ping(ctx, id, "/fail", msg)
}
