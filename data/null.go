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

import "strings"

// nullTokens are the placeholder strings upstream data and CSV files use for a
// missing value
var nullTokens = map[string]struct{}{
	"":          {},
	"-":         {},
	"#n/a":      {},
	"n/a":       {},
	"na":        {},
	"nan":       {},
	"-nan":      {},
	"none":      {},
	"null":      {},
	"inf":       {},
	"+inf":      {},
	"-inf":      {},
	"infinity":  {},
	"-infinity": {},
}

// IsNullToken reports whether s is a placeholder for a missing value such as N/A,
// None or NaN. Matching ignores case and surrounding space.
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
