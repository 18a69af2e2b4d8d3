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
package backblaze_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvscreen/backblaze"
)

var _ = Describe("Upload", func() {
	DescribeTable("object names",
		func(dirname, fn, expected string) {
			Expect(backblaze.ObjectName(dirname, fn)).To(Equal(expected))
		},
		Entry("with a directory", "screens", "/data/screen-2019.csv", "screens/screen-2019.csv"),
		Entry("without a directory", "", "/data/screen-2019.csv", "screen-2019.csv"),
	)

	It("is a no-op when there is nothing to upload", func() {
		Expect(backblaze.UploadAll(nil, "bucket", "dir")).To(Succeed())
	})
})
