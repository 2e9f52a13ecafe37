// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package images

import (
	"context"
	"testing"
)

// TestQuota_DisabledAlwaysAllows verifies the guard is inert without a
// Redis client or with a zero limit.
func TestQuota_DisabledAlwaysAllows(t *testing.T) {
	cases := []struct {
		name  string
		quota *Quota
	}{
		{"nil guard", nil},
		{"nil client", NewQuota(nil, 100)},
		{"zero limit", NewQuota(nil, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				if !tc.quota.Allow(context.Background()) {
					t.Fatalf("Allow() = false on call %d, want true", i+1)
				}
			}
		})
	}
}
