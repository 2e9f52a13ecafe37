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
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// quotaKeyPrefix namespaces quota counters in Redis.
const quotaKeyPrefix = "leadrelay:uploads:"

// Quota caps image-host uploads per hour using a Redis windowed counter.
// The image host bills by upload volume; the counter keeps a runaway or
// hostile client from burning the monthly allowance.
type Quota struct {
	rdb   *redis.Client
	limit int
}

// NewQuota creates an upload quota guard. A nil client or a zero limit
// disables the guard — Allow always returns true.
func NewQuota(rdb *redis.Client, limit int) *Quota {
	return &Quota{rdb: rdb, limit: limit}
}

// Allow reports whether one more upload fits in the current hourly window
// and consumes a slot if it does. Fails open: a Redis error must not cost
// the business a customer photo.
func (q *Quota) Allow(ctx context.Context) bool {
	if q == nil || q.rdb == nil || q.limit <= 0 {
		return true
	}

	key := quotaKeyPrefix + time.Now().UTC().Format("2006010215")

	n, err := q.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("upload quota check failed, allowing upload", "error", err)
		return true
	}
	if n == 1 {
		// First hit in this window — bound the key's lifetime.
		if err := q.rdb.Expire(ctx, key, time.Hour).Err(); err != nil {
			slog.Warn("failed to set quota key TTL", "key", key, "error", err)
		}
	}

	return n <= int64(q.limit)
}
